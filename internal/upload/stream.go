package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// StreamConfig tunes the streaming strategy.
type StreamConfig struct {
	HTTPClient *http.Client
}

// StreamUploader pushes the whole file in one PUT. The remote protocol has
// no partial resume in this mode: pause cancels the in-flight request and
// resume restarts the transfer from byte 0. A completion flag is recorded
// transiently so an immediate duplicate call short-circuits, then cleaned
// up. No request timeout is applied, cancellation is the only bound.
type StreamUploader struct {
	store    SessionStore
	endpoint string
	access   string
	file     File
	client   *http.Client

	tracker *tracker
	gate    *gate
	aborted atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewStreamUploader(store SessionStore, endpoint, accessKey string, file File, cfg StreamConfig) *StreamUploader {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &StreamUploader{
		store:    store,
		endpoint: endpoint,
		access:   accessKey,
		file:     file,
		client:   client,
		tracker:  newTracker(file.ID(), file.Name, file.Size),
		gate:     newGate(),
	}
}

func (u *StreamUploader) Progress() Progress { return u.tracker.snapshot() }

// Pause aborts the in-flight request, the transport has no way to suspend a
// single PUT mid-body.
func (u *StreamUploader) Pause() {
	u.gate.Pause()
	u.cancelInFlight()
	u.tracker.setState(StatePaused)
}

func (u *StreamUploader) Resume() {
	u.gate.Resume()
	u.tracker.resume()
}

func (u *StreamUploader) Abort() error {
	u.aborted.Store(true)
	u.cancelInFlight()
	u.gate.Resume()
	u.tracker.setState(StateAborted)
	return u.store.Delete(context.Background(), u.file.ID())
}

func (u *StreamUploader) cancelInFlight() {
	u.mu.Lock()
	if u.cancel != nil {
		u.cancel()
	}
	u.mu.Unlock()
}

func (u *StreamUploader) Start(ctx context.Context) error {
	fileID := u.file.ID()

	// Idempotent short-circuit: a session already marked complete means the
	// bytes are on the remote side.
	sess, err := u.store.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if sess != nil && sess.Endpoint == u.endpoint && sess.Completed {
		u.tracker.setUploaded(u.file.Size)
		u.tracker.setState(StateCompleted)
		return u.store.Delete(ctx, fileID)
	}

	sess = &Session{
		FileID:    fileID,
		Endpoint:  u.endpoint,
		AccessKey: u.access,
		FileName:  u.file.Name,
		FileSize:  u.file.Size,
		CreatedAt: time.Now(),
	}
	if err := u.store.Put(ctx, sess); err != nil {
		return err
	}

	u.tracker.setState(StateUploading)

	for {
		if err := u.gate.Wait(ctx); err != nil {
			if u.aborted.Load() {
				return ErrAborted
			}
			return err
		}
		if u.aborted.Load() {
			return ErrAborted
		}

		err := u.putOnce(ctx)
		if err == nil {
			break
		}
		if u.aborted.Load() {
			return ErrAborted
		}
		// A pause cancels the request: restart from byte 0 once resumed.
		if errors.Is(err, context.Canceled) && u.gate.Paused() {
			u.tracker.setUploaded(0)
			continue
		}
		u.tracker.fail(err)
		return err
	}

	// Record completion, then clean up.
	sess.Completed = true
	if err := u.store.Put(ctx, sess); err != nil {
		return err
	}
	u.tracker.setState(StateCompleted)
	return u.store.Delete(ctx, fileID)
}

func (u *StreamUploader) putOnce(ctx context.Context) error {
	reqCtx, cancel := context.WithCancel(ctx)
	u.mu.Lock()
	u.cancel = cancel
	u.mu.Unlock()
	defer cancel()

	body := &countingReader{
		r: io.NewSectionReader(u.file.Content, 0, u.file.Size),
		onRead: func(total int64) {
			u.tracker.setUploaded(total)
		},
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPut, u.endpoint, body)
	if err != nil {
		return err
	}
	req.ContentLength = u.file.Size
	req.Header.Set("AccessKey", u.access)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream upload rejected with status %d", resp.StatusCode)
	}
	u.tracker.setUploaded(u.file.Size)
	return nil
}

// countingReader reports cumulative bytes read, giving fine-grained upload
// progress off the transport's own reads.
type countingReader struct {
	r      io.Reader
	total  int64
	onRead func(total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.total += int64(n)
		if c.onRead != nil {
			c.onRead(c.total)
		}
	}
	return n, err
}
