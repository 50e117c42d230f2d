package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	tus "github.com/eventials/go-tus"
)

// DefaultRetryDelays is the progressive schedule applied between tus
// attempts.
var DefaultRetryDelays = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
}

type TusConfig struct {
	ChunkSize   int64
	RetryDelays []time.Duration
	HTTPClient  *http.Client
}

// TusUploader delegates chunking, retry and resumption to the tus protocol
// client. Resumption is protocol-native: the server remembers the offset
// keyed by an upload URL, which is persisted through the SessionStore so a
// process restart resumes against the same URL.
type TusUploader struct {
	store    SessionStore
	endpoint string
	access   string
	file     File
	cfg      TusConfig

	tracker *tracker
	gate    *gate
	aborted atomic.Bool

	mu  sync.Mutex
	cur *tus.Uploader
}

func NewTusUploader(store SessionStore, endpoint, accessKey string, file File, cfg TusConfig) *TusUploader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if len(cfg.RetryDelays) == 0 {
		cfg.RetryDelays = DefaultRetryDelays
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &TusUploader{
		store:    store,
		endpoint: endpoint,
		access:   accessKey,
		file:     file,
		cfg:      cfg,
		tracker:  newTracker(file.ID(), file.Name, file.Size),
		gate:     newGate(),
	}
}

func (u *TusUploader) Progress() Progress { return u.tracker.snapshot() }

// Pause forwards to the protocol client's abort primitive, the server keeps
// the offset so resume continues where it stopped.
func (u *TusUploader) Pause() {
	u.gate.Pause()
	u.abortCurrent()
	u.tracker.setState(StatePaused)
}

func (u *TusUploader) Resume() {
	u.gate.Resume()
	u.tracker.resume()
}

func (u *TusUploader) Abort() error {
	u.aborted.Store(true)
	u.abortCurrent()
	u.gate.Resume()
	u.tracker.setState(StateAborted)
	return u.store.Delete(context.Background(), u.file.ID())
}

func (u *TusUploader) abortCurrent() {
	u.mu.Lock()
	if u.cur != nil {
		u.cur.Abort()
	}
	u.mu.Unlock()
}

func (u *TusUploader) Start(ctx context.Context) error {
	header := http.Header{}
	header.Set("AccessKey", u.access)

	client, err := tus.NewClient(u.endpoint, &tus.Config{
		ChunkSize:  u.cfg.ChunkSize,
		Resume:     true,
		Store:      &tusURLStore{ctx: ctx, store: u.store, endpoint: u.endpoint, file: u.file},
		Header:     header,
		HttpClient: u.cfg.HTTPClient,
	})
	if err != nil {
		return err
	}

	stream := io.NewSectionReader(u.file.Content, 0, u.file.Size)
	up := tus.NewUpload(stream, u.file.Size,
		tus.Metadata{"filename": u.file.Name}, u.file.ID())

	u.tracker.setState(StateUploading)

	attempt := 0
	for {
		if err := u.gate.Wait(ctx); err != nil {
			return u.interrupted(err)
		}
		if u.aborted.Load() {
			return ErrAborted
		}

		err := u.uploadOnce(ctx, client, up)
		if err == nil {
			if up.Finished() {
				break
			}
			// The protocol client returns cleanly after an abort; a pause
			// loops back to the gate, anything else is a real abort.
			if u.aborted.Load() {
				return ErrAborted
			}
			continue
		}
		if u.aborted.Load() {
			return ErrAborted
		}

		if attempt >= len(u.cfg.RetryDelays) {
			wrapped := fmt.Errorf("tus upload failed after %d attempts: %w", attempt+1, err)
			u.tracker.fail(wrapped)
			return wrapped
		}
		select {
		case <-time.After(u.cfg.RetryDelays[attempt]):
		case <-ctx.Done():
			return u.interrupted(ctx.Err())
		}
		attempt++
	}

	u.tracker.setUploaded(u.file.Size)
	u.tracker.setState(StateCompleted)
	return u.store.Delete(ctx, u.file.ID())
}

func (u *TusUploader) interrupted(err error) error {
	if u.aborted.Load() {
		return ErrAborted
	}
	return err
}

func (u *TusUploader) uploadOnce(ctx context.Context, client *tus.Client, up *tus.Upload) error {
	uploader, err := client.CreateOrResumeUpload(up)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.cur = uploader
	u.mu.Unlock()

	progressCh := make(chan tus.Upload)
	done := make(chan struct{})
	uploader.NotifyUploadProgress(progressCh)
	go func() {
		for {
			select {
			case v := <-progressCh:
				u.tracker.setUploaded(v.Offset())
			case <-done:
				return
			}
		}
	}()

	// The protocol client has no context support, mirror cancellation onto
	// its abort primitive.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			uploader.Abort()
		case <-stop:
		}
	}()

	err = uploader.Upload()
	close(stop)
	close(done)
	return err
}

// tusURLStore adapts the SessionStore to the tus client's fingerprint->URL
// store, keeping the endpoint-match invariant: a URL saved against a
// different creation endpoint is not offered for resume.
type tusURLStore struct {
	ctx      context.Context
	store    SessionStore
	endpoint string
	file     File
}

func (s *tusURLStore) Get(fingerprint string) (string, bool) {
	sess, err := s.store.Get(s.ctx, fingerprint)
	if err != nil || sess == nil || sess.UploadURL == "" || sess.Endpoint != s.endpoint {
		return "", false
	}
	return sess.UploadURL, true
}

func (s *tusURLStore) Set(fingerprint, url string) {
	sess, err := s.store.Get(s.ctx, fingerprint)
	if err != nil || sess == nil || sess.Endpoint != s.endpoint {
		sess = &Session{
			FileID:    fingerprint,
			Endpoint:  s.endpoint,
			FileName:  s.file.Name,
			FileSize:  s.file.Size,
			CreatedAt: time.Now(),
		}
	}
	sess.UploadURL = url
	s.store.Put(s.ctx, sess)
}

func (s *tusURLStore) Delete(fingerprint string) {
	s.store.Delete(s.ctx, fingerprint)
}

func (s *tusURLStore) Close() {}
