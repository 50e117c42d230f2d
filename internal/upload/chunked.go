package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultChunkSize    = 50 << 20 // 50 MiB
	DefaultMaxRetries   = 3
	DefaultChunkTimeout = 5 * time.Minute
)

// ChunkedConfig tunes the chunked strategy. Zero values fall back to the
// defaults above.
type ChunkedConfig struct {
	ChunkSize    int64
	MaxRetries   int
	ChunkTimeout time.Duration
	// BackoffBase scales the 2^n retry delay, tests shrink it.
	BackoffBase time.Duration
	HTTPClient  *http.Client
	// OnChunk fires after each chunk is durably confirmed.
	OnChunk func(index int, size int64)
}

func (c *ChunkedConfig) withDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = DefaultChunkTimeout
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// ChunkedUploader slices the file into fixed-size chunks and PATCHes them to
// the endpoint strictly in order, persisting the session after every
// confirmed chunk. Chunk i+1 is never sent before chunk i's success is
// durably recorded, so a crash loses at most one chunk of progress.
type ChunkedUploader struct {
	store    SessionStore
	endpoint string
	access   string
	file     File
	cfg      ChunkedConfig

	tracker *tracker
	gate    *gate
	aborted atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewChunkedUploader(store SessionStore, endpoint, accessKey string, file File, cfg ChunkedConfig) *ChunkedUploader {
	cfg.withDefaults()
	return &ChunkedUploader{
		store:    store,
		endpoint: endpoint,
		access:   accessKey,
		file:     file,
		cfg:      cfg,
		tracker:  newTracker(file.ID(), file.Name, file.Size),
		gate:     newGate(),
	}
}

func (u *ChunkedUploader) Progress() Progress { return u.tracker.snapshot() }

func (u *ChunkedUploader) Pause() {
	u.gate.Pause()
	u.tracker.setState(StatePaused)
}

func (u *ChunkedUploader) Resume() {
	u.gate.Resume()
	u.tracker.resume()
}

// Abort cooperatively stops the transfer and drops the persisted session.
// An in-flight chunk is cancelled, its eventual outcome is ignored.
func (u *ChunkedUploader) Abort() error {
	u.aborted.Store(true)
	u.mu.Lock()
	if u.cancel != nil {
		u.cancel()
	}
	u.mu.Unlock()
	u.gate.Resume()
	u.tracker.setState(StateAborted)
	return u.store.Delete(context.Background(), u.file.ID())
}

// Start runs the transfer to completion. A persisted session for the same
// file and endpoint skips chunks already confirmed, a session pointing at a
// different endpoint is ignored and replaced.
func (u *ChunkedUploader) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	u.mu.Lock()
	u.cancel = cancel
	u.mu.Unlock()

	sess, err := u.loadOrCreateSession(runCtx)
	if err != nil {
		return err
	}

	if !u.gate.Paused() {
		u.tracker.setState(StateUploading)
	}
	u.tracker.setUploaded(sess.CompletedBytes())

	totalChunks := sess.TotalChunks()
	for i := 0; i < totalChunks; i++ {
		if sess.CompletedChunks[i] {
			continue
		}

		if err := u.gate.Wait(runCtx); err != nil {
			return u.interrupted(err)
		}
		if u.aborted.Load() {
			return ErrAborted
		}

		if err := u.uploadChunkWithRetry(runCtx, sess, i); err != nil {
			if u.aborted.Load() {
				return ErrAborted
			}
			u.tracker.fail(err)
			return err
		}

		sess.CompletedChunks[i] = true
		if err := u.store.Put(runCtx, sess); err != nil {
			if u.aborted.Load() {
				return ErrAborted
			}
			u.tracker.fail(err)
			return fmt.Errorf("failed to persist upload session: %w", err)
		}
		// An abort can land between the chunk's success and the persist
		// above; re-delete so the abort's cleanup is final.
		if u.aborted.Load() {
			u.store.Delete(context.Background(), sess.FileID)
			return ErrAborted
		}
		u.tracker.setUploaded(sess.CompletedBytes())
		if u.cfg.OnChunk != nil {
			u.cfg.OnChunk(i, sess.chunkLength(i))
		}
	}

	if err := u.store.Delete(runCtx, sess.FileID); err != nil {
		return fmt.Errorf("upload finished but session cleanup failed: %w", err)
	}
	u.tracker.setState(StateCompleted)
	return nil
}

func (u *ChunkedUploader) interrupted(err error) error {
	if u.aborted.Load() {
		return ErrAborted
	}
	return err
}

func (u *ChunkedUploader) loadOrCreateSession(ctx context.Context) (*Session, error) {
	fileID := u.file.ID()

	sess, err := u.store.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	// A stored session is only trusted when its endpoint matches exactly,
	// anything else is treated as a fresh upload.
	if sess == nil || sess.Endpoint != u.endpoint || sess.ChunkSize != u.cfg.ChunkSize {
		sess = &Session{
			FileID:          fileID,
			Endpoint:        u.endpoint,
			AccessKey:       u.access,
			FileName:        u.file.Name,
			FileSize:        u.file.Size,
			ChunkSize:       u.cfg.ChunkSize,
			CompletedChunks: map[int]bool{},
			CreatedAt:       time.Now(),
		}
	}
	if sess.CompletedChunks == nil {
		sess.CompletedChunks = map[int]bool{}
	}
	if err := u.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// uploadChunkWithRetry makes up to MaxRetries attempts with 2^n backoff.
// Partial progress is already persisted, so the caller can surface the error
// and a later run resumes.
func (u *ChunkedUploader) uploadChunkWithRetry(ctx context.Context, sess *Session, index int) error {
	var lastErr error

	for attempt := 0; attempt < u.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := u.cfg.BackoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return u.interrupted(ctx.Err())
			}
			// Honor a pause issued during the backoff wait.
			if err := u.gate.Wait(ctx); err != nil {
				return u.interrupted(err)
			}
		}

		lastErr = u.uploadChunk(ctx, sess, index)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return u.interrupted(ctx.Err())
		}
	}

	return fmt.Errorf("chunk %d/%d failed after %d attempts: %w",
		index+1, sess.TotalChunks(), u.cfg.MaxRetries, lastErr)
}

func (u *ChunkedUploader) uploadChunk(ctx context.Context, sess *Session, index int) error {
	offset := int64(index) * sess.ChunkSize
	length := sess.chunkLength(index)

	reqCtx, cancel := context.WithTimeout(ctx, u.cfg.ChunkTimeout)
	defer cancel()

	body := io.NewSectionReader(u.file.Content, offset, length)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPatch, u.endpoint, body)
	if err != nil {
		return err
	}
	req.ContentLength = length
	req.Header.Set("AccessKey", u.access)
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chunk upload rejected with status %d", resp.StatusCode)
	}
	return nil
}
