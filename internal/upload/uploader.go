package upload

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrAborted is returned by Start when the transfer was aborted.
	ErrAborted = errors.New("upload aborted")
)

type State string

const (
	StatePending   State = "pending"
	StateUploading State = "uploading"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
	StateFailed    State = "failed"
)

// Progress is a point-in-time snapshot of a transfer.
type Progress struct {
	FileID        string  `json:"fileId"`
	FileName      string  `json:"fileName"`
	BytesUploaded int64   `json:"bytesUploaded"`
	TotalBytes    int64   `json:"totalBytes"`
	Percentage    float64 `json:"percentage"`
	// Speed is a trailing bytes/sec rate, sampled at >= 1 second intervals.
	Speed float64 `json:"speed"`
	State State   `json:"state"`
	Error string  `json:"error,omitempty"`
}

// Uploader is the common strategy surface. Start blocks until the transfer
// completes, fails, or is aborted. Callers pick one strategy per file, the
// strategies do not compose.
type Uploader interface {
	Start(ctx context.Context) error
	Pause()
	Resume()
	Abort() error
	Progress() Progress
}

// tracker maintains the shared progress/speed bookkeeping for all
// strategies.
type tracker struct {
	mu sync.Mutex

	fileID   string
	fileName string
	total    int64

	uploaded int64
	state    State
	lastErr  error

	sampleAt    time.Time
	sampleBytes int64
	speed       float64
}

func newTracker(fileID, fileName string, total int64) *tracker {
	return &tracker{
		fileID:   fileID,
		fileName: fileName,
		total:    total,
		state:    StatePending,
	}
}

func (t *tracker) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// resume flips a paused transfer back to uploading. Terminal states stay
// put, resuming a finished upload must not revive it.
func (t *tracker) resume() {
	t.mu.Lock()
	if t.state == StatePaused {
		t.state = StateUploading
	}
	t.mu.Unlock()
}

func (t *tracker) fail(err error) {
	t.mu.Lock()
	t.state = StateFailed
	t.lastErr = err
	t.mu.Unlock()
}

// setUploaded records confirmed bytes and refreshes the trailing speed
// sample once at least a second has passed.
func (t *tracker) setUploaded(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.uploaded = n

	now := time.Now()
	if t.sampleAt.IsZero() {
		t.sampleAt = now
		t.sampleBytes = n
		return
	}
	elapsed := now.Sub(t.sampleAt)
	if elapsed >= time.Second {
		t.speed = float64(n-t.sampleBytes) / elapsed.Seconds()
		t.sampleAt = now
		t.sampleBytes = n
	}
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := Progress{
		FileID:        t.fileID,
		FileName:      t.fileName,
		BytesUploaded: t.uploaded,
		TotalBytes:    t.total,
		Speed:         t.speed,
		State:         t.state,
	}
	if t.total > 0 {
		p.Percentage = float64(t.uploaded) / float64(t.total) * 100
	}
	if t.lastErr != nil {
		p.Error = t.lastErr.Error()
	}
	return p
}

// gate is a channel-based pause point. Wait blocks while paused instead of
// polling.
type gate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func newGate() *gate {
	return &gate{}
}

func (g *gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.resume = make(chan struct{})
	}
}

func (g *gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.resume)
	}
}

func (g *gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait returns once the gate is open or the context ends.
func (g *gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	paused := g.paused
	ch := g.resume
	g.mu.Unlock()

	if !paused {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
