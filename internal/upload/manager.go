package upload

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrUploadNotFound   = errors.New("no active upload for file")
	ErrUploadInProgress = errors.New("upload already in progress for file")
)

// Manager tracks in-flight uploads by file identity. Distinct files are
// independent and may run concurrently, the session store is the only shared
// state and it is keyed per file.
type Manager struct {
	store SessionStore

	mu     sync.Mutex
	active map[string]*managedUpload
}

type managedUpload struct {
	uploader Uploader
	cancel   context.CancelFunc

	done chan struct{}
	err  error
	last Progress
}

func NewManager(store SessionStore) *Manager {
	return &Manager{
		store:  store,
		active: map[string]*managedUpload{},
	}
}

func (m *Manager) Store() SessionStore { return m.store }

// Launch starts the uploader in the background. One transfer per file at a
// time.
func (m *Manager) Launch(fileID string, up Uploader) error {
	m.mu.Lock()
	if existing, ok := m.active[fileID]; ok {
		select {
		case <-existing.done:
			// finished, replace below
		default:
			m.mu.Unlock()
			return ErrUploadInProgress
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	entry := &managedUpload{
		uploader: up,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	m.active[fileID] = entry
	m.mu.Unlock()

	go func() {
		err := up.Start(ctx)

		m.mu.Lock()
		entry.err = err
		entry.last = up.Progress()
		close(entry.done)
		m.mu.Unlock()
	}()

	return nil
}

func (m *Manager) get(fileID string) (*managedUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.active[fileID]
	if !ok {
		return nil, ErrUploadNotFound
	}
	return entry, nil
}

func (m *Manager) Pause(fileID string) error {
	entry, err := m.get(fileID)
	if err != nil {
		return err
	}
	entry.uploader.Pause()
	return nil
}

func (m *Manager) Resume(fileID string) error {
	entry, err := m.get(fileID)
	if err != nil {
		return err
	}
	entry.uploader.Resume()
	return nil
}

func (m *Manager) Abort(fileID string) error {
	entry, err := m.get(fileID)
	if err != nil {
		return err
	}
	if err := entry.uploader.Abort(); err != nil {
		return err
	}
	entry.cancel()
	return nil
}

// Progress reports the current snapshot, which outlives completion until the
// entry is replaced by a new launch.
func (m *Manager) Progress(fileID string) (Progress, error) {
	entry, err := m.get(fileID)
	if err != nil {
		return Progress{}, err
	}

	select {
	case <-entry.done:
		p := entry.last
		if entry.err != nil && p.Error == "" {
			p.Error = entry.err.Error()
		}
		return p, nil
	default:
		return entry.uploader.Progress(), nil
	}
}

// Wait blocks until the given upload finishes and returns its terminal
// error.
func (m *Manager) Wait(fileID string) error {
	entry, err := m.get(fileID)
	if err != nil {
		return err
	}
	<-entry.done
	return entry.err
}

// CleanupSessions drops persisted sessions older than maxAge to bound
// storage growth from abandoned uploads.
func (m *Manager) CleanupSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	return m.store.Cleanup(ctx, maxAge)
}
