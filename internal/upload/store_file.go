package upload

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const sessionFileName = "video-upload-sessions.json"

// FileSessionStore keeps every session in a single namespaced JSON blob on
// disk, read and rewritten wholesale on each mutation. Access is serialized
// by a mutex, there is no cross-file contention because records are keyed by
// file identity.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

func NewFileSessionStore(dir string) (*FileSessionStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileSessionStore{path: filepath.Join(dir, sessionFileName)}, nil
}

func (s *FileSessionStore) load() (map[string]*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*Session{}, nil
	}
	if err != nil {
		return nil, err
	}

	sessions := map[string]*Session{}
	if len(data) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		// A corrupt blob only costs resume state, start fresh.
		return map[string]*Session{}, nil
	}
	return sessions, nil
}

func (s *FileSessionStore) save(sessions map[string]*Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileSessionStore) Get(ctx context.Context, fileID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	return sessions[fileID], nil
}

func (s *FileSessionStore) Put(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	sessions[session.FileID] = session
	return s.save(sessions)
}

func (s *FileSessionStore) Delete(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[fileID]; !ok {
		return nil
	}
	delete(sessions, fileID)
	return s.save(sessions)
}

func (s *FileSessionStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, sess := range sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(sessions, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(sessions)
}
