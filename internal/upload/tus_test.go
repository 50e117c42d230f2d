package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tusServer is a minimal in-memory protocol endpoint: POST creates the
// upload, HEAD reports the stored offset, PATCH appends at the offset.
type tusServer struct {
	mu      sync.Mutex
	base    string
	data    []byte
	length  int64
	creates int
	// failAfter rejects PATCHes once this many bytes are stored; -1 accepts
	// everything.
	failAfter int64
}

func (s *tusServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Tus-Resumable", "1.0.0")

		switch r.Method {
		case http.MethodPost:
			s.creates++
			s.length, _ = strconv.ParseInt(r.Header.Get("Upload-Length"), 10, 64)
			w.Header().Set("Location", s.base+"/files/1")
			w.WriteHeader(http.StatusCreated)
		case http.MethodHead:
			w.Header().Set("Upload-Offset", strconv.Itoa(len(s.data)))
			w.Header().Set("Upload-Length", strconv.FormatInt(s.length, 10))
			w.WriteHeader(http.StatusOK)
		case http.MethodPatch:
			if s.failAfter >= 0 && int64(len(s.data)) >= s.failAfter {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			offset, _ := strconv.ParseInt(r.Header.Get("Upload-Offset"), 10, 64)
			if offset != int64(len(s.data)) {
				w.WriteHeader(http.StatusConflict)
				return
			}
			body, _ := io.ReadAll(r.Body)
			s.data = append(s.data, body...)
			w.Header().Set("Upload-Offset", strconv.Itoa(len(s.data)))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func (s *tusServer) stored() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

func (s *tusServer) created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *tusServer) acceptAll() {
	s.mu.Lock()
	s.failAfter = -1
	s.mu.Unlock()
}

func TestTusUploadResumesFromServerOffset(t *testing.T) {
	ts := &tusServer{failAfter: 4}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()
	ts.base = srv.URL

	content := []byte("0123456789")
	file := testFile(content)
	store := newTestStore(t)

	cfg := TusConfig{
		ChunkSize:   4,
		RetryDelays: []time.Duration{time.Millisecond, time.Millisecond},
	}

	// First run lands one chunk, then the endpoint starts failing until the
	// retry schedule is exhausted.
	u := NewTusUploader(store, srv.URL, "key-123", file, cfg)
	err := u.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, u.Progress().State)

	assert.Equal(t, content[:4], ts.stored())
	sess, getErr := store.Get(context.Background(), file.ID())
	require.NoError(t, getErr)
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.UploadURL, "failed run keeps the upload URL for resumption")

	// A fresh uploader, as after a process restart, continues from the
	// server-side offset instead of starting over.
	ts.acceptAll()
	u2 := NewTusUploader(store, srv.URL, "key-123", file, cfg)
	require.NoError(t, u2.Start(context.Background()))

	assert.Equal(t, content, ts.stored())
	assert.Equal(t, 1, ts.created(), "resume must reuse the original upload, not create a second")

	sess, getErr = store.Get(context.Background(), file.ID())
	require.NoError(t, getErr)
	assert.Nil(t, sess, "completed upload removes the session")

	p := u2.Progress()
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, file.Size, p.BytesUploaded)
}

func TestTusResumeRestoresUploadingState(t *testing.T) {
	file := testFile([]byte("abc"))
	u := NewTusUploader(newTestStore(t), "https://cdn.example.com/tusupload", "k", file, TusConfig{})

	u.tracker.setState(StateUploading)
	u.Pause()
	assert.Equal(t, StatePaused, u.Progress().State)

	u.Resume()
	assert.Equal(t, StateUploading, u.Progress().State)
}

func TestTusURLStorePersistsUploadURL(t *testing.T) {
	store := newTestStore(t)
	file := File{Name: "a.mp4", Size: 100, ModTime: time.Now()}

	s := &tusURLStore{
		ctx:      context.Background(),
		store:    store,
		endpoint: "https://cdn.example.com/tusupload",
		file:     file,
	}

	_, ok := s.Get(file.ID())
	assert.False(t, ok)

	s.Set(file.ID(), "https://cdn.example.com/tusupload/xyz")

	url, ok := s.Get(file.ID())
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/tusupload/xyz", url)

	// The session record carries the URL so a process restart resumes.
	sess, err := store.Get(context.Background(), file.ID())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "https://cdn.example.com/tusupload/xyz", sess.UploadURL)

	s.Delete(file.ID())
	_, ok = s.Get(file.ID())
	assert.False(t, ok)
}

func TestTusURLStoreIgnoresOtherEndpointSession(t *testing.T) {
	store := newTestStore(t)
	file := File{Name: "a.mp4", Size: 100, ModTime: time.Now()}

	require.NoError(t, store.Put(context.Background(), &Session{
		FileID:    file.ID(),
		Endpoint:  "https://other.example.com/tusupload",
		UploadURL: "https://other.example.com/tusupload/abc",
		CreatedAt: time.Now(),
	}))

	s := &tusURLStore{
		ctx:      context.Background(),
		store:    store,
		endpoint: "https://cdn.example.com/tusupload",
		file:     file,
	}

	_, ok := s.Get(file.ID())
	assert.False(t, ok, "a URL issued by a different endpoint must not be offered for resume")
}
