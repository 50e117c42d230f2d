package upload

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putRecorder struct {
	mu     sync.Mutex
	bodies [][]byte
	keys   []string
}

func (r *putRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, body)
		r.keys = append(r.keys, req.Header.Get("AccessKey"))
		r.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}
}

func (r *putRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func TestStreamUploadSendsWholeFileOnce(t *testing.T) {
	rec := &putRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("s"), 300)
	file := testFile(content)
	store := newTestStore(t)

	u := NewStreamUploader(store, srv.URL, "key-456", file, StreamConfig{})
	require.NoError(t, u.Start(context.Background()))

	rec.mu.Lock()
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, content, rec.bodies[0])
	assert.Equal(t, "key-456", rec.keys[0])
	rec.mu.Unlock()

	// Completion is recorded transiently, then cleaned up.
	sess, err := store.Get(context.Background(), file.ID())
	require.NoError(t, err)
	assert.Nil(t, sess)

	p := u.Progress()
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, int64(300), p.BytesUploaded)
}

func TestStreamUploadShortCircuitsCompletedSession(t *testing.T) {
	rec := &putRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("s"), 300)
	file := testFile(content)
	store := newTestStore(t)

	require.NoError(t, store.Put(context.Background(), &Session{
		FileID:    file.ID(),
		Endpoint:  srv.URL,
		FileSize:  file.Size,
		Completed: true,
		CreatedAt: time.Now(),
	}))

	u := NewStreamUploader(store, srv.URL, "key-456", file, StreamConfig{})
	require.NoError(t, u.Start(context.Background()))

	assert.Equal(t, 0, rec.count(), "a completed session means no duplicate transfer")
	assert.Equal(t, StateCompleted, u.Progress().State)
}

func TestStreamUploadPauseRestartsFromZero(t *testing.T) {
	var mu sync.Mutex
	received := make([]int, 0, 2)
	firstStarted := make(chan struct{})
	var once sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		once.Do(func() { close(firstStarted) })
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		received = append(received, len(body))
		mu.Unlock()
		if len(body) == 0 {
			// the aborted first attempt
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	content := bytes.Repeat([]byte("r"), 5<<10)
	file := testFile(content)
	store := newTestStore(t)

	u := NewStreamUploader(store, srv.URL, "key-456", file, StreamConfig{})

	done := make(chan error, 1)
	go func() { done <- u.Start(context.Background()) }()

	<-firstStarted
	u.Pause()
	time.Sleep(20 * time.Millisecond)
	u.Resume()

	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	// The final attempt carries the full body: no partial resume in this
	// mode, a pause always restarts from byte 0.
	require.NotEmpty(t, received)
	assert.Equal(t, len(content), received[len(received)-1])
}

func TestStreamResumeRestoresUploadingState(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		once.Do(func() { close(started) })
		io.Copy(io.Discard, req.Body)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	content := bytes.Repeat([]byte("u"), 5<<10)
	file := testFile(content)
	store := newTestStore(t)

	u := NewStreamUploader(store, srv.URL, "key-456", file, StreamConfig{})

	done := make(chan error, 1)
	go func() { done <- u.Start(context.Background()) }()

	<-started
	u.Pause()
	assert.Equal(t, StatePaused, u.Progress().State)

	u.Resume()
	assert.Equal(t, StateUploading, u.Progress().State,
		"a resumed transfer must report uploading, not paused")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCompleted, u.Progress().State)
}

func TestStreamUploadRejectedStatusSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.Copy(io.Discard, req.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	file := testFile(bytes.Repeat([]byte("e"), 10))
	store := newTestStore(t)

	u := NewStreamUploader(store, srv.URL, "bad-key", file, StreamConfig{})
	err := u.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, StateFailed, u.Progress().State)
}
