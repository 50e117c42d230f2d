package upload

import (
	"bytes"
	"context"
	"errors"
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

type recordedChunk struct {
	Offset int64
	Length int
	Body   []byte
}

// chunkRecorder is a fake CDN endpoint that records every PATCH it receives.
type chunkRecorder struct {
	mu     sync.Mutex
	chunks []recordedChunk
	// failOffsets returns non-2xx for the given offsets every time.
	failOffsets map[int64]bool
}

func (r *chunkRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		offset, _ := strconv.ParseInt(req.Header.Get("Upload-Offset"), 10, 64)
		body, _ := io.ReadAll(req.Body)

		r.mu.Lock()
		r.chunks = append(r.chunks, recordedChunk{Offset: offset, Length: len(body), Body: body})
		fail := r.failOffsets[offset]
		r.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (r *chunkRecorder) recorded() []recordedChunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedChunk, len(r.chunks))
	copy(out, r.chunks)
	return out
}

func testFile(content []byte) File {
	return File{
		Name:    "sales-training.mp4",
		Size:    int64(len(content)),
		ModTime: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Content: bytes.NewReader(content),
	}
}

func testChunkCfg() ChunkedConfig {
	return ChunkedConfig{
		ChunkSize:   100,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
	}
}

func TestChunkedUploadSendsSequentialOffsets(t *testing.T) {
	rec := &chunkRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("x"), 250)
	file := testFile(content)
	store := newTestStore(t)

	u := NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())
	require.NoError(t, u.Start(context.Background()))

	chunks := rec.recorded()
	require.Len(t, chunks, 3)
	assert.Equal(t, int64(0), chunks[0].Offset)
	assert.Equal(t, int64(100), chunks[1].Offset)
	assert.Equal(t, int64(200), chunks[2].Offset)
	assert.Equal(t, 100, chunks[0].Length)
	assert.Equal(t, 100, chunks[1].Length)
	assert.Equal(t, 50, chunks[2].Length)
	assert.Equal(t, content[200:], chunks[2].Body)

	// Completion removes the persisted session.
	sess, err := store.Get(context.Background(), file.ID())
	require.NoError(t, err)
	assert.Nil(t, sess)

	p := u.Progress()
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, int64(250), p.BytesUploaded)
	assert.InDelta(t, 100.0, p.Percentage, 0.001)
}

func TestChunkedUploadResumesSkippingCompletedChunks(t *testing.T) {
	rec := &chunkRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("y"), 250)
	file := testFile(content)
	store := newTestStore(t)

	// Simulate a previous run that confirmed chunks 0 and 1.
	require.NoError(t, store.Put(context.Background(), &Session{
		FileID:          file.ID(),
		Endpoint:        srv.URL,
		FileName:        file.Name,
		FileSize:        file.Size,
		ChunkSize:       100,
		CompletedChunks: map[int]bool{0: true, 1: true},
		CreatedAt:       time.Now(),
	}))

	u := NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())
	require.NoError(t, u.Start(context.Background()))

	chunks := rec.recorded()
	require.Len(t, chunks, 1, "already-confirmed byte ranges must not be re-requested")
	assert.Equal(t, int64(200), chunks[0].Offset)
}

func TestChunkedUploadIgnoresSessionForDifferentEndpoint(t *testing.T) {
	rec := &chunkRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("z"), 250)
	file := testFile(content)
	store := newTestStore(t)

	require.NoError(t, store.Put(context.Background(), &Session{
		FileID:          file.ID(),
		Endpoint:        "https://other-cdn.example.com/videos/9",
		FileSize:        file.Size,
		ChunkSize:       100,
		CompletedChunks: map[int]bool{0: true, 1: true},
		CreatedAt:       time.Now(),
	}))

	u := NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())
	require.NoError(t, u.Start(context.Background()))

	// Endpoint mismatch means a fresh upload of every chunk.
	assert.Len(t, rec.recorded(), 3)
}

func TestChunkedRetryExhaustionKeepsEarlierProgress(t *testing.T) {
	rec := &chunkRecorder{failOffsets: map[int64]bool{100: true}}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("w"), 250)
	file := testFile(content)
	store := newTestStore(t)

	u := NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())
	err := u.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")

	attempts := 0
	for _, c := range rec.recorded() {
		if c.Offset == 100 {
			attempts++
		}
	}
	assert.Equal(t, 3, attempts, "failing chunk must be attempted exactly MaxRetries times")

	// The session survives with chunk 0 confirmed so a later run resumes.
	sess, getErr := store.Get(context.Background(), file.ID())
	require.NoError(t, getErr)
	require.NotNil(t, sess)
	assert.True(t, sess.CompletedChunks[0])
	assert.False(t, sess.CompletedChunks[1])

	assert.Equal(t, StateFailed, u.Progress().State)
}

func TestChunkedPauseHoldsBeforeNextChunk(t *testing.T) {
	rec := &chunkRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("p"), 250)
	file := testFile(content)
	store := newTestStore(t)

	u := NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())
	u.Pause()

	done := make(chan error, 1)
	go func() { done <- u.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.recorded(), "paused upload must not send chunks")
	assert.Equal(t, StatePaused, u.Progress().State)

	u.Resume()
	require.NoError(t, <-done)
	assert.Len(t, rec.recorded(), 3)
}

// abortRaceStore fires an abort right before a chunk confirmation is
// persisted, landing in the window between chunk success and the Put.
type abortRaceStore struct {
	SessionStore
	abort func()
	puts  int
}

func (s *abortRaceStore) Put(ctx context.Context, sess *Session) error {
	s.puts++
	// The first Put creates the session, the second confirms chunk 0.
	if s.puts == 2 {
		s.abort()
	}
	return s.SessionStore.Put(ctx, sess)
}

func TestChunkedAbortDuringChunkConfirmIsFinal(t *testing.T) {
	rec := &chunkRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	content := bytes.Repeat([]byte("b"), 250)
	file := testFile(content)
	inner := newTestStore(t)

	var u *ChunkedUploader
	store := &abortRaceStore{SessionStore: inner, abort: func() { u.Abort() }}
	u = NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())

	err := u.Start(context.Background())
	require.ErrorIs(t, err, ErrAborted)

	sess, getErr := inner.Get(context.Background(), file.ID())
	require.NoError(t, getErr)
	assert.Nil(t, sess, "session persisted after the abort must be removed again")
}

func TestChunkedAbortCancelsInFlightAndDeletesSession(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	content := bytes.Repeat([]byte("a"), 250)
	file := testFile(content)
	store := newTestStore(t)

	u := NewChunkedUploader(store, srv.URL, "key-123", file, testChunkCfg())

	done := make(chan error, 1)
	go func() { done <- u.Start(context.Background()) }()

	<-started
	require.NoError(t, u.Abort())

	err := <-done
	assert.True(t, errors.Is(err, ErrAborted))

	sess, getErr := store.Get(context.Background(), file.ID())
	require.NoError(t, getErr)
	assert.Nil(t, sess, "abort removes the persisted session")
}
