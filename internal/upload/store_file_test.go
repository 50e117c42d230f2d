package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileSessionStore {
	t.Helper()
	store, err := NewFileSessionStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFileSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sess, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, sess, "absent session reads as nil")

	put := &Session{
		FileID:          "abc",
		Endpoint:        "https://cdn.example.com/videos/1",
		FileName:        "intro.mp4",
		FileSize:        300,
		ChunkSize:       100,
		CompletedChunks: map[int]bool{0: true, 1: true},
		CreatedAt:       time.Now(),
	}
	require.NoError(t, store.Put(ctx, put))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, put.Endpoint, got.Endpoint)
	assert.Equal(t, map[int]bool{0: true, 1: true}, got.CompletedChunks)

	require.NoError(t, store.Delete(ctx, "abc"))
	got, err = store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileSessionStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileSessionStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &Session{FileID: "abc", FileName: "a.mp4", CreatedAt: time.Now()}))

	reopened, err := NewFileSessionStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.mp4", got.FileName)
}

func TestFileSessionStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, &Session{FileID: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Put(ctx, &Session{FileID: "oldDone", Completed: true, CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Put(ctx, &Session{FileID: "fresh", CreatedAt: time.Now()}))

	removed, err := store.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	// Age is the only criterion, completion state does not matter.
	assert.Equal(t, 2, removed)

	got, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = store.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)
}
