package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileIDIsContentDerived(t *testing.T) {
	mod := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	a := FileID("intro.mp4", 1024, mod)
	b := FileID("intro.mp4", 1024, mod)
	assert.Equal(t, a, b, "identical name+size+modTime must share an identifier")

	assert.NotEqual(t, a, FileID("intro2.mp4", 1024, mod))
	assert.NotEqual(t, a, FileID("intro.mp4", 1025, mod))
	assert.NotEqual(t, a, FileID("intro.mp4", 1024, mod.Add(time.Millisecond)))
}

func TestSessionChunkAccounting(t *testing.T) {
	sess := &Session{
		FileSize:  250,
		ChunkSize: 100,
		CompletedChunks: map[int]bool{
			0: true,
			2: true, // final chunk is short
		},
	}

	assert.Equal(t, 3, sess.TotalChunks())
	assert.Equal(t, int64(150), sess.CompletedBytes())
}

func TestSessionTotalChunksExactMultiple(t *testing.T) {
	sess := &Session{FileSize: 200, ChunkSize: 100}
	assert.Equal(t, 2, sess.TotalChunks())
}
