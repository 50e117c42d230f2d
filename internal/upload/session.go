// Package upload implements the resumable transfer client used to push large
// video files to the remote CDN. Three interchangeable strategies are
// provided: chunked (client-tracked resume), streaming (single request) and
// tus (protocol-native resume). All persist their state through a
// SessionStore so an interrupted process can pick up where it left off.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// Session is the durable resume state for one local file going to one remote
// endpoint.
type Session struct {
	FileID    string `json:"fileId"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey,omitempty"`
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
	ChunkSize int64  `json:"chunkSize,omitempty"`

	// CompletedChunks is used by the chunked strategy.
	CompletedChunks map[int]bool `json:"completedChunks,omitempty"`
	// Completed is used by the streaming strategy.
	Completed bool `json:"completed,omitempty"`
	// UploadURL is the server-issued URL used by the tus strategy.
	UploadURL string `json:"uploadUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TotalChunks returns ceil(FileSize / ChunkSize).
func (s *Session) TotalChunks() int {
	if s.ChunkSize <= 0 {
		return 0
	}
	return int((s.FileSize + s.ChunkSize - 1) / s.ChunkSize)
}

// chunkLength returns the byte length of chunk i, the final chunk may be
// short.
func (s *Session) chunkLength(i int) int64 {
	offset := int64(i) * s.ChunkSize
	if offset+s.ChunkSize > s.FileSize {
		return s.FileSize - offset
	}
	return s.ChunkSize
}

// CompletedBytes sums the sizes of durably confirmed chunks.
func (s *Session) CompletedBytes() int64 {
	var n int64
	for i := range s.CompletedChunks {
		if s.CompletedChunks[i] {
			n += s.chunkLength(i)
		}
	}
	return n
}

// SessionStore is the durable keyed store for upload sessions. Get returns
// (nil, nil) when no session exists for the file.
type SessionStore interface {
	Get(ctx context.Context, fileID string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, fileID string) error
	// Cleanup removes sessions older than maxAge regardless of state and
	// returns how many were dropped.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

// File identifies a local file to be uploaded. Content must support
// concurrent-safe random reads.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
	Content io.ReaderAt
}

// ID derives a stable identifier from name, size and last-modified time, so
// the same file selected again resumes instead of restarting.
func (f File) ID() string {
	return FileID(f.Name, f.Size, f.ModTime)
}

func FileID(name string, size int64, modTime time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", name, size, modTime.UnixMilli())))
	return hex.EncodeToString(sum[:16])
}

// Open stats a file on disk and wraps it for uploading. The caller owns the
// returned closer.
func Open(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return File{}, nil, err
	}
	return File{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Content: f,
	}, f, nil
}
