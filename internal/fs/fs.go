// Package fs defines the filesystem abstraction used by the import worker.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Inode uint64
	IsDir bool
}

// ProgressFunc receives the number of bytes copied so far and the total.
type ProgressFunc func(done, total int64)

type FS interface {
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]FileInfo, error)
	CopyFile(ctx context.Context, src, dst string, progress ProgressFunc) error
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string) error
	RemoveAll(path string) error
}
