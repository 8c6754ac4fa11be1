// Package fs defines the filesystem abstraction used by rsync-snapper.
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
	IsDir bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	MkdirAll(path string) error
	RemoveAll(path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Symlink(ctx context.Context, target, link string) error
	Readlink(path string) (string, error)
}
