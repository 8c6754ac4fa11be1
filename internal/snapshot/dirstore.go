package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raoulx24/rsync-snapper/internal/fs"
)

// DirStore manages snapshots under a local (or locally mounted)
// destination root. The latest pointer is a relative symlink, replaced
// atomically via tmp-then-rename so a crash never leaves it dangling.
type DirStore struct {
	fs   fs.FS
	root string // <destRoot>/<sanitized-source-name>
}

func NewDirStore(filesystem fs.FS, destRoot, sourcePath string) *DirStore {
	return &DirStore{
		fs:   filesystem,
		root: filepath.Join(destRoot, SanitizeName(sourcePath)),
	}
}

func (s *DirStore) Dest(date string) string {
	return filepath.Join(s.root, date)
}

func (s *DirStore) BasePath(date string) string {
	return filepath.Join(s.root, date)
}

func (s *DirStore) EnsureRoot(ctx context.Context) error {
	return s.fs.MkdirAll(s.root)
}

func (s *DirStore) Exists(ctx context.Context, date string) (bool, error) {
	info, err := s.fs.Stat(filepath.Join(s.root, date))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir, nil
}

func (s *DirStore) Remove(ctx context.Context, date string) error {
	return s.fs.RemoveAll(filepath.Join(s.root, date))
}

func (s *DirStore) Latest(ctx context.Context) (string, error) {
	target, err := s.fs.Readlink(filepath.Join(s.root, LatestName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading latest pointer: %w", err)
	}
	return filepath.Base(target), nil
}

func (s *DirStore) SetLatest(ctx context.Context, date string) error {
	tmp := filepath.Join(s.root, "."+LatestName+".tmp")
	_ = s.fs.RemoveAll(tmp)

	// relative target keeps the link valid if the root moves
	if err := s.fs.Symlink(ctx, date, tmp); err != nil {
		return fmt.Errorf("creating latest pointer: %w", err)
	}
	if err := s.fs.Rename(ctx, tmp, filepath.Join(s.root, LatestName)); err != nil {
		_ = s.fs.RemoveAll(tmp)
		return fmt.Errorf("swapping latest pointer: %w", err)
	}
	return nil
}
