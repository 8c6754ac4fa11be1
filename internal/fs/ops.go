package fs

import (
	"context"
	"os"
)

// wraps os.Rename and os.Symlink with retry logic. Rename is what makes
// the latest-pointer swap atomic, so both sides get the resilient path.

func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}

func symlinkWithRetry(ctx context.Context, target, link string) error {
	return retry(ctx, "symlink", func() error {
		return os.Symlink(target, link)
	})
}
