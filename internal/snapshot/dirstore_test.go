package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/raoulx24/rsync-snapper/internal/fs"
)

func newTestDirStore(t *testing.T) *DirStore {
	t.Helper()
	s := NewDirStore(fs.New(), t.TempDir(), "/var/www")
	if err := s.EnsureRoot(context.Background()); err != nil {
		t.Fatalf("EnsureRoot: %v", err)
	}
	return s
}

func TestDirStoreExistsAndRemove(t *testing.T) {
	s := newTestDirStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "2026-08-25")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("Exists = true for absent snapshot")
	}

	if err := os.MkdirAll(s.Dest("2026-08-25"), 0o755); err != nil {
		t.Fatalf("creating snapshot dir: %v", err)
	}

	ok, err = s.Exists(ctx, "2026-08-25")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatal("Exists = false for present snapshot")
	}

	if err := s.Remove(ctx, "2026-08-25"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, _ = s.Exists(ctx, "2026-08-25")
	if ok {
		t.Fatal("snapshot still exists after Remove")
	}
}

func TestDirStoreLatestPointer(t *testing.T) {
	s := newTestDirStore(t)
	ctx := context.Background()

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest on empty store: %v", err)
	}
	if latest != "" {
		t.Fatalf("Latest = %q on empty store, want empty", latest)
	}

	if err := s.SetLatest(ctx, "2026-08-25"); err != nil {
		t.Fatalf("SetLatest: %v", err)
	}
	latest, err = s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != "2026-08-25" {
		t.Fatalf("Latest = %q, want 2026-08-25", latest)
	}

	// replacing an existing pointer must work and stay a symlink
	if err := s.SetLatest(ctx, "2026-08-26"); err != nil {
		t.Fatalf("SetLatest replace: %v", err)
	}
	latest, _ = s.Latest(ctx)
	if latest != "2026-08-26" {
		t.Fatalf("Latest after replace = %q, want 2026-08-26", latest)
	}

	link := filepath.Join(s.root, LatestName)
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("pointer is not a symlink: %v", err)
	}
	if target != "2026-08-26" {
		t.Fatalf("pointer target = %q, want relative 2026-08-26", target)
	}
}
