package lock

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	m := NewManager(t.TempDir())

	lk, err := m.Acquire("/var/www")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lk.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// re-acquire after release must succeed
	lk2, err := m.Acquire("/var/www")
	if err != nil {
		t.Fatalf("re-Acquire after release: %v", err)
	}
	lk2.Release()
}

func TestLockPath(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	lk, err := m.Acquire("/var/www")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lk.Release()

	want := filepath.Join(dir, "var_www.lock")
	if lk.Path() != want {
		t.Fatalf("Path = %q, want %q", lk.Path(), want)
	}
}

func TestMutualExclusion(t *testing.T) {
	m := NewManager(t.TempDir())

	lk, err := m.Acquire("/var/www")
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer lk.Release()

	// second acquire for the same key must fail immediately, not wait
	start := time.Now()
	_, err = m.Acquire("/var/www")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Acquire err = %v, want ErrAlreadyRunning", err)
	}
	if elapsed > time.Second {
		t.Fatalf("second Acquire blocked for %v, want immediate failure", elapsed)
	}
}

func TestIndependentPaths(t *testing.T) {
	m := NewManager(t.TempDir())

	lk1, err := m.Acquire("/var/www")
	if err != nil {
		t.Fatalf("Acquire /var/www: %v", err)
	}
	defer lk1.Release()

	// a different source path uses a different lock file
	lk2, err := m.Acquire("/home/user")
	if err != nil {
		t.Fatalf("Acquire /home/user while /var/www held: %v", err)
	}
	defer lk2.Release()
}
