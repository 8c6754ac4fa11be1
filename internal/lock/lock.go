// Package lock provides per-source-path mutual exclusion for backup runs.
//
// Locks are OS-level advisory file locks, so the kernel releases them when
// the owning process dies for any reason. No explicit unlock is required
// for correctness; Release exists for tidy shutdown and tests.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/raoulx24/rsync-snapper/internal/snapshot"
)

// ErrAlreadyRunning is returned when another run holds the lock for the
// same source path. Callers fail fast; there is no blocking wait.
var ErrAlreadyRunning = errors.New("another run holds the lock for this source")

type Lock struct {
	fl *flock.Flock
}

// Path returns the lock file backing this lock.
func (l *Lock) Path() string {
	return l.fl.Path()
}

func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Manager creates locks under one lock directory, one file per source path.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Acquire takes the lock for pathKey without blocking. Independent source
// paths map to distinct lock files and may run concurrently.
func (m *Manager) Acquire(pathKey string) (*Lock, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	name := snapshot.SanitizeName(pathKey) + ".lock"
	fl := flock.New(filepath.Join(m.dir, name))

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock for %s: %w", pathKey, err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return &Lock{fl: fl}, nil
}
