// Package runlog writes the per-run text artifact: one append-only log
// file per (source path, run date), capturing transfer output and
// retention actions.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raoulx24/rsync-snapper/internal/snapshot"
)

type Writer struct {
	f *os.File
}

// Open creates or appends to the log artifact for one source and day.
// O_APPEND keeps concurrent per-path writers from corrupting each other
// even if two runs ever share a file.
func Open(dir, sourcePath string, day time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	name := snapshot.SanitizeName(sourcePath) + "-" + day.Format(snapshot.DateLayout) + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	return &Writer{f: f}, nil
}

// Printf appends one timestamped line.
func (w *Writer) Printf(format string, args ...any) {
	stamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w.f, "%s %s\n", stamp, fmt.Sprintf(format, args...))
}

// Write appends raw output, for streaming tool output through a filter.
func (w *Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *Writer) Path() string {
	return w.f.Name()
}

func (w *Writer) Close() error {
	return w.f.Close()
}
