// Package transfer is the boundary to the external file-transfer tool.
// The orchestrator only consumes the Transfer interface; the rsync
// implementation lives behind it so the rest of the system can be tested
// with scripted fakes.
package transfer

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Request describes one incremental transfer.
type Request struct {
	SourcePath string
	// Destination is the tool's target argument (local path or host:path).
	Destination string
	// BaseSnapshot is the destination-side path of the prior snapshot,
	// used as the hard-link deduplication base. Empty on first run.
	BaseSnapshot string
	// ExcludeFile is an optional exclude-pattern file for this source.
	ExcludeFile string
}

type Result struct {
	BytesTransferred int64
	// Output holds the tool's error output, for diagnostics on failure.
	Output []byte
}

// Transfer runs one transfer, streaming progress to logw. A non-nil error
// means the tool failed and the snapshot must not be promoted.
type Transfer interface {
	Run(ctx context.Context, req Request, logw io.Writer) (Result, error)
}

// Error wraps a non-zero tool exit together with the tail of its stderr.
type Error struct {
	Err    error
	Stderr []byte
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(string(e.Stderr))
	if msg == "" {
		return fmt.Sprintf("transfer failed: %v", e.Err)
	}
	return fmt.Sprintf("transfer failed: %v: %s", e.Err, tail(msg, 3))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// tail returns the last n lines of s on a single line.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
