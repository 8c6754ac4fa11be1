// Package snapshot names and manages daily backup snapshots at the
// destination: one directory per (source, day) plus a "last" pointer
// that the next incremental transfer uses as its hard-link base.
package snapshot

import (
	"context"
	"path/filepath"
	"strings"
)

// DateLayout is the ISO-8601 day that identifies a snapshot.
const DateLayout = "2006-01-02"

// LatestName is the pointer entry kept alongside the snapshot directories.
const LatestName = "last"

// Store is the destination-side view of one source's snapshot set.
type Store interface {
	// Dest is the transfer destination argument for a snapshot date.
	Dest(date string) string
	// BasePath is the destination-side absolute path of a snapshot,
	// suitable for the transfer tool's link-dest option.
	BasePath(date string) string
	EnsureRoot(ctx context.Context) error
	Exists(ctx context.Context, date string) (bool, error)
	Remove(ctx context.Context, date string) error
	// Latest returns the pointed-to snapshot date, or "" when unset.
	Latest(ctx context.Context) (string, error)
	SetLatest(ctx context.Context, date string) error
}

// SanitizeName maps a source path to a directory-safe name under the
// destination root. Distinct absolute paths keep distinct names as long
// as they differ in more than separators.
func SanitizeName(sourcePath string) string {
	p := filepath.Clean(sourcePath)
	p = strings.Trim(p, string(filepath.Separator))
	if p == "" || p == "." {
		return "root"
	}
	repl := strings.NewReplacer(
		string(filepath.Separator), "_",
		" ", "_",
		":", "_",
	)
	return repl.Replace(p)
}
