package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/raoulx24/rsync-snapper/internal/config"
)

// Rsync shells out to rsync for the actual delta transfer and
// hard-link deduplication (--link-dest against the prior snapshot).
type Rsync struct {
	path      string
	extraArgs []string
	timeout   time.Duration
}

func NewRsync(cfg config.TransferConfig) (*Rsync, error) {
	path, err := exec.LookPath(cfg.RsyncPath)
	if err != nil {
		return nil, fmt.Errorf("locating rsync: %w", err)
	}
	return &Rsync{
		path:      path,
		extraArgs: cfg.ExtraArgs,
		timeout:   time.Duration(cfg.Timeout),
	}, nil
}

func (r *Rsync) Run(ctx context.Context, req Request, logw io.Writer) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	filter := NewProgressFilter(logw)
	defer filter.Flush()

	var summary, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.path, r.args(req)...)
	cmd.Stdout = io.MultiWriter(filter, &summary)
	cmd.Stderr = io.MultiWriter(filter, &stderr)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{Output: stderr.Bytes()}, ctx.Err()
		}
		return Result{Output: stderr.Bytes()}, &Error{Err: err, Stderr: stderr.Bytes()}
	}

	return Result{
		BytesTransferred: parseSentBytes(summary.Bytes()),
		Output:           stderr.Bytes(),
	}, nil
}

func (r *Rsync) args(req Request) []string {
	// -v and --stats make rsync print per-file lines and the
	// "sent N bytes" trailer; without a verbosity flag the run log
	// would capture nothing and the byte count could not be parsed.
	// --progress redraws are stripped down to final lines by the filter.
	args := []string{"-azAX", "--delete", "--numeric-ids", "-v", "--progress", "--stats"}
	args = append(args, r.extraArgs...)

	if req.ExcludeFile != "" {
		args = append(args, "--exclude-from="+req.ExcludeFile)
	}
	if req.BaseSnapshot != "" {
		args = append(args, "--link-dest="+req.BaseSnapshot)
	}

	// trailing slash: copy the directory's contents, not the directory
	args = append(args, strings.TrimSuffix(req.SourcePath, "/")+"/", req.Destination)
	return args
}

// parseSentBytes extracts the byte count from rsync's closing
// "sent N bytes  received M bytes ..." summary line. Best effort;
// returns 0 when the line is absent.
func parseSentBytes(out []byte) int64 {
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "sent ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		raw := strings.ReplaceAll(fields[1], ",", "")
		n, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}
