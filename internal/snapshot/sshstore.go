package snapshot

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"
)

// CmdRunner executes a command and returns its combined output.
// Injected so SSHStore can be tested without a live remote.
type CmdRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SSHStore manages snapshots on a remote host over ssh. The latest
// pointer is a remote symlink replaced with ln -sfn, mirroring what the
// transfer tool's hard-link base expects on the receiving side.
type SSHStore struct {
	host string
	root string // <destRoot>/<sanitized-source-name>, remote-side
	run  CmdRunner
}

func NewSSHStore(host, destRoot, sourcePath string, run CmdRunner) *SSHStore {
	if run == nil {
		run = execRunner
	}
	return &SSHStore{
		host: host,
		root: path.Join(destRoot, SanitizeName(sourcePath)),
		run:  run,
	}
}

func (s *SSHStore) Dest(date string) string {
	return s.host + ":" + path.Join(s.root, date)
}

func (s *SSHStore) BasePath(date string) string {
	return path.Join(s.root, date)
}

func (s *SSHStore) EnsureRoot(ctx context.Context) error {
	_, err := s.remote(ctx, "mkdir -p "+s.root)
	return err
}

func (s *SSHStore) Exists(ctx context.Context, date string) (bool, error) {
	// echo keeps the exit status zero so a missing directory is not an error
	out, err := s.remote(ctx, fmt.Sprintf("test -d %s && echo yes || echo no", path.Join(s.root, date)))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) == "yes", nil
}

func (s *SSHStore) Remove(ctx context.Context, date string) error {
	_, err := s.remote(ctx, "rm -rf -- "+path.Join(s.root, date))
	return err
}

func (s *SSHStore) Latest(ctx context.Context) (string, error) {
	out, err := s.remote(ctx, fmt.Sprintf("readlink %s || true", path.Join(s.root, LatestName)))
	if err != nil {
		return "", err
	}
	target := strings.TrimSpace(string(out))
	if target == "" {
		return "", nil
	}
	return path.Base(target), nil
}

func (s *SSHStore) SetLatest(ctx context.Context, date string) error {
	_, err := s.remote(ctx, fmt.Sprintf("ln -sfn %s %s", date, path.Join(s.root, LatestName)))
	return err
}

func (s *SSHStore) remote(ctx context.Context, cmd string) ([]byte, error) {
	out, err := s.run(ctx, "ssh", s.host, cmd)
	if err != nil {
		return out, fmt.Errorf("ssh %s %q: %w", s.host, cmd, err)
	}
	return out, nil
}
