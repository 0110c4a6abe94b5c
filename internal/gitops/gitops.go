// Package gitops wraps the git binary behind a uniform operation
// surface. Network operations (clone, pull, push) get a small bounded
// retry with exponential backoff for transient failures; everything
// else surfaces immediately.
package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/grovekit/grove/internal/debug"
	"github.com/grovekit/grove/internal/workspace"
)

// ErrVcs marks git failures (network, auth, dirty tree, not a repo).
var ErrVcs = errors.New("git operation failed")

// runFunc executes git with the given working directory and returns
// trimmed stdout. Swappable in tests.
type runFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Client shells out to git. The zero value is not usable; call New.
type Client struct {
	run        runFunc
	maxRetries uint64
	interval   time.Duration
}

// New returns a Client using the git binary on PATH.
func New() *Client {
	return &Client{
		run:        runGit,
		maxRetries: 2,
		interval:   500 * time.Millisecond,
	}
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return strings.TrimSpace(stdout.String()), fmt.Errorf("%w: git %s: %s", ErrVcs, args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// transientMarkers are stderr fragments that indicate a failure worth
// retrying (network flakes), as opposed to auth or local-state errors.
var transientMarkers = []string{
	"could not resolve host",
	"connection reset",
	"connection timed out",
	"operation timed out",
	"early eof",
	"the remote end hung up unexpectedly",
	"failed to connect",
	"temporarily unavailable",
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// withRetry runs fn with bounded exponential backoff, retrying only
// transient failures. The returned error notes the attempt count so a
// retried-then-failed operation is distinguishable from a one-shot
// failure.
func (c *Client) withRetry(ctx context.Context, name string, fn func() error) error {
	attempts := 0
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.interval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	err := backoff.Retry(func() error {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		if isTransient(err) {
			debug.Logf("%s attempt %d failed (transient): %v\n", name, attempts, err)
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil && attempts > 1 {
		return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
	}
	return err
}

// Clone clones url into dest and returns a workspace descriptor bound
// to it. If dest already exists the clone is skipped with a notice and
// the existing tree is described instead (so re-running a bulk clone
// is cheap).
func (c *Client) Clone(ctx context.Context, url, dest string) (*workspace.Workspace, error) {
	dest = workspace.NormalizePath(dest)

	if _, err := os.Stat(dest); err == nil {
		debug.Infof("%s already exists, skipping clone\n", dest)
		return c.Describe(ctx, dest)
	}

	err := c.withRetry(ctx, "clone "+url, func() error {
		_, err := c.run(ctx, "", "clone", url, dest)
		return err
	})
	if err != nil {
		return nil, err
	}

	w := workspace.New(dest)
	w.VCS.Kind = workspace.VCSGit
	w.VCS.SetRemote("origin", url)
	return w, nil
}

// CloneAll clones every recorded remote of a registered workspace:
// origin (or the first remote) is cloned, the rest are added as
// remotes afterward.
func (c *Client) CloneAll(ctx context.Context, w *workspace.Workspace) (string, error) {
	remote, ok := w.VCS.CloneRemote()
	if !ok {
		return "", fmt.Errorf("%w: %s has no recorded remotes to clone from", ErrVcs, w.ID)
	}
	if _, err := os.Stat(w.Path); err == nil {
		return w.Path + " already exists, skipped", nil
	}
	if _, err := c.Clone(ctx, remote.URL, w.Path); err != nil {
		return "", err
	}
	for _, r := range w.VCS.Remotes {
		if r.Name == remote.Name {
			continue
		}
		if err := c.AddRemote(ctx, w.Path, r.Name, r.URL); err != nil {
			return "", err
		}
	}
	return "cloned " + remote.URL, nil
}

// Describe builds a workspace descriptor for an existing git tree,
// reading its remotes. A plain directory (no repo) yields a descriptor
// with no VCS binding.
func (c *Client) Describe(ctx context.Context, path string) (*workspace.Workspace, error) {
	w := workspace.New(path)
	remotes, err := c.Remotes(ctx, path)
	if err != nil {
		// Not a git repo: still a manageable workspace.
		debug.Logf("reading remotes for %s: %v\n", path, err)
		return w, nil
	}
	w.VCS.Kind = workspace.VCSGit
	w.VCS.Remotes = remotes
	return w, nil
}

// Remotes reads the repository's remotes from git config.
func (c *Client) Remotes(ctx context.Context, path string) ([]workspace.Remote, error) {
	out, err := c.run(ctx, path, "remote", "-v")
	if err != nil {
		return nil, err
	}
	var binding workspace.VCSBinding
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		// "<name>\t<url> (fetch|push)"; fetch and push URLs are almost
		// always identical, SetRemote collapses them.
		if len(fields) < 2 {
			continue
		}
		if len(fields) >= 3 && fields[2] == "(push)" {
			continue
		}
		binding.SetRemote(fields[0], fields[1])
	}
	return binding.Remotes, nil
}

// AddRemote adds a named remote to the repository at path.
func (c *Client) AddRemote(ctx context.Context, path, name, url string) error {
	_, err := c.run(ctx, path, "remote", "add", name, url)
	return err
}

// Pull runs git pull in the workspace, retrying transient failures.
func (c *Client) Pull(ctx context.Context, w *workspace.Workspace) (string, error) {
	var out string
	err := c.withRetry(ctx, "pull "+w.ID, func() error {
		var runErr error
		out, runErr = c.run(ctx, w.Path, "pull", "--ff-only")
		return runErr
	})
	return out, err
}

// Push runs git push in the workspace, retrying transient failures.
func (c *Client) Push(ctx context.Context, w *workspace.Workspace) (string, error) {
	var out string
	err := c.withRetry(ctx, "push "+w.ID, func() error {
		var runErr error
		out, runErr = c.run(ctx, w.Path, "push")
		return runErr
	})
	return out, err
}

// SyncRemotesRead replaces the workspace's recorded remotes with what
// git currently has.
func (c *Client) SyncRemotesRead(ctx context.Context, w *workspace.Workspace) error {
	remotes, err := c.Remotes(ctx, w.Path)
	if err != nil {
		return err
	}
	w.VCS.Kind = workspace.VCSGit
	w.VCS.Remotes = remotes
	return nil
}

// SyncRemotesWrite adds the workspace's recorded remotes that git does
// not have yet. Existing remotes are never modified.
func (c *Client) SyncRemotesWrite(ctx context.Context, w *workspace.Workspace) error {
	current, err := c.Remotes(ctx, w.Path)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(current))
	for _, r := range current {
		have[r.Name] = struct{}{}
	}
	for _, r := range w.VCS.Remotes {
		if _, ok := have[r.Name]; ok {
			continue
		}
		if err := c.AddRemote(ctx, w.Path, r.Name, r.URL); err != nil {
			return err
		}
		debug.Infof("added remote %s to %s\n", r.Name, w.Path)
	}
	return nil
}
