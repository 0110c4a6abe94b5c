package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovekit/grove/internal/workspace"
)

// recordingOp is a mock operation that records invocation order and
// lets individual workspaces fail or stall.
type recordingOp struct {
	mu      sync.Mutex
	started []string
	delay   map[string]time.Duration
	fail    map[string]bool
}

func (r *recordingOp) Name() string { return "mock" }

func (r *recordingOp) Run(ctx context.Context, w *workspace.Workspace) (OpOutput, error) {
	r.mu.Lock()
	r.started = append(r.started, w.ID)
	r.mu.Unlock()

	if d := r.delay[w.ID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return OpOutput{Stdout: "partial"}, ctx.Err()
		}
	}
	if r.fail[w.ID] {
		return OpOutput{ExitCode: 1}, fmt.Errorf("%s exploded", w.ID)
	}
	return OpOutput{Stdout: "ok " + w.ID}, nil
}

func (r *recordingOp) startedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}

func targets(ids ...string) []*workspace.Workspace {
	out := make([]*workspace.Workspace, len(ids))
	for i, id := range ids {
		out[i] = &workspace.Workspace{ID: id, Path: "unused/" + id}
	}
	return out
}

func TestRunNoTargets(t *testing.T) {
	report := Run(context.Background(), nil, &recordingOp{}, Options{})
	assert.Equal(t, NoTargets, report.Aggregate)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.ExitCode())
}

func TestReportOrderMatchesTargetOrderNotCompletionOrder(t *testing.T) {
	// The first target is slow, the second fast: completion order is
	// reversed, reported order must not be.
	op := &recordingOp{delay: map[string]time.Duration{"slow": 100 * time.Millisecond}}
	report := Run(context.Background(), targets("slow", "fast"), op, Options{Limit: 2})

	require.Len(t, report.Results, 2)
	assert.Equal(t, "slow", report.Results[0].WorkspaceID)
	assert.Equal(t, "fast", report.Results[1].WorkspaceID)
	assert.Equal(t, AllSucceeded, report.Aggregate)
}

func TestPartialFailureIsolation(t *testing.T) {
	op := &recordingOp{fail: map[string]bool{"b": true}}
	report := Run(context.Background(), targets("a", "b", "c"), op, Options{Limit: 1})

	require.Len(t, report.Results, 3)
	assert.Equal(t, StatusSuccess, report.Results[0].Status)
	assert.Equal(t, StatusFailure, report.Results[1].Status)
	assert.Equal(t, StatusSuccess, report.Results[2].Status)
	assert.Equal(t, SomeFailed, report.Aggregate)
	assert.Equal(t, []string{"b"}, report.FailedIDs())
	assert.Equal(t, 1, report.ExitCode())
}

func TestFailFastCancelsQueuedWork(t *testing.T) {
	op := &recordingOp{fail: map[string]bool{"b": true}}
	report := Run(context.Background(), targets("a", "b", "c"), op, Options{Limit: 1, FailFast: true})

	require.Len(t, report.Results, 3)
	assert.Equal(t, StatusSuccess, report.Results[0].Status)
	assert.Equal(t, StatusFailure, report.Results[1].Status)
	assert.Equal(t, StatusCancelled, report.Results[2].Status)

	// With limit 1 and b failing, c must never have been dispatched.
	assert.Equal(t, []string{"a", "b"}, op.startedIDs())
	assert.Equal(t, []string{"c"}, report.CancelledIDs())
}

func TestFailFastLetsInFlightWorkFinish(t *testing.T) {
	// Both targets dispatch immediately (limit 2); "fast" fails while
	// "slow" is still running. Fail-fast only stops dispatch, so the
	// in-flight operation must still complete as a success.
	op := &recordingOp{
		delay: map[string]time.Duration{"slow": 150 * time.Millisecond},
		fail:  map[string]bool{"fast": true},
	}
	report := Run(context.Background(), targets("slow", "fast"), op, Options{Limit: 2, FailFast: true})

	require.Len(t, report.Results, 2)
	assert.Equal(t, StatusSuccess, report.Results[0].Status,
		"in-flight work must run to completion after a sibling fails")
	assert.Equal(t, "ok slow", report.Results[0].Stdout)
	assert.Equal(t, StatusFailure, report.Results[1].Status)
	assert.Equal(t, SomeFailed, report.Aggregate)
	assert.Empty(t, report.CancelledIDs())
}

func TestAllFailed(t *testing.T) {
	op := &recordingOp{fail: map[string]bool{"a": true, "b": true}}
	report := Run(context.Background(), targets("a", "b"), op, Options{Limit: 2})
	assert.Equal(t, AllFailed, report.Aggregate)
}

func TestCancelledRunPreservesPartialOutput(t *testing.T) {
	op := &recordingOp{delay: map[string]time.Duration{"a": 5 * time.Second}}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report := Run(ctx, targets("a"), op, Options{Limit: 1})
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusCancelled, report.Results[0].Status)
	assert.Equal(t, "partial", report.Results[0].Stdout)
}

func TestRepeatedRunsProduceSameOrder(t *testing.T) {
	ws := targets("w1", "w2", "w3", "w4", "w5")
	op := &recordingOp{delay: map[string]time.Duration{
		"w1": 30 * time.Millisecond,
		"w3": 10 * time.Millisecond,
	}}
	for run := 0; run < 3; run++ {
		report := Run(context.Background(), ws, op, Options{Limit: 3})
		require.Len(t, report.Results, 5)
		for i, want := range []string{"w1", "w2", "w3", "w4", "w5"} {
			assert.Equal(t, want, report.Results[i].WorkspaceID, "run %d position %d", run, i)
		}
	}
}

func TestShellOpRunsInWorkspaceDir(t *testing.T) {
	dir := t.TempDir()
	w := &workspace.Workspace{ID: "here", Path: dir}

	op, err := NewShellOp("pwd")
	require.NoError(t, err)

	report := Run(context.Background(), []*workspace.Workspace{w}, op, Options{Limit: 1})
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	require.Equal(t, StatusSuccess, res.Status, "stderr: %s", res.Stderr)
	// The shell may report the dir through a symlink; match the suffix.
	assert.Contains(t, res.Stdout, "\n")
	assert.Equal(t, 0, res.ExitCode)
}

func TestShellOpSubstitutesVariables(t *testing.T) {
	dir := t.TempDir()
	w := &workspace.Workspace{ID: "alpha", Path: dir}
	w.SetMeta("greeting", "hello")

	op, err := NewShellOp("echo {metadata.greeting} from {id}")
	require.NoError(t, err)

	report := Run(context.Background(), []*workspace.Workspace{w}, op, Options{Limit: 1})
	require.Equal(t, StatusSuccess, report.Results[0].Status)
	assert.Equal(t, "hello from alpha\n", report.Results[0].Stdout)
}

func TestShellOpUnresolvedVariableFailsOnlyThatWorkspace(t *testing.T) {
	good := &workspace.Workspace{ID: "good", Path: t.TempDir()}
	good.SetMeta("branch", "main")
	bad := &workspace.Workspace{ID: "bad", Path: t.TempDir()}

	op, err := NewShellOp("echo {metadata.branch}")
	require.NoError(t, err)

	report := Run(context.Background(), []*workspace.Workspace{good, bad}, op, Options{Limit: 1})
	require.Len(t, report.Results, 2)
	assert.Equal(t, StatusSuccess, report.Results[0].Status)
	assert.Equal(t, StatusFailure, report.Results[1].Status)
	assert.Equal(t, SomeFailed, report.Aggregate)
}

func TestShellOpMissingWorkspaceDir(t *testing.T) {
	w := &workspace.Workspace{ID: "ghost", Path: "/no/such/dir/ghost"}
	op, err := NewShellOp("true")
	require.NoError(t, err)

	report := Run(context.Background(), []*workspace.Workspace{w}, op, Options{Limit: 1})
	assert.Equal(t, StatusFailure, report.Results[0].Status)
	assert.Error(t, report.Results[0].Err)
}

func TestShellOpNonZeroExit(t *testing.T) {
	w := &workspace.Workspace{ID: "w", Path: t.TempDir()}
	op, err := NewShellOp("exit 3")
	require.NoError(t, err)

	report := Run(context.Background(), []*workspace.Workspace{w}, op, Options{Limit: 1})
	res := report.Results[0]
	assert.Equal(t, StatusFailure, res.Status)
	assert.Equal(t, 3, res.ExitCode)
}

func TestFuncOp(t *testing.T) {
	ok := FuncOp{OpName: "noop", Fn: func(ctx context.Context, w *workspace.Workspace) (string, error) {
		return "done", nil
	}}
	out, err := ok.Run(context.Background(), &workspace.Workspace{ID: "w"})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Stdout)

	boom := FuncOp{OpName: "boom", Fn: func(ctx context.Context, w *workspace.Workspace) (string, error) {
		return "", errors.New("nope")
	}}
	out, err = boom.Run(context.Background(), &workspace.Workspace{ID: "w"})
	assert.Error(t, err)
	assert.Equal(t, 1, out.ExitCode)
}
