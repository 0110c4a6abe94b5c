// Package executor runs one operation across many workspaces under
// bounded concurrency. Completion order is whatever the OS scheduler
// delivers; the report is always in target-list order, collected into
// a buffer keyed by target index.
package executor

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grovekit/grove/internal/workspace"
)

// Status is the outcome of one workspace's operation.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OpOutput carries what an operation produced for one workspace.
type OpOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Operation is anything the executor can run against a workspace:
// a shell command, a git operation, an archive step. Run must honor
// ctx cancellation; partial output returned alongside an error is
// preserved in the result.
type Operation interface {
	Name() string
	Run(ctx context.Context, w *workspace.Workspace) (OpOutput, error)
}

// Result is the per-workspace outcome of one batch run.
type Result struct {
	WorkspaceID string
	Status      Status
	ExitCode    int
	Stdout      string
	Stderr      string
	Err         error
	Start       time.Time
	End         time.Time
}

// Aggregate summarizes a report.
type Aggregate int

const (
	NoTargets Aggregate = iota
	AllSucceeded
	SomeFailed
	AllFailed
)

// Report is the ordered result set of one batch run. Results match
// the target list order passed to Run, not completion order.
type Report struct {
	Operation string
	Results   []Result
	Aggregate Aggregate
}

// FailedIDs returns the ids whose operations failed (not cancelled).
func (r *Report) FailedIDs() []string {
	var out []string
	for _, res := range r.Results {
		if res.Status == StatusFailure {
			out = append(out, res.WorkspaceID)
		}
	}
	return out
}

// CancelledIDs returns the ids whose operations were cancelled.
func (r *Report) CancelledIDs() []string {
	var out []string
	for _, res := range r.Results {
		if res.Status == StatusCancelled {
			out = append(out, res.WorkspaceID)
		}
	}
	return out
}

// ExitCode maps the aggregate to the CLI contract: 0 when everything
// succeeded (or there was nothing to do), 1 when any target failed.
func (r *Report) ExitCode() int {
	if r.Aggregate == AllSucceeded || r.Aggregate == NoTargets {
		return 0
	}
	return 1
}

// Options controls a batch run.
type Options struct {
	// Limit bounds in-flight operations; 0 means NumCPU.
	Limit int
	// FailFast cancels queued-but-not-started operations after the
	// first failure. In-flight operations run to completion.
	FailFast bool
}

func (o Options) limit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return runtime.NumCPU()
}

// errHalted marks results that were never started because an earlier
// failure tripped fail-fast.
var errHalted = errors.New("not started after earlier failure")

// Run executes op against every target. A single workspace's failure
// never halts the others unless FailFast is set, and even then only
// dispatch stops: the halt flag gates queued targets, while ctx stays
// reserved for user interrupt, so a sibling's failure never kills
// in-flight work. Cancellation of ctx marks unstarted targets
// Cancelled; in-flight operations keep their partial output under a
// Cancelled status.
func Run(ctx context.Context, targets []*workspace.Workspace, op Operation, opts Options) *Report {
	report := &Report{Operation: op.Name()}
	if len(targets) == 0 {
		report.Aggregate = NoTargets
		return report
	}

	report.Results = make([]Result, len(targets))

	var halt atomic.Bool
	var g errgroup.Group
	g.SetLimit(opts.limit())

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			res := runOne(ctx, op, target, &halt)
			report.Results[i] = res
			if res.Status == StatusFailure && opts.FailFast {
				halt.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Aggregate = aggregate(report.Results)
	return report
}

func runOne(ctx context.Context, op Operation, w *workspace.Workspace, halt *atomic.Bool) Result {
	res := Result{WorkspaceID: w.ID, Start: time.Now()}

	// Queued operation whose turn came after cancellation or a
	// fail-fast halt: never started.
	if ctx.Err() != nil || halt.Load() {
		res.Status = StatusCancelled
		if res.Err = ctx.Err(); res.Err == nil {
			res.Err = errHalted
		}
		res.End = res.Start
		return res
	}

	out, err := op.Run(ctx, w)
	res.End = time.Now()
	res.Stdout = out.Stdout
	res.Stderr = out.Stderr
	res.ExitCode = out.ExitCode

	switch {
	case err == nil:
		res.Status = StatusSuccess
	case ctx.Err() != nil:
		// Interrupted mid-flight; partial output already captured.
		res.Status = StatusCancelled
		res.Err = err
	default:
		res.Status = StatusFailure
		res.Err = err
	}
	return res
}

func aggregate(results []Result) Aggregate {
	failures := 0
	for _, r := range results {
		if r.Status != StatusSuccess {
			failures++
		}
	}
	switch failures {
	case 0:
		return AllSucceeded
	case len(results):
		return AllFailed
	default:
		return SomeFailed
	}
}
