package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/grovekit/grove/internal/template"
	"github.com/grovekit/grove/internal/workspace"
)

// ShellOp runs a templated shell command with the workspace's path as
// the working directory. The template is parsed once; substitution
// happens per workspace, so an absent metadata key fails only that
// workspace.
type ShellOp struct {
	tpl *template.Template
}

// NewShellOp parses the command template.
func NewShellOp(command string) (*ShellOp, error) {
	tpl, err := template.Parse(command)
	if err != nil {
		return nil, err
	}
	return &ShellOp{tpl: tpl}, nil
}

func (s *ShellOp) Name() string { return s.tpl.Source() }

func (s *ShellOp) Run(ctx context.Context, w *workspace.Workspace) (OpOutput, error) {
	if err := checkDir(w.Path); err != nil {
		return OpOutput{ExitCode: -1}, err
	}

	command, err := s.tpl.Resolve(w)
	if err != nil {
		return OpOutput{ExitCode: -1}, err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = w.Path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := OpOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	if runErr != nil {
		return out, fmt.Errorf("running %q in %s: %w", command, w.Path, runErr)
	}
	return out, nil
}

// FuncOp adapts a named function (a git or archive operation) to the
// executor's Operation interface so every execution kind shares the
// same concurrency, ordering, and cancellation behavior.
type FuncOp struct {
	OpName string
	Fn     func(ctx context.Context, w *workspace.Workspace) (string, error)
}

func (f FuncOp) Name() string { return f.OpName }

func (f FuncOp) Run(ctx context.Context, w *workspace.Workspace) (OpOutput, error) {
	output, err := f.Fn(ctx, w)
	out := OpOutput{Stdout: output}
	if err != nil {
		out.ExitCode = 1
		return out, err
	}
	return out, nil
}

// checkDir verifies the workspace path is an existing directory. The
// check is deliberately lazy (at execution, not registry load) so a
// registry can describe trees that are currently absent.
func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("workspace path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace path %s is not a directory", path)
	}
	return nil
}
