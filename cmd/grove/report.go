package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/grovekit/grove/internal/debug"
	"github.com/grovekit/grove/internal/executor"
	"github.com/grovekit/grove/internal/ui"
)

// renderReport prints one block per target in registry order, then a
// summary line, and exits with the report's aggregate code.
func renderReport(rep *executor.Report) {
	for _, res := range rep.Results {
		printResult(res)
	}
	printSummary(rep)
	os.Exit(rep.ExitCode())
}

func printResult(res executor.Result) {
	switch res.Status {
	case executor.StatusSuccess:
		if !debug.IsQuiet() {
			fmt.Printf("%s %s\n", ui.PassStyle.Render(ui.IconPass), res.WorkspaceID)
		}
	case executor.StatusCancelled:
		fmt.Printf("%s %s %s\n", ui.MutedStyle.Render(ui.IconCancel), res.WorkspaceID, ui.MutedStyle.Render("(cancelled)"))
	default:
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		} else if res.ExitCode != 0 {
			detail = fmt.Sprintf("exit %d", res.ExitCode)
		}
		fmt.Printf("%s %s %s\n", ui.FailStyle.Render(ui.IconFail), res.WorkspaceID, ui.FailStyle.Render(detail))
	}
	if !debug.IsQuiet() {
		printIndented(os.Stdout, res.Stdout)
	}
	printIndented(os.Stderr, res.Stderr)
}

func printIndented(w *os.File, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func printSummary(rep *executor.Report) {
	if debug.IsQuiet() && rep.Aggregate == executor.AllSucceeded {
		return
	}
	total := len(rep.Results)
	failed := len(rep.FailedIDs())
	cancelled := len(rep.CancelledIDs())
	ok := total - failed - cancelled

	parts := []string{fmt.Sprintf("%d succeeded", ok)}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if cancelled > 0 {
		parts = append(parts, fmt.Sprintf("%d cancelled", cancelled))
	}
	line := fmt.Sprintf("%s: %s", rep.Operation, strings.Join(parts, ", "))
	if failed > 0 {
		fmt.Println(ui.FailStyle.Render(line))
	} else if !debug.IsQuiet() {
		fmt.Println(ui.MutedStyle.Render(line))
	}
}
