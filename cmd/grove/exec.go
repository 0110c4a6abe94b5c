package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/executor"
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command>...",
	Short: "Run a shell command in each selected workspace",
	Long: `Run a shell command in every selected workspace, in parallel, and
report per-workspace results in registry order. The command may use
{id}, {path} and {metadata.<key>} placeholders; write {{ for a
literal brace.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		op, err := executor.NewShellOp(strings.Join(args, " "))
		if err != nil {
			fatal(err)
		}
		reg := loadRegistry()
		targets := selectTargets(reg, nil)
		if len(targets) == 0 {
			fmt.Println("no workspaces matched")
			return
		}
		rep := executor.Run(rootCtx, targets, op, executor.Options{
			Limit:    jobLimit(),
			FailFast: failFast,
		})
		renderReport(rep)
	},
}

func init() {
	addBatchFlags(execCmd)
	rootCmd.AddCommand(execCmd)
}
