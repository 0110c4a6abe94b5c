package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/executor"
)

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a saved command across its workspaces",
	Long: `Run a command saved with "grove cmd add". The saved command's tags
select the targets; -t/--tag flags narrow the selection further.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		spec, ok := reg.Command(args[0])
		if !ok {
			fatal(fmt.Errorf("no saved command named %q", args[0]))
		}
		op, err := executor.NewShellOp(spec.Command)
		if err != nil {
			fatal(err)
		}
		tagFilters = append(tagFilters, spec.Tags...)
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
	addBatchFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
