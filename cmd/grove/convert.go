package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/gitops"
	"github.com/grovekit/grove/internal/registry"
	"github.com/grovekit/grove/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert <.gitmodules>",
	Short: "Register workspaces from a .gitmodules file",
	Long: `Read a git .gitmodules file and register each well-formed submodule
as a workspace. Malformed sections are reported and skipped; the rest
are still registered.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := gitops.ConvertGitmodules(args[0])
		if err != nil {
			fatal(err)
		}
		reg := loadRegistry()
		added := 0
		for _, w := range result.Workspaces {
			err := reg.Add(w)
			if errors.Is(err, registry.ErrDuplicateID) || errors.Is(err, registry.ErrDuplicatePath) {
				fmt.Printf("%s already registered, skipping\n", w.ID)
				continue
			}
			if err != nil {
				fatal(err)
			}
			added++
		}
		saveOrDie(reg)
		fmt.Printf("Registered %d workspace(s)\n", added)
		for _, warn := range result.Warnings {
			fmt.Fprintf(os.Stderr, "%s submodule %q skipped: %s\n",
				ui.WarnStyle.Render(ui.IconWarn), warn.Section, warn.Reason)
		}
		if result.PartiallyFailed() {
			os.Exit(exitPartial)
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
