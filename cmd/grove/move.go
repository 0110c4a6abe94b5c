package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/workspace"
)

var moveCmd = &cobra.Command{
	Use:     "mv <id> <new-path>",
	Aliases: []string{"move"},
	Short:   "Move a workspace's directory and update its registered path",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, dest := args[0], workspace.NormalizePath(args[1])
		reg := loadRegistry()
		w, err := reg.Get(id)
		if err != nil {
			fatal(err)
		}
		if _, err := os.Stat(dest); err == nil {
			fatal(fmt.Errorf("destination %s already exists", dest))
		}
		if parent := filepath.Dir(dest); parent != "." {
			if err := os.MkdirAll(parent, 0o750); err != nil {
				fatal(err)
			}
		}
		if err := os.Rename(w.Path, dest); err != nil {
			fatal(fmt.Errorf("moving %s: %w", id, err))
		}
		if err := reg.Move(id, dest); err != nil {
			// Directory moved but registry refused: move it back so disk
			// and registry stay in agreement.
			_ = os.Rename(dest, w.Path)
			fatal(err)
		}
		saveOrDie(reg)
		fmt.Printf("Moved %s to %s\n", id, dest)
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
