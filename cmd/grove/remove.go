package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/registry"
)

var forceDelete bool

var removeCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"remove"},
	Short:   "Unregister workspaces (files stay on disk unless --force-delete)",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		if err := removeWorkspaces(reg, args, forceDelete); err != nil {
			fatal(err)
		}
		saveOrDie(reg)
	},
}

// removeWorkspaces unregisters each id. A missing id is an error when
// it is the only one asked for; in a multi-id run it is logged and
// skipped so the rest still get removed.
func removeWorkspaces(reg *registry.Registry, ids []string, deleteTree bool) error {
	for _, id := range ids {
		w, err := reg.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			if len(ids) == 1 {
				return err
			}
			fmt.Printf("%s is not registered, skipping\n", id)
			continue
		}
		if err != nil {
			return err
		}
		path := w.Path
		if err := reg.Remove(id); err != nil {
			return err
		}
		if deleteTree {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("deleting %s: %w", path, err)
			}
			fmt.Printf("Removed %s and deleted %s\n", id, path)
		} else {
			fmt.Printf("Removed %s (files kept at %s)\n", id, path)
		}
	}
	return nil
}

func init() {
	removeCmd.Flags().BoolVar(&forceDelete, "force-delete", false, "also delete the workspace directory from disk")
	rootCmd.AddCommand(removeCmd)
}
