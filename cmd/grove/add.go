package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/gitops"
	"github.com/grovekit/grove/internal/registry"
	"github.com/grovekit/grove/internal/workspace"
)

var (
	addTags []string
	addID   string
)

var addCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Register one or more workspaces by path",
	Long: `Register working trees with the registry. The workspace id is derived
from the final path element (override with --id). If the directory is
a git repository its remotes are captured as the workspace's VCS
binding.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if addID != "" && len(args) != 1 {
			fatal(fmt.Errorf("--id applies to exactly one path, got %d", len(args)))
		}
		reg := loadRegistry()
		git := gitops.New()
		for _, raw := range args {
			w := workspace.New(raw)
			if addID != "" {
				w.ID = addID
			}
			for _, t := range addTags {
				w.AddTag(t)
			}
			if described, err := git.Describe(context.Background(), w.Path); err == nil {
				w.VCS = described.VCS
			}
			added, err := registerWorkspace(reg, w)
			if err != nil {
				fatal(err)
			}
			if !added {
				fmt.Printf("%s already registered, skipping\n", w.Path)
				continue
			}
			fmt.Printf("Added %s (%s)\n", w.ID, w.Path)
		}
		saveOrDie(reg)
	},
}

// registerWorkspace adds w to the registry. Re-adding a path that is
// already tracked is a no-op, not an error. An id collision from a
// *different* path is a real conflict: silently dropping it would lose
// a workspace, so it surfaces as an error telling the user to pick an
// explicit id.
func registerWorkspace(reg *registry.Registry, w *workspace.Workspace) (added bool, err error) {
	if reg.FindByPath(w.Path) != nil {
		return false, nil
	}
	err = reg.Add(w)
	if errors.Is(err, registry.ErrDuplicateID) {
		existing, getErr := reg.Get(w.ID)
		if getErr == nil {
			return false, fmt.Errorf("%w: id %q is taken by %s; re-run with --id to pick another", registry.ErrDuplicateID, w.ID, existing.Path)
		}
		return false, err
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func init() {
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "tag to apply to each added workspace (repeatable)")
	addCmd.Flags().StringVar(&addID, "id", "", "explicit workspace id (single path only)")
	rootCmd.AddCommand(addCmd)
}
