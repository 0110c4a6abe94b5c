package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grovekit/grove/internal/registry"
	"github.com/grovekit/grove/internal/selector"
	"github.com/grovekit/grove/internal/workspace"
)

var (
	tagFilters []string
	globFilter string
	jobsFlag   int
	failFast   bool
)

// addSelectorFlags registers the shared target-selection flags on a
// batch command.
func addSelectorFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&tagFilters, "tag", "t", nil, "select workspaces carrying this tag (repeatable, intersected)")
	cmd.Flags().StringVarP(&globFilter, "glob", "g", "", "select workspaces whose path matches this glob")
}

// addBatchFlags registers selection plus execution tuning flags.
func addBatchFlags(cmd *cobra.Command) {
	addSelectorFlags(cmd)
	cmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 0, "max concurrent workspaces (default: number of CPUs)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop scheduling new workspaces after the first failure")
}

// selectTargets resolves the selector flags (and any positional ids)
// against the registry, in registry order.
func selectTargets(reg *registry.Registry, ids []string) []*workspace.Workspace {
	sel := selector.Selector{IDs: ids, Tags: tagFilters, Glob: globFilter}
	targets, err := selector.NewIndex(reg).Resolve(sel)
	if err != nil {
		fatal(err)
	}
	return targets
}

// jobLimit applies flag > GROVE_JOBS > CPU count.
func jobLimit() int {
	if jobsFlag > 0 {
		return jobsFlag
	}
	if n := viper.GetInt("jobs"); n > 0 {
		return n
	}
	return runtime.NumCPU()
}
