package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/executor"
	"github.com/grovekit/grove/internal/gitops"
	"github.com/grovekit/grove/internal/workspace"
)

var cloneCmd = &cobra.Command{
	Use:   "clone [url [dest]]",
	Short: "Clone registered workspaces, or clone a url and register it",
	Long: `With a url argument, clone the repository (into dest, or a directory
named after the repository) and register the resulting workspace. With
no argument, clone every selected workspace that is missing on disk
from its recorded remotes; workspaces already present are skipped.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		git := gitops.New()

		if len(args) >= 1 {
			url := args[0]
			dest := workspace.NameFromURL(url)
			if len(args) == 2 {
				dest = args[1]
			}
			w, err := git.Clone(rootCtx, url, dest)
			if err != nil {
				fatal(err)
			}
			for _, t := range tagFilters {
				w.AddTag(t)
			}
			if err := reg.Add(w); err != nil {
				fatal(err)
			}
			saveOrDie(reg)
			fmt.Printf("Cloned %s into %s\n", url, w.Path)
			return
		}

		targets := selectTargets(reg, nil)
		op := executor.FuncOp{OpName: "clone", Fn: func(ctx context.Context, w *workspace.Workspace) (string, error) {
			return git.CloneAll(ctx, w)
		}}
		rep := executor.Run(rootCtx, targets, op, executor.Options{Limit: jobLimit(), FailFast: failFast})
		renderReport(rep)
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "git pull --ff-only in each selected workspace",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runGitBatch("pull", gitops.New().Pull)
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "git push in each selected workspace",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runGitBatch("push", gitops.New().Push)
	},
}

func runGitBatch(name string, fn func(context.Context, *workspace.Workspace) (string, error)) {
	reg := loadRegistry()
	targets := selectTargets(reg, nil)
	op := executor.FuncOp{OpName: name, Fn: fn}
	rep := executor.Run(rootCtx, targets, op, executor.Options{Limit: jobLimit(), FailFast: failFast})
	renderReport(rep)
}

var syncRemotesWrite bool

var syncRemotesCmd = &cobra.Command{
	Use:   "sync-remotes",
	Short: "Reconcile recorded remotes with git config",
	Long: `By default, read each selected workspace's remotes from git and record
them in the registry. With --write, go the other way: add recorded
remotes that git does not have yet (existing git remotes are never
modified).`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		git := gitops.New()
		targets := selectTargets(reg, nil)

		fn := func(ctx context.Context, w *workspace.Workspace) (string, error) {
			if syncRemotesWrite {
				if err := git.SyncRemotesWrite(ctx, w); err != nil {
					return "", err
				}
				return "remotes written", nil
			}
			if err := git.SyncRemotesRead(ctx, w); err != nil {
				return "", err
			}
			return remoteSummary(w), nil
		}
		op := executor.FuncOp{OpName: "sync-remotes", Fn: fn}
		rep := executor.Run(rootCtx, targets, op, executor.Options{Limit: jobLimit(), FailFast: failFast})
		if !syncRemotesWrite && rep.Aggregate != executor.AllFailed {
			saveOrDie(reg)
		}
		renderReport(rep)
	},
}

func remoteSummary(w *workspace.Workspace) string {
	names := make([]string, 0, len(w.VCS.Remotes))
	for _, r := range w.VCS.Remotes {
		names = append(names, r.Name)
	}
	return "remotes: " + strings.Join(names, ", ")
}

func init() {
	cloneCmd.Flags().StringSliceVarP(&tagFilters, "tag", "t", nil, "with a url: tags for the new workspace; without: selection filter")
	cloneCmd.Flags().StringVarP(&globFilter, "glob", "g", "", "select workspaces whose path matches this glob")
	cloneCmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 0, "max concurrent workspaces (default: number of CPUs)")
	cloneCmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop scheduling new workspaces after the first failure")
	addBatchFlags(pullCmd)
	addBatchFlags(pushCmd)
	syncRemotesCmd.Flags().BoolVar(&syncRemotesWrite, "write", false, "add recorded remotes to git instead of reading them")
	addBatchFlags(syncRemotesCmd)
	rootCmd.AddCommand(cloneCmd, pullCmd, pushCmd, syncRemotesCmd)
}
