package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/selector"
	"github.com/grovekit/grove/internal/ui"
)

var listLong bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered workspaces",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		targets := selectTargets(reg, nil)
		if len(targets) == 0 {
			fmt.Println(ui.MutedStyle.Render("no workspaces"))
			return
		}
		if !listLong {
			for _, w := range targets {
				fmt.Println(w.ID)
			}
			return
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPATH\tTAGS")
		for _, w := range targets {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", w.ID, w.Path, strings.Join(w.Tags, ","))
		}
		tw.Flush()
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		for _, tag := range selector.NewIndex(reg).Tags() {
			fmt.Println(tag)
		}
	},
}

func init() {
	addSelectorFlags(listCmd)
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "show paths and tags")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tagsCmd)
}
