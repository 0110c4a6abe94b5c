package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/ui"
	"github.com/grovekit/grove/internal/workspace"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a workspace's full record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		w, err := reg.Get(args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Println(ui.HeaderStyle.Render(w.ID))
		fmt.Printf("  path: %s\n", w.Path)
		if len(w.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(w.Tags, ", "))
		}
		if len(w.Metadata) > 0 {
			keys := make([]string, 0, len(w.Metadata))
			for k := range w.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Println("  metadata:")
			for _, k := range keys {
				fmt.Printf("    %s = %s\n", k, w.Metadata[k])
			}
		}
		if w.VCS.Kind != workspace.VCSNone {
			fmt.Printf("  vcs: %s\n", w.VCS.Kind)
			for _, r := range w.VCS.Remotes {
				fmt.Printf("    %s\t%s\n", r.Name, r.URL)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
