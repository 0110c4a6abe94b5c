package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag <tag> <id>...",
	Short: "Apply a tag to workspaces",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tag, ids := args[0], args[1:]
		reg := loadRegistry()
		for _, id := range ids {
			if err := reg.Tag(id, tag); err != nil {
				fatal(err)
			}
		}
		saveOrDie(reg)
		fmt.Printf("Tagged %d workspace(s) with %s\n", len(ids), tag)
	},
}

var untagCmd = &cobra.Command{
	Use:   "untag <tag> <id>...",
	Short: "Remove a tag from workspaces",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tag, ids := args[0], args[1:]
		reg := loadRegistry()
		for _, id := range ids {
			if err := reg.Untag(id, tag); err != nil {
				fatal(err)
			}
		}
		saveOrDie(reg)
		fmt.Printf("Removed %s from %d workspace(s)\n", tag, len(ids))
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(untagCmd)
}
