package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/registry"
)

var cmdSpecCmd = &cobra.Command{
	Use:   "cmd",
	Short: "Manage saved commands",
}

var cmdAddTags []string

var cmdAddCmd = &cobra.Command{
	Use:   "add <name> -- <command>...",
	Short: "Save a named command, optionally bound to tags",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		name, command := args[0], strings.Join(args[1:], " ")
		reg := loadRegistry()
		reg.SetCommand(name, registry.CommandSpec{Command: command, Tags: cmdAddTags})
		saveOrDie(reg)
		fmt.Printf("Saved %s\n", name)
	},
}

var cmdRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a saved command",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		if err := reg.RemoveCommand(args[0]); err != nil {
			fatal(err)
		}
		saveOrDie(reg)
	},
}

var cmdListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved commands",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		specs := reg.Commands()
		names := make([]string, 0, len(specs))
		for name := range specs {
			names = append(names, name)
		}
		sort.Strings(names)
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, name := range names {
			spec := specs[name]
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, spec.Command, strings.Join(spec.Tags, ","))
		}
		tw.Flush()
	},
}

func init() {
	cmdAddCmd.Flags().StringSliceVarP(&cmdAddTags, "tag", "t", nil, "bind the command to workspaces carrying this tag (repeatable)")
	cmdSpecCmd.AddCommand(cmdAddCmd, cmdRmCmd, cmdListCmd)
	rootCmd.AddCommand(cmdSpecCmd)
}
