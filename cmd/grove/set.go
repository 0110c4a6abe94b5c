package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <id> <key> <value> | set <id> <key>=<value>...",
	Short: "Set metadata key/value pairs on a workspace",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, rest := args[0], args[1:]
		reg := loadRegistry()

		// "set id key value" and "set id k=v [k=v...]" are both accepted.
		if len(rest) == 2 && !strings.Contains(rest[0], "=") {
			if err := reg.SetMeta(id, rest[0], rest[1]); err != nil {
				fatal(err)
			}
			saveOrDie(reg)
			return
		}
		for _, pair := range rest {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				fatal(fmt.Errorf("invalid metadata pair %q, want key=value", pair))
			}
			if err := reg.SetMeta(id, key, value); err != nil {
				fatal(err)
			}
		}
		saveOrDie(reg)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
