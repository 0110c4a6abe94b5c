package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/registry"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty registry file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := resolveRegistryPath()
		if _, err := os.Stat(path); err == nil {
			fatal(fmt.Errorf("registry already exists at %s", path))
		} else if !errors.Is(err, os.ErrNotExist) {
			fatal(err)
		}
		reg, err := registry.Load(path)
		if err != nil {
			fatal(err)
		}
		saveOrDie(reg)
		fmt.Printf("Initialized empty registry at %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
