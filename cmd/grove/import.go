package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/archive"
	"github.com/grovekit/grove/internal/registry"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import <archive>",
	Short: "Extract an exported archive and register its workspaces",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		workspaces, err := archive.Import(args[0], importDir)
		if err != nil {
			fatal(err)
		}
		added := 0
		for _, w := range workspaces {
			err := reg.Add(w)
			if errors.Is(err, registry.ErrDuplicateID) || errors.Is(err, registry.ErrDuplicatePath) {
				fmt.Printf("%s already registered, skipping\n", w.ID)
				continue
			}
			if err != nil {
				fatal(err)
			}
			added++
		}
		saveOrDie(reg)
		fmt.Printf("Imported %d workspace(s) into %s\n", added, importDir)
	},
}

func init() {
	importCmd.Flags().StringVarP(&importDir, "dir", "d", ".", "directory to extract workspaces into")
	rootCmd.AddCommand(importCmd)
}
