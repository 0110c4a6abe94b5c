package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovekit/grove/internal/archive"
)

var (
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export selected workspaces into an archive with a manifest",
	Long: `Write the selected workspaces' trees and records into a single zip,
tar or tar.gz archive. The archive embeds a manifest so "grove import"
can rebuild the registry on another machine.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reg := loadRegistry()
		targets := selectTargets(reg, nil)
		if len(targets) == 0 {
			fatal(fmt.Errorf("no workspaces to export"))
		}

		format, err := archive.FormatForPath(exportOut)
		if exportFormat != "" {
			format, err = archive.ParseFormat(exportFormat)
		}
		if err != nil {
			fatal(err)
		}
		if err := archive.Export(targets, format, exportOut); err != nil {
			fatal(err)
		}
		fmt.Printf("Exported %d workspace(s) to %s\n", len(targets), exportOut)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "grove-export.tar.gz", "archive file to write")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "archive format: zip, tar or tar.gz (default: by extension)")
	addSelectorFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
