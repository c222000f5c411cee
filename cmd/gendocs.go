package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsDir string

var genMarkdownCmd = &cobra.Command{
	Use:    "genmarkdown",
	Short:  "generate markdown formatted documentation for the fabuq commands",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doc.GenMarkdownTree(RootCmd, docsDir)
	},
}

func init() {
	genMarkdownCmd.Flags().StringVar(&docsDir, "dir", "./fabuq-cmd-docs", "Output directory")
}
