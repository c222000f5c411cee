// Package cmd contains the fabuq CLI commands.
package cmd

import (
	"github.com/ohsu-comp-bio/fabuq/cmd/ensemble"
	"github.com/ohsu-comp-bio/fabuq/cmd/fetch"
	"github.com/ohsu-comp-bio/fabuq/cmd/history"
	"github.com/ohsu-comp-bio/fabuq/cmd/status"
	"github.com/ohsu-comp-bio/fabuq/cmd/verify"
	"github.com/ohsu-comp-bio/fabuq/cmd/version"
	"github.com/ohsu-comp-bio/fabuq/cmd/wait"
	"github.com/spf13/cobra"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "fabuq",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(genMarkdownCmd)
	RootCmd.AddCommand(ensemble.NewCommand())
	RootCmd.AddCommand(fetch.Cmd)
	RootCmd.AddCommand(history.NewCommand())
	RootCmd.AddCommand(status.Cmd)
	RootCmd.AddCommand(verify.NewCommand())
	RootCmd.AddCommand(version.Cmd)
	RootCmd.AddCommand(wait.Cmd)
}
