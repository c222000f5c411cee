package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion code",
}

var bash = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completion code",
	Long: `This command generates bash CLI completion code.
Add "source <(fabuq completion bash)" to your bash profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := RootCmd.GenBashCompletionV2(cmd.OutOrStdout(), true); err != nil {
			return fmt.Errorf("error generating bash completion: %v", err)
		}
		return nil
	},
}

var zsh = &cobra.Command{
	Use:   "zsh",
	Short: "Generate zsh completion code",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := RootCmd.GenZshCompletion(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("error generating zsh completion: %v", err)
		}
		return nil
	},
}

func init() {
	completionCmd.AddCommand(bash, zsh)
}
