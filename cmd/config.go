package cmd

import (
	"fmt"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	flagConf   config.Config
)

// configCmd prints the configuration a command would run with.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
		if err != nil {
			return fmt.Errorf("error processing config: %v", err)
		}
		b, err := config.ToYaml(conf)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	configCmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := configCmd.Flags()
	f.AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
	f.AddFlagSet(util.EnsembleFlags(&flagConf))
}
