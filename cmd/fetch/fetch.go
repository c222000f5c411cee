package fetch

import (
	"context"
	"fmt"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	flagConf   config.Config
)

// Cmd represents the fetch command
var Cmd = &cobra.Command{
	Use:   "fetch",
	Short: "Copy the results of the machine into the local results directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
		if err != nil {
			return fmt.Errorf("error processing config: %v", err)
		}
		return Run(cmd.Context(), conf)
	},
}

func init() {
	Cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	Cmd.Flags().AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
}

// Run fetches results once. Use "verify" for fetching with retries.
func Run(ctx context.Context, conf config.Config) error {
	ctx, stop := util.SignalContext(ctx)
	defer stop()

	rt, err := util.NewRuntime(ctx, conf, "fetch")
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.Ensembles.FetchResults(ctx, conf.Machine)
}
