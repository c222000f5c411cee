package wait

import (
	"context"
	"fmt"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/fabsim"
	"github.com/spf13/cobra"
)

var (
	configFile string
	flagConf   config.Config
)

// Cmd represents the wait command
var Cmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until no jobs are active on the machine.",
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

// Run polls the configured machine until it is idle, retrying failed
// polls until more than Retry.MaxPollRetries have failed.
func Run(ctx context.Context, conf config.Config) error {
	ctx, stop := util.SignalContext(ctx)
	defer stop()

	rt, err := util.NewRuntime(ctx, conf, "wait")
	if err != nil {
		return err
	}
	defer rt.Close()

	b := &fabsim.PollBudget{MaxRetries: conf.Retry.MaxPollRetries}
	return b.WaitIdle(ctx, rt.Poller(), conf.Machine, rt.Log, nil)
}
