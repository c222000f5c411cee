package verify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/cmd/version"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/fabsim"
	"github.com/spf13/cobra"
)

// NewCommand returns the verify command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, out io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Wait for an ensemble, verify its outputs and resubmit it until complete.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			if err := conf.Ensemble.ValidateEnsemble(); err != nil {
				return err
			}
			return hooks.Run(cmd.Context(), conf, cmd.OutOrStdout())
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
	f.AddFlagSet(util.EnsembleFlags(&flagConf))

	return cmd, hooks
}

// Run runs one verify cycle for the configured ensemble and writes a
// summary of the outcome to out. Exhausted retry bounds are returned as a
// *fabsim.FatalError.
func Run(ctx context.Context, conf config.Config, out io.Writer) error {
	ctx, stop := util.SignalContext(ctx)
	defer stop()

	rt, err := util.NewRuntime(ctx, conf, "verify")
	if err != nil {
		return err
	}
	defer rt.Close()
	version.Log(rt.Log)

	e := fabsim.EnsembleFromConfig(conf)
	outcome, err := rt.Controller().Verify(ctx, e)
	if outcome != nil {
		fmt.Fprintf(out, "cycle %s: %s (resubmissions: %d, poll retries: %d, duration: %s)\n",
			outcome.CycleID, outcome.State, outcome.Resubmissions, outcome.PollRetries,
			outcome.Duration.Round(time.Millisecond))
	}
	return err
}
