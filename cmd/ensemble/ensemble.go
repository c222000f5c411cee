package ensemble

import (
	"context"
	"fmt"
	"io"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/fabsim"
	"github.com/spf13/cobra"
)

// NewCommand returns the ensemble command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run      func(ctx context.Context, conf config.Config) error
	Resubmit func(ctx context.Context, conf config.Config) error
	Samples  func(ctx context.Context, conf config.Config, out io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run:      Run,
		Resubmit: Resubmit,
		Samples:  Samples,
	}

	var (
		configFile string
		conf       config.Config
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Launch, resubmit and collect ensembles.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error

			conf, err = util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			if conf.Ensemble.Config == "" {
				return fmt.Errorf("Ensemble.Config must not be empty")
			}
			return nil
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.PersistentFlags()
	f.AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
	f.AddFlagSet(util.EnsembleFlags(&flagConf))

	run := &cobra.Command{
		Use:   "run",
		Short: "Submit the ensemble to the machine.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hooks.Run(cmd.Context(), conf)
		},
	}

	resubmit := &cobra.Command{
		Use:   "resubmit",
		Short: "Submit the previous ensemble again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hooks.Resubmit(cmd.Context(), conf)
		},
	}

	samples := &cobra.Command{
		Use:   "samples",
		Short: "Copy the ensemble samples into the campaign directory and drop stale runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hooks.Samples(cmd.Context(), conf, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(run, resubmit, samples)
	return cmd, hooks
}

// Run submits the configured ensemble.
func Run(ctx context.Context, conf config.Config) error {
	rt, err := util.NewRuntime(ctx, conf, "ensemble")
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.Ensembles.Run(ctx, fabsim.EnsembleFromConfig(conf))
}

// Resubmit submits the previous ensemble again.
func Resubmit(ctx context.Context, conf config.Config) error {
	rt, err := util.NewRuntime(ctx, conf, "ensemble")
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.Ensembles.Resubmit(ctx, fabsim.EnsembleFromConfig(conf))
}

// Samples collects the samples of the ensemble and prints the run
// directories that were removed.
func Samples(ctx context.Context, conf config.Config, out io.Writer) error {
	if conf.Ensemble.CampaignDir == "" {
		return fmt.Errorf("Ensemble.CampaignDir must not be empty")
	}
	rt, err := util.NewRuntime(ctx, conf, "ensemble")
	if err != nil {
		return err
	}
	defer rt.Close()

	removed, err := rt.Ensembles.GetSamples(ctx, fabsim.EnsembleFromConfig(conf))
	if err != nil {
		return err
	}
	for _, r := range removed {
		fmt.Fprintln(out, "removed", r)
	}
	return nil
}
