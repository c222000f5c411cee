package status

import (
	"context"
	"fmt"
	"io"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/fabsim"
	"github.com/spf13/cobra"
)

var (
	configFile string
	flagConf   config.Config
)

// Cmd represents the status command
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Print the job status report of the machine.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
		if err != nil {
			return fmt.Errorf("error processing config: %v", err)
		}
		return Run(cmd.Context(), conf, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	Cmd.Flags().AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
}

// Run prints the raw status report followed by the number of active jobs.
func Run(ctx context.Context, conf config.Config, out io.Writer) error {
	rt, err := util.NewRuntime(ctx, conf, "status")
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.Ensembles.Status(ctx, conf.Machine)
	if err != nil {
		return err
	}
	out.Write(report)

	parsed := fabsim.ParseStatus(report, conf.Poll.HeaderLines)
	fmt.Fprintf(out, "\n%d active jobs on %s\n", parsed.ActiveCount(), conf.Machine)
	return nil
}
