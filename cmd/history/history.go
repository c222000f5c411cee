package history

import (
	"context"
	"fmt"
	"io"

	"github.com/ghodss/yaml"
	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/journal"
	"github.com/spf13/cobra"
)

// NewCommand returns the history command
func NewCommand() *cobra.Command {
	var (
		configFile  string
		journalConf config.Journal
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the verify cycles recorded in the journal.",
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.PersistentFlags()
	f.StringVarP(&configFile, "config", "c", configFile, "Config File")
	f.StringVar(&journalConf.Path, "Journal.Path", "", "Path to the BoltDB journal")

	resolve := func() (config.Journal, error) {
		conf, err := util.MergeConfigFileWithFlags(configFile, config.Config{Journal: journalConf})
		if err != nil {
			return conf.Journal, fmt.Errorf("error processing config: %v", err)
		}
		return conf.Journal, nil
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded cycles, most recent first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jc, err := resolve()
			if err != nil {
				return err
			}
			return List(cmd.Context(), jc, limit, cmd.OutOrStdout())
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of cycles to list. 0 lists all")

	get := &cobra.Command{
		Use:   "get <cycleID>",
		Short: "Print a cycle and its events.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jc, err := resolve()
			if err != nil {
				return err
			}
			return Get(cmd.Context(), jc, args[0], cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

// List writes up to limit cycle summaries to out as YAML.
func List(ctx context.Context, conf config.Journal, limit int, out io.Writer) error {
	j, err := journal.NewBoltJournal(conf)
	if err != nil {
		return err
	}
	defer j.Close()

	cycles, err := j.ListCycles(ctx, limit)
	if err != nil {
		return err
	}
	return printYaml(out, cycles)
}

// Get writes a cycle summary and its events to out as YAML.
func Get(ctx context.Context, conf config.Journal, id string, out io.Writer) error {
	j, err := journal.NewBoltJournal(conf)
	if err != nil {
		return err
	}
	defer j.Close()

	cycle, err := j.GetCycle(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	evs, err := j.ListEvents(ctx, id)
	if err != nil {
		return err
	}
	return printYaml(out, map[string]interface{}{
		"cycle":  cycle,
		"events": evs,
	})
}

func printYaml(out io.Writer, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}
