package util

import (
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/spf13/pflag"
)

// ConfigFlags returns the flag set shared by every command that talks to
// the remote tool: the config file plus tool, polling, retry, journal,
// metrics and logging settings.
func ConfigFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.AddFlagSet(toolFlags(flagConf))
	f.AddFlagSet(pollFlags(flagConf))
	f.AddFlagSet(retryFlags(flagConf))
	f.AddFlagSet(journalFlags(flagConf))
	f.AddFlagSet(metricsFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))

	return f
}

// EnsembleFlags returns a new flag set describing the ensemble to act on.
func EnsembleFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Ensemble.Config, "Ensemble.Config", flagConf.Ensemble.Config, "Name of the ensemble config directory")
	f.StringVar(&flagConf.Ensemble.CampaignDir, "Ensemble.CampaignDir", flagConf.Ensemble.CampaignDir, "Campaign directory")
	f.StringVar(&flagConf.Ensemble.TargetFilename, "Ensemble.TargetFilename", flagConf.Ensemble.TargetFilename, "Output file every run must produce")
	f.StringVar(&flagConf.Ensemble.Script, "Ensemble.Script", flagConf.Ensemble.Script, "Run script of the ensemble")
	f.BoolVar(&flagConf.Ensemble.PilotJob, "Ensemble.PilotJob", flagConf.Ensemble.PilotJob, "Run the ensemble as a pilot job")
	f.IntVar(&flagConf.Ensemble.Skip, "Ensemble.Skip", flagConf.Ensemble.Skip, "Number of leading runs to skip")
	f.IntVar(&flagConf.Ensemble.Samples, "Ensemble.Samples", flagConf.Ensemble.Samples, "Current number of samples in the campaign")

	return f
}

func toolFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Tool, "Tool", flagConf.Tool, "Remote execution tool command")
	f.StringVarP(&flagConf.Machine, "Machine", "m", flagConf.Machine, "Machine the ensemble runs on")
	f.StringVar(&flagConf.VerifyMachine, "VerifyMachine", flagConf.VerifyMachine, "Machine the verification step runs on")
	f.StringVar(&flagConf.ResubmitCommand, "ResubmitCommand", flagConf.ResubmitCommand, "Remote command used to resubmit an ensemble")

	return f
}

func pollFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.Var(&flagConf.Poll.Interval, "Poll.Interval", "Time between status polls")
	f.IntVar(&flagConf.Poll.HeaderLines, "Poll.HeaderLines", flagConf.Poll.HeaderLines, "Header lines of the status report")

	return f
}

func retryFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.IntVar(&flagConf.Retry.MaxPollRetries, "Retry.MaxPollRetries", flagConf.Retry.MaxPollRetries, "Consecutive failed polls retried before giving up")
	f.IntVar(&flagConf.Retry.MaxResubmissions, "Retry.MaxResubmissions", flagConf.Retry.MaxResubmissions, "Resubmissions of an incomplete ensemble before giving up")
	f.IntVar(&flagConf.Retry.MaxFetchRetries, "Retry.MaxFetchRetries", flagConf.Retry.MaxFetchRetries, "Attempts to fetch results before giving up")
	f.Var(&flagConf.Retry.FetchInterval, "Retry.FetchInterval", "Initial delay between fetch attempts")
	f.Var(&flagConf.Retry.FetchMaxInterval, "Retry.FetchMaxInterval", "Maximum delay between fetch attempts")

	return f
}

func journalFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.BoolVar(&flagConf.Journal.Disabled, "Journal.Disabled", flagConf.Journal.Disabled, "Do not record cycles in the journal")
	f.StringVar(&flagConf.Journal.Path, "Journal.Path", flagConf.Journal.Path, "Path to the BoltDB journal")

	return f
}

func metricsFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Metrics.Addr, "Metrics.Addr", flagConf.Metrics.Addr, "Address to serve Prometheus metrics on")
	f.StringVar(&flagConf.Metrics.TextfilePath, "Metrics.TextfilePath", flagConf.Metrics.TextfilePath, "File to write metrics to on exit")

	return f
}

func loggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Logger.OutputFile, "Logger.OutputFile", flagConf.Logger.OutputFile, "File path to write logs to")
	f.StringVar(&flagConf.Logger.Formatter, "Logger.Formatter", flagConf.Logger.Formatter, "Logs formatter. One of ['text', 'json']")

	return f
}
