// Package config contains fabuq configuration structures and helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/ohsu-comp-bio/fabuq/logger"
)

// Config describes configuration for fabuq.
type Config struct {
	// Command used to launch the remote execution tool, e.g. "fabsim"
	// or "python3 /opt/FabSim3/fabsim/base/fabsim_main.py".
	Tool string
	// Name of the remote machine, as known to the remote execution tool.
	Machine string
	// Machine the verification command runs on. Results are fetched before
	// verification, so this is normally "localhost".
	VerifyMachine string
	// Name of the command used to resubmit an ensemble.
	ResubmitCommand string
	// Name of the flag file written into the campaign directory by the
	// verification command.
	FlagFile string

	Poll     Poll
	Retry    Retry
	Ensemble Ensemble
	Journal  Journal
	Metrics  Metrics
	Logger   logger.LoggerConfig
}

// Poll describes how the job status report is polled.
type Poll struct {
	// How long to sleep between status queries while jobs are active.
	Interval Duration
	// Number of header lines preceding the job rows in the status report.
	HeaderLines int
}

// Retry describes the retry bounds of a verify cycle.
type Retry struct {
	// Consecutive failed status queries tolerated before aborting.
	MaxPollRetries int
	// Times an incomplete ensemble is resubmitted before aborting.
	MaxResubmissions int
	// Attempts made to fetch results (and run the verification command).
	MaxFetchRetries int
	// Initial backoff interval between fetch attempts.
	FetchInterval Duration
	// Upper bound of the backoff interval between fetch attempts.
	FetchMaxInterval Duration
}

// Ensemble describes the ensemble a cycle operates on.
type Ensemble struct {
	// Config ID, i.e. the name in <fab_home>/config_files/<config>.
	Config string
	// Campaign working directory of the UQ study.
	CampaignDir string
	// Output file expected for every run of the ensemble.
	TargetFilename string
	// Script executed by the remote execution tool for every run.
	Script string
	// Run the ensemble through the pilot-job backend instead of the scheduler.
	PilotJob bool
	// Number of leading runs to skip, used by adaptive samplers.
	Skip int
	// Number of samples currently used by the campaign.
	Samples int
}

// Journal describes the BoltDB cycle history.
type Journal struct {
	Disabled bool
	Path     string
}

// Metrics describes how Prometheus metrics are exposed.
type Metrics struct {
	// Address to serve /metrics on while a command runs, e.g. ":9101".
	Addr string
	// File the metrics are written to when a command finishes,
	// for the node exporter textfile collector.
	TextfilePath string
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Tool) == "" {
		result = multierror.Append(result, fmt.Errorf("Tool must not be empty"))
	}
	if c.Machine == "" {
		result = multierror.Append(result, fmt.Errorf("Machine must not be empty"))
	}
	if c.FlagFile == "" {
		result = multierror.Append(result, fmt.Errorf("FlagFile must not be empty"))
	}
	if c.Poll.Interval < 0 {
		result = multierror.Append(result, fmt.Errorf("Poll.Interval must not be negative"))
	}
	if c.Poll.HeaderLines < 0 {
		result = multierror.Append(result, fmt.Errorf("Poll.HeaderLines must not be negative"))
	}
	if c.Retry.MaxPollRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("Retry.MaxPollRetries must not be negative"))
	}
	if c.Retry.MaxResubmissions < 0 {
		result = multierror.Append(result, fmt.Errorf("Retry.MaxResubmissions must not be negative"))
	}
	if c.Retry.MaxFetchRetries < 1 {
		result = multierror.Append(result, fmt.Errorf("Retry.MaxFetchRetries must be at least 1"))
	}
	if !c.Journal.Disabled && c.Journal.Path == "" {
		result = multierror.Append(result, fmt.Errorf("Journal.Path must be set unless the journal is disabled"))
	}
	return result.ErrorOrNil()
}

// ValidateEnsemble checks the fields a verify cycle needs.
func (e Ensemble) ValidateEnsemble() error {
	var result *multierror.Error
	if e.Config == "" {
		result = multierror.Append(result, fmt.Errorf("Ensemble.Config must not be empty"))
	}
	if e.CampaignDir == "" {
		result = multierror.Append(result, fmt.Errorf("Ensemble.CampaignDir must not be empty"))
	}
	if e.TargetFilename == "" {
		result = multierror.Append(result, fmt.Errorf("Ensemble.TargetFilename must not be empty"))
	}
	if e.Skip < 0 {
		result = multierror.Append(result, fmt.Errorf("Ensemble.Skip must not be negative"))
	}
	return result.ErrorOrNil()
}
