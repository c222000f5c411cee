package fabsim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/util/fsutil"
)

// Ensemble identifies a batch of runs and where its results end up.
// It is never modified once a cycle starts.
type Ensemble struct {
	Config         string
	CampaignDir    string
	TargetFilename string
	Machine        string
	Script         string
	PilotJob       bool
	Skip           int
	Samples        int
}

// EnsembleFromConfig builds an Ensemble from the configuration.
func EnsembleFromConfig(conf config.Config) *Ensemble {
	return &Ensemble{
		Config:         conf.Ensemble.Config,
		CampaignDir:    conf.Ensemble.CampaignDir,
		TargetFilename: conf.Ensemble.TargetFilename,
		Machine:        conf.Machine,
		Script:         conf.Ensemble.Script,
		PilotJob:       conf.Ensemble.PilotJob,
		Skip:           conf.Ensemble.Skip,
		Samples:        conf.Ensemble.Samples,
	}
}

// Fields returns the ensemble as event fields.
func (e *Ensemble) Fields() map[string]string {
	return map[string]string{
		"config":       e.Config,
		"campaign_dir": e.CampaignDir,
		"machine":      e.Machine,
	}
}

// Ensembles launches, resubmits and collects ensembles.
type Ensembles struct {
	Invoker         Invoker
	ResubmitCommand string
	Log             *logger.Logger
}

func (s *Ensembles) invoke(ctx context.Context, command string, args *Args, machine string) ([]byte, error) {
	out, ok := s.Invoker.Invoke(ctx, command, args.String(), machine)
	if !ok {
		return out, fmt.Errorf("%s on %s: %w", command, machine, ErrInvocationFailed)
	}
	return out, nil
}

// Run launches the ensemble, skipping the first e.Skip runs.
func (s *Ensembles) Run(ctx context.Context, e *Ensemble) error {
	args := NewArgs(e.Config).
		Set("campaign_dir", e.CampaignDir).
		Set("script", e.Script).
		SetInt("skip", e.Skip).
		SetBool("PilotJob", e.PilotJob)
	_, err := s.invoke(ctx, "run_uq_ensemble", args, e.Machine)
	return err
}

// Resubmit runs every job in the ensemble's sweep directory again, with the
// parameters of the original submission.
func (s *Ensembles) Resubmit(ctx context.Context, e *Ensemble) error {
	command := s.ResubmitCommand
	if command == "" {
		command = "uq_ensemble"
	}
	args := NewArgs(e.Config).
		Set("script", e.Script).
		SetBool("PilotJob", e.PilotJob)
	_, err := s.invoke(ctx, command, args, e.Machine)
	return err
}

// Status returns the raw status report of machine.
func (s *Ensembles) Status(ctx context.Context, machine string) ([]byte, error) {
	return s.invoke(ctx, "stat", NewArgs(""), machine)
}

// FetchResults copies results from machine into the local results directory.
func (s *Ensembles) FetchResults(ctx context.Context, machine string) error {
	_, err := s.invoke(ctx, "fetch_results", NewArgs(""), machine)
	return err
}

// GetSamples copies the run results of the ensemble into its campaign
// directory, then removes runs left over from an earlier, larger use of the
// same config. It returns the names of the removed run directories.
func (s *Ensembles) GetSamples(ctx context.Context, e *Ensemble) ([]string, error) {
	args := NewArgs(e.Config).
		Set("campaign_dir", e.CampaignDir).
		SetInt("skip", e.Skip)
	if _, err := s.invoke(ctx, "get_uq_samples", args, e.Machine); err != nil {
		return nil, err
	}
	return PruneRuns(e.CampaignDir, e.Samples, s.Log)
}

var runDirPattern = regexp.MustCompile(`^Run_(\d+)$`)

// PruneRuns removes <campaignDir>/runs/Run_<N> for every N > samples.
// Other entries are left alone.
func PruneRuns(campaignDir string, samples int, log *logger.Logger) ([]string, error) {
	runsDir := filepath.Join(campaignDir, "runs")
	if !fsutil.Exists(runsDir) {
		return nil, nil
	}
	dirs, err := fsutil.Subdirs(runsDir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, d := range dirs {
		m := runDirPattern.FindStringSubmatch(d)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= samples {
			continue
		}
		if err := os.RemoveAll(filepath.Join(runsDir, d)); err != nil {
			return removed, fmt.Errorf("removing stale run %s: %w", d, err)
		}
		log.Info("Removed stale run", "run", d, "runs_dir", runsDir)
		removed = append(removed, d)
	}
	sort.Strings(removed)
	return removed, nil
}
