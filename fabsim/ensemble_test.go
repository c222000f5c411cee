package fabsim

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleFromConfig(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Machine = "eagle_vecma"
	conf.Ensemble = config.Ensemble{
		Config:         "ocean_2D",
		CampaignDir:    "/tmp/c",
		TargetFilename: "out.csv",
		Script:         "ocean",
		PilotJob:       true,
		Skip:           4,
		Samples:        16,
	}

	e := EnsembleFromConfig(conf)
	assert.Equal(t, &Ensemble{
		Config:         "ocean_2D",
		CampaignDir:    "/tmp/c",
		TargetFilename: "out.csv",
		Machine:        "eagle_vecma",
		Script:         "ocean",
		PilotJob:       true,
		Skip:           4,
		Samples:        16,
	}, e)
}

func TestRunEnsemble(t *testing.T) {
	inv := &fakeInvoker{}
	s := &Ensembles{Invoker: inv, Log: testLogger()}
	e := &Ensemble{Config: "virsim", CampaignDir: "/tmp/c", Script: "virsim_FC", Machine: "eagle", Skip: 8, PilotJob: true}

	require.NoError(t, s.Run(context.Background(), e))
	assert.Equal(t, []call{{
		"run_uq_ensemble",
		"virsim,campaign_dir=/tmp/c,script=virsim_FC,skip=8,PilotJob=True",
		"eagle",
	}}, inv.calls)
}

func TestResubmit(t *testing.T) {
	inv := &fakeInvoker{}
	s := &Ensembles{Invoker: inv, Log: testLogger()}
	e := &Ensemble{Config: "virsim", Script: "virsim_FC", Machine: "eagle"}

	require.NoError(t, s.Resubmit(context.Background(), e))
	assert.Equal(t, call{"uq_ensemble", "virsim,script=virsim_FC,PilotJob=False", "eagle"}, inv.calls[0])

	s.ResubmitCommand = "my_ensemble"
	require.NoError(t, s.Resubmit(context.Background(), e))
	assert.Equal(t, "my_ensemble", inv.calls[1].Command)
}

func TestEnsembleCommandFailure(t *testing.T) {
	inv := &fakeInvoker{handler: func(c call) ([]byte, bool) { return nil, false }}
	s := &Ensembles{Invoker: inv, Log: testLogger()}
	e := &Ensemble{Config: "virsim", Machine: "eagle"}

	assert.ErrorIs(t, s.Run(context.Background(), e), ErrInvocationFailed)
	assert.ErrorIs(t, s.Resubmit(context.Background(), e), ErrInvocationFailed)
	assert.ErrorIs(t, s.FetchResults(context.Background(), "eagle"), ErrInvocationFailed)
	_, err := s.Status(context.Background(), "eagle")
	assert.ErrorIs(t, err, ErrInvocationFailed)
}

func TestStatus(t *testing.T) {
	inv := &fakeInvoker{handler: func(c call) ([]byte, bool) { return statusReport("1 RUNNING"), true }}
	s := &Ensembles{Invoker: inv, Log: testLogger()}

	out, err := s.Status(context.Background(), "eagle")
	require.NoError(t, err)
	assert.Contains(t, string(out), "1 RUNNING")
	assert.Equal(t, call{"stat", "", "eagle"}, inv.calls[0])
}

func makeRuns(t *testing.T, dir string, names ...string) {
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "runs", n), 0775))
	}
}

func TestGetSamplesPrunesStaleRuns(t *testing.T) {
	dir := t.TempDir()
	makeRuns(t, dir, "Run_1", "Run_2", "Run_3", "Run_4", "Run_10", "scratch")

	inv := &fakeInvoker{}
	s := &Ensembles{Invoker: inv, Log: testLogger()}
	e := &Ensemble{Config: "virsim", CampaignDir: dir, Machine: "eagle", Samples: 3}

	removed, err := s.GetSamples(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run_10", "Run_4"}, removed)
	assert.Equal(t, call{"get_uq_samples", "virsim,campaign_dir=" + dir + ",skip=0", "eagle"}, inv.calls[0])

	for _, keep := range []string{"Run_1", "Run_2", "Run_3", "scratch"} {
		assert.DirExists(t, filepath.Join(dir, "runs", keep))
	}
	assert.NoDirExists(t, filepath.Join(dir, "runs", "Run_4"))
	assert.NoDirExists(t, filepath.Join(dir, "runs", "Run_10"))
}

func TestGetSamplesFailedFetchKeepsRuns(t *testing.T) {
	dir := t.TempDir()
	makeRuns(t, dir, "Run_5")

	inv := &fakeInvoker{handler: func(c call) ([]byte, bool) { return nil, false }}
	s := &Ensembles{Invoker: inv, Log: testLogger()}

	_, err := s.GetSamples(context.Background(), &Ensemble{CampaignDir: dir, Samples: 1})
	assert.Error(t, err)
	assert.DirExists(t, filepath.Join(dir, "runs", "Run_5"))
}

func TestPruneRunsWithoutRunsDir(t *testing.T) {
	removed, err := PruneRuns(t.TempDir(), 0, testLogger())
	assert.NoError(t, err)
	assert.Empty(t, removed)
}
