package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnsembleConfig(t *testing.T) {
	yaml := `
Tool: python3 /opt/fabsim.py
Machine: eagle_vecma
Poll:
  Interval: 30s
Retry:
  MaxResubmissions: 4
Ensemble:
  Config: virsim
  CampaignDir: /tmp/campaign
  TargetFilename: output=1.csv
  Script: virsim_FC
  PilotJob: true
  Samples: 128
`
	conf := DefaultConfig()
	err := Parse([]byte(yaml), &conf)
	require.NoError(t, err)

	assert.Equal(t, "python3 /opt/fabsim.py", conf.Tool)
	assert.Equal(t, "eagle_vecma", conf.Machine)
	assert.Equal(t, Duration(30*time.Second), conf.Poll.Interval)
	// untouched fields keep their defaults
	assert.Equal(t, 2, conf.Poll.HeaderLines)
	assert.Equal(t, 10, conf.Retry.MaxPollRetries)
	assert.Equal(t, 4, conf.Retry.MaxResubmissions)

	expected := Ensemble{
		Config:         "virsim",
		CampaignDir:    "/tmp/campaign",
		TargetFilename: "output=1.csv",
		Script:         "virsim_FC",
		PilotJob:       true,
		Samples:        128,
	}
	if diff := deep.Equal(conf.Ensemble, expected); diff != nil {
		t.Error(diff)
	}
}

func TestParseInvalidDuration(t *testing.T) {
	conf := DefaultConfig()
	err := Parse([]byte("Poll:\n  Interval: soon\n"), &conf)
	assert.Error(t, err)
}

func TestYamlRoundTrip(t *testing.T) {
	conf := DefaultConfig()
	conf.Ensemble.Config = "ocean_2D"
	conf.Poll.Interval = Duration(90 * time.Second)

	p := filepath.Join(t.TempDir(), "fabuq.yaml")
	require.NoError(t, ToYamlFile(conf, p))

	parsed := Config{}
	require.NoError(t, ParseFile(p, &parsed))
	if diff := deep.Equal(parsed, conf); diff != nil {
		t.Error(diff)
	}
}

func TestParseFileMissing(t *testing.T) {
	conf := DefaultConfig()
	assert.NoError(t, ParseFile("", &conf))
	assert.Error(t, ParseFile(filepath.Join(t.TempDir(), "nope.yaml"), &conf))
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	conf := DefaultConfig()
	conf.Tool = " "
	conf.Retry.MaxPollRetries = -1
	conf.Retry.MaxFetchRetries = 0

	err := conf.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 3)
}

func TestValidateEnsemble(t *testing.T) {
	e := Ensemble{}
	err := e.ValidateEnsemble()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ensemble.Config")
	assert.Contains(t, err.Error(), "Ensemble.CampaignDir")
	assert.Contains(t, err.Error(), "Ensemble.TargetFilename")

	e = Ensemble{Config: "c", CampaignDir: "/d", TargetFilename: "out.csv"}
	assert.NoError(t, e.ValidateEnsemble())
}

func TestDurationFlagValue(t *testing.T) {
	var d Duration
	require.NoError(t, d.Set("2m"))
	assert.Equal(t, "2m0s", d.String())
	assert.Equal(t, "duration", d.Type())
	assert.Error(t, d.Set("two minutes"))
}

func TestParseExpandsPaths(t *testing.T) {
	t.Setenv("FABUQ_TEST_CAMPAIGN", "/scratch/uq")

	conf := DefaultConfig()
	yaml := `
Ensemble:
  CampaignDir: ${FABUQ_TEST_CAMPAIGN}/virsim
Journal:
  Path: $FABUQ_TEST_CAMPAIGN/fabuq.db
`
	require.NoError(t, Parse([]byte(yaml), &conf))
	assert.Equal(t, "/scratch/uq/virsim", conf.Ensemble.CampaignDir)
	assert.Equal(t, "/scratch/uq/fabuq.db", conf.Journal.Path)
}
