package verify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ohsu-comp-bio/fabuq/cmd/util"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentPreRun(t *testing.T) {
	fileConf := config.DefaultConfig()
	fileConf.Ensemble.Config = "virsim"
	fileConf.Ensemble.CampaignDir = "/tmp/campaign"
	fileConf.Ensemble.TargetFilename = "output.csv"
	tmp, err := util.WriteConfigFile(fileConf, t.TempDir())
	require.NoError(t, err)

	c, h := newCommandHooks()
	called := false
	h.Run = func(ctx context.Context, conf config.Config, out io.Writer) error {
		called = true
		assert.Equal(t, "eagle_vecma", conf.Machine)
		assert.Equal(t, 4, conf.Retry.MaxResubmissions)
		assert.Equal(t, config.Duration(10*time.Second), conf.Poll.Interval)
		assert.Equal(t, "virsim", conf.Ensemble.Config)
		return nil
	}

	c.SetArgs([]string{"--config", tmp, "--machine", "eagle_vecma", "--retry.maxresubmissions", "4", "--poll-interval", "10s"})
	require.NoError(t, c.Execute())
	assert.True(t, called)
}

func TestEnsembleRequired(t *testing.T) {
	c, h := newCommandHooks()
	h.Run = func(ctx context.Context, conf config.Config, out io.Writer) error {
		t.Fatal("run should not be called")
		return nil
	}
	c.SilenceErrors = true
	c.SilenceUsage = true
	c.SetArgs([]string{"--ensemble.config", "virsim"})

	err := c.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ensemble.CampaignDir")
}
