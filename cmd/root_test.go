package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, n := range []string{"verify", "wait", "status", "fetch", "ensemble", "history", "version", "completion", "config"} {
		assert.True(t, names[n], "missing command %s", n)
	}
}

func TestVersionCommand(t *testing.T) {
	var b bytes.Buffer
	RootCmd.SetOut(&b)
	defer RootCmd.SetOut(nil)
	RootCmd.SetArgs([]string{"version"})
	require.NoError(t, RootCmd.Execute())
	assert.Contains(t, b.String(), "version: ")
}

func TestGenMarkdown(t *testing.T) {
	dir := t.TempDir()
	RootCmd.SetArgs([]string{"genmarkdown", "--dir", dir})
	require.NoError(t, RootCmd.Execute())

	_, err := os.Stat(filepath.Join(dir, "fabuq_verify.md"))
	assert.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	var b bytes.Buffer
	RootCmd.SetOut(&b)
	defer RootCmd.SetOut(nil)
	RootCmd.SetArgs([]string{"config", "--machine", "eagle_vecma", "--retry-maxresubmissions", "5"})
	require.NoError(t, RootCmd.Execute())

	out := b.String()
	assert.Contains(t, out, "Machine: eagle_vecma")
	assert.Contains(t, out, "MaxResubmissions: 5")
	assert.Contains(t, out, "Interval: 1m0s")
}
