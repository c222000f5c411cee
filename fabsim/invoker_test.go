package fabsim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	name   string
	args   []string
	stdout []byte
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return f.stdout, []byte("some stderr"), f.err
}

func TestCommandLine(t *testing.T) {
	c := &CommandInvoker{Tool: `python3 "/opt/Fab Sim/fabsim.py"`}

	argv, err := c.CommandLine("verify_last_ensemble", "virsim,campaign_dir=/tmp", "localhost")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"python3", "/opt/Fab Sim/fabsim.py", "localhost", "verify_last_ensemble:virsim,campaign_dir=/tmp",
	}, argv)

	argv, err = c.CommandLine("stat", "", "eagle")
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "/opt/Fab Sim/fabsim.py", "eagle", "stat"}, argv)
}

func TestCommandLineInvalidTool(t *testing.T) {
	_, err := (&CommandInvoker{Tool: `fabsim "unterminated`}).CommandLine("stat", "", "m")
	assert.Error(t, err)
	_, err = (&CommandInvoker{Tool: "  "}).CommandLine("stat", "", "m")
	assert.Error(t, err)
}

func TestInvokeSuccess(t *testing.T) {
	r := &fakeRunner{stdout: []byte("hello")}
	c := &CommandInvoker{Tool: "fabsim", Runner: r, Log: testLogger()}

	out, ok := c.Invoke(context.Background(), "fetch_results", "", "eagle")
	assert.True(t, ok)
	assert.Equal(t, "hello", string(out))
	assert.Equal(t, "fabsim", r.name)
	assert.Equal(t, []string{"eagle", "fetch_results"}, r.args)
}

func TestInvokeFailureIsDowngraded(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1")}
	c := &CommandInvoker{Tool: "fabsim", Runner: r, Log: testLogger()}

	_, ok := c.Invoke(context.Background(), "stat", "", "eagle")
	assert.False(t, ok)
}

func TestInvokeInvalidToolIsDowngraded(t *testing.T) {
	c := &CommandInvoker{Tool: `"`, Runner: &fakeRunner{}, Log: testLogger()}
	assert.NotPanics(t, func() {
		_, ok := c.Invoke(context.Background(), "stat", "", "eagle")
		assert.False(t, ok)
	})
}

func TestExecRunner(t *testing.T) {
	c := NewCommandInvoker(`sh -c 'echo "$0 $1"'`, testLogger())

	out, ok := c.Invoke(context.Background(), "stat", "", "localhost")
	require.True(t, ok)
	assert.Equal(t, "localhost stat\n", string(out))

	c = NewCommandInvoker(`sh -c 'echo oops >&2; exit 3'`, testLogger())
	_, ok = c.Invoke(context.Background(), "stat", "", "localhost")
	assert.False(t, ok)

	c = NewCommandInvoker("/nonexistent/fabsim-binary", testLogger())
	_, ok = c.Invoke(context.Background(), "stat", "", "localhost")
	assert.False(t, ok)
}
