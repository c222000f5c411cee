package fabsim

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/armon/circbuf"
	"github.com/kballard/go-shellquote"
	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/metrics"
)

// stderrTail is the number of trailing stderr bytes kept for logging.
const stderrTail = 4096

// Runner runs a process and returns its stdout. A non-nil error means the
// process could not be started or exited with a non-zero status.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run implements Runner. Only the last few KB of stderr are kept.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout bytes.Buffer
	stderr, err := circbuf.NewBuffer(stderrTail)
	if err != nil {
		return nil, nil, err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	err = cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Invoker issues commands to the remote execution tool. It never returns an
// error: every failure is reported as ok=false so callers apply their own
// retry policy.
type Invoker interface {
	Invoke(ctx context.Context, command, arguments, machine string) (stdout []byte, ok bool)
}

// CommandInvoker runs "<tool> <machine> <command>:<arguments>".
type CommandInvoker struct {
	// Tool is split with shell quoting rules, so it may carry its own
	// arguments, e.g. "python3 fabsim.py".
	Tool   string
	Runner Runner
	Log    *logger.Logger
}

// NewCommandInvoker returns an invoker running tool through os/exec.
func NewCommandInvoker(tool string, log *logger.Logger) *CommandInvoker {
	return &CommandInvoker{Tool: tool, Runner: ExecRunner{}, Log: log}
}

// CommandLine returns the argv for the given command.
func (c *CommandInvoker) CommandLine(command, arguments, machine string) ([]string, error) {
	tool, err := shellquote.Split(c.Tool)
	if err != nil {
		return nil, fmt.Errorf("parsing tool command %q: %w", c.Tool, err)
	}
	if len(tool) == 0 {
		return nil, fmt.Errorf("tool command is empty")
	}
	task := command
	if arguments != "" {
		task = command + ":" + arguments
	}
	return append(tool, machine, task), nil
}

// Invoke implements Invoker.
func (c *CommandInvoker) Invoke(ctx context.Context, command, arguments, machine string) ([]byte, bool) {
	argv, err := c.CommandLine(command, arguments, machine)
	if err != nil {
		c.Log.Error("Invalid command", "command", command, "error", err)
		metrics.ObserveInvocation(command, false)
		return nil, false
	}

	quoted := shellquote.Join(argv...)
	c.Log.Info("Executing", "cmd", quoted)

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		c.Log.Error("Command failed",
			"cmd", quoted,
			"error", err,
			"stderr", string(stderr),
		)
		metrics.ObserveInvocation(command, false)
		return stdout, false
	}
	metrics.ObserveInvocation(command, true)
	return stdout, true
}
