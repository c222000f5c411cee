package fabsim

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/metrics"
)

// DefaultHeaderLines is the number of header lines printed by "stat"
// before the job rows.
const DefaultHeaderLines = 2

// Job is one active row of a status report.
type Job struct {
	ID    string
	State string
}

// StatusReport is the parsed output of one "stat" invocation.
type StatusReport struct {
	Jobs []Job
}

// ActiveCount returns the number of active jobs in the report.
func (r *StatusReport) ActiveCount() int {
	return len(r.Jobs)
}

// Idle returns true if no jobs are active.
func (r *StatusReport) Idle() bool {
	return r.ActiveCount() == 0
}

// ParseStatus parses a status listing. The first headerLines lines are
// skipped. A row whose first field is numeric is an active job. An empty
// line seen before any active job ends the listing.
//
// Rows that are not empty and do not start with a numeric job ID, such as
// separators or array job IDs like "123_4", are skipped. This tolerates
// variations of the report layout, at the cost of not counting jobs whose
// IDs are not plain numbers.
func ParseStatus(out []byte, headerLines int) *StatusReport {
	report := &StatusReport{}

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if line <= headerLines {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			if report.ActiveCount() == 0 {
				break
			}
			continue
		}
		if !isNumeric(fields[0]) {
			continue
		}
		job := Job{ID: fields[0]}
		if len(fields) > 1 {
			job.State = fields[1]
		}
		report.Jobs = append(report.Jobs, job)
	}
	return report
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// PollResult is the outcome of PollUntilIdle.
type PollResult int

// Poll results.
const (
	// Idle means no jobs remain active on the machine.
	Idle PollResult = iota
	// PollFailed means the status query itself could not be run.
	PollFailed
)

func (r PollResult) String() string {
	switch r {
	case Idle:
		return "idle"
	case PollFailed:
		return "failed"
	}
	return "unknown"
}

// Poller queries the job status on a machine until no jobs are active.
type Poller struct {
	Invoker     Invoker
	Interval    time.Duration
	HeaderLines int
	Log         *logger.Logger
	// Sleep waits between polls. It defaults to a timer which stops early
	// when ctx is canceled.
	Sleep func(ctx context.Context, d time.Duration) error
}

// PollUntilIdle blocks until the status report of machine shows no active
// jobs. A failed status query returns PollFailed right away; retrying is up
// to the caller. The error is non-nil only if ctx ends while sleeping.
func (p *Poller) PollUntilIdle(ctx context.Context, machine string) (PollResult, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for {
		out, ok := p.Invoker.Invoke(ctx, "stat", "", machine)
		if !ok {
			p.Log.Warn("Status query failed", "machine", machine)
			metrics.ObservePoll(PollFailed.String(), 0)
			return PollFailed, nil
		}

		report := ParseStatus(out, p.HeaderLines)
		if report.Idle() {
			metrics.ObservePoll(Idle.String(), 0)
			p.Log.Info("All runs have completed", "machine", machine)
			return Idle, nil
		}
		metrics.ObservePoll("active", report.ActiveCount())

		for _, j := range report.Jobs {
			p.Log.Debug("Job active", "jobID", j.ID, "state", j.State)
		}
		p.Log.Info("Jobs still active",
			"machine", machine,
			"active", report.ActiveCount(),
			"next_check", p.Interval.String(),
		)
		if err := sleep(ctx, p.Interval); err != nil {
			return PollFailed, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollBudget bounds the failed status polls of a verify cycle. Failures
// accumulate over every wait that uses the budget.
type PollBudget struct {
	// MaxRetries is the number of failed polls that may be retried.
	MaxRetries int
	// Failures counts every failed poll.
	Failures int
	// Retries counts the failed polls that were retried.
	Retries int
}

// WaitIdle polls machine through w until it is idle, retrying failed polls
// while the budget allows. Failure number MaxRetries+1 returns a
// *FatalError wrapping ErrPollExhausted. A canceled ctx is returned as is,
// even when it caused the failed poll. observe, if set, sees every result.
func (b *PollBudget) WaitIdle(ctx context.Context, w IdleWaiter, machine string, log *logger.Logger, observe func(PollResult)) error {
	for {
		res, err := w.PollUntilIdle(ctx, machine)
		if err != nil {
			return err
		}
		if res != Idle {
			b.Failures++
		}
		if observe != nil {
			observe(res)
		}
		if res == Idle {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if b.Failures > b.MaxRetries {
			log.Error("Wait failed too many times, exiting", "attempts", b.Failures)
			return &FatalError{Op: "wait", Attempts: b.Failures, Err: ErrPollExhausted}
		}
		b.Retries++
		log.Warn("Wait failed, executing again", "attempt", b.Failures)
	}
}
