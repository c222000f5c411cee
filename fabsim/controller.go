package fabsim

import (
	"context"
	"time"

	"github.com/ohsu-comp-bio/fabuq/events"
	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/util"
)

// IdleWaiter blocks until a machine has no active jobs.
type IdleWaiter interface {
	PollUntilIdle(ctx context.Context, machine string) (PollResult, error)
}

// EnsembleVerifier checks the outputs of the last ensemble.
type EnsembleVerifier interface {
	VerifyEnsemble(ctx context.Context, e *Ensemble) (VerificationResult, error)
}

// Resubmitter runs the last ensemble again.
type Resubmitter interface {
	Resubmit(ctx context.Context, e *Ensemble) error
}

// RetryBudget bounds a verify cycle.
type RetryBudget struct {
	// MaxPollRetries is the number of times a failed status poll is retried
	// before the cycle aborts.
	MaxPollRetries int
	// MaxResubmissions is the number of times an incomplete ensemble is
	// resubmitted before the cycle aborts.
	MaxResubmissions int
}

// DefaultRetryBudget returns the default bounds.
func DefaultRetryBudget() RetryBudget {
	return RetryBudget{MaxPollRetries: 10, MaxResubmissions: 2}
}

// Outcome summarizes a finished verify cycle.
type Outcome struct {
	CycleID string
	State   events.State
	// PollRetries is the total number of failed polls that were retried.
	PollRetries   int
	Resubmissions int
	Duration      time.Duration
}

// Success returns true if the ensemble was verified complete.
func (o *Outcome) Success() bool {
	return o.State == events.Complete
}

// Controller drives the wait, verify and resubmit cycle of an ensemble.
//
//	WAITING -> VERIFYING -> COMPLETE
//	                     -> RESUBMITTING -> WAITING
//	                     -> FAILED
type Controller struct {
	Waiter      IdleWaiter
	Verifier    EnsembleVerifier
	Resubmitter Resubmitter
	Budget      RetryBudget
	Event       events.Writer
	Log         *logger.Logger
}

// cycle holds the mutable counters of one Verify call.
type cycle struct {
	id    string
	state events.State
	// failed polls over every wait of the cycle
	polls         *PollBudget
	resubmissions int
	verifications int
}

// Verify waits for the jobs of e to finish and checks its outputs,
// resubmitting the ensemble while outputs are missing and the budget
// allows. Exhausting either bound returns a *FatalError together with the
// outcome. Other errors (a malformed flag file, a canceled context) are
// returned as is.
func (c *Controller) Verify(ctx context.Context, e *Ensemble) (*Outcome, error) {
	start := time.Now()
	cy := &cycle{
		id:    util.GenCycleID(),
		polls: &PollBudget{MaxRetries: c.Budget.MaxPollRetries},
	}
	log := c.Log.WithFields("cycleID", cy.id, "config", e.Config, "machine", e.Machine)

	outcome := func() *Outcome {
		return &Outcome{
			CycleID:       cy.id,
			State:         cy.state,
			PollRetries:   cy.polls.Retries,
			Resubmissions: cy.resubmissions,
			Duration:      time.Since(start),
		}
	}

	c.transition(ctx, cy, e, events.Waiting)
	for {
		switch cy.state {
		case events.Waiting:
			err := c.wait(ctx, cy, e, log)
			if err != nil {
				c.fail(ctx, cy, e, err)
				return outcome(), err
			}
			c.transition(ctx, cy, e, events.Verifying)

		case events.Verifying:
			cy.verifications++
			res, err := c.Verifier.VerifyEnsemble(ctx, e)
			if err != nil {
				log.Error("Verification failed", "error", err)
				c.fail(ctx, cy, e, err)
				return outcome(), err
			}
			c.write(ctx, events.NewVerify(cy.id, res.AllPresent, cy.verifications))

			switch {
			case res.AllPresent:
				c.transition(ctx, cy, e, events.Complete)
			case cy.resubmissions < c.Budget.MaxResubmissions:
				c.transition(ctx, cy, e, events.Resubmitting)
			default:
				log.Error("Unsuccessful ensemble after resubmitting", "resubmissions", cy.resubmissions)
				err := &FatalError{Op: "resubmit", Attempts: cy.resubmissions, Err: ErrResubmitExhausted}
				c.fail(ctx, cy, e, err)
				return outcome(), err
			}

		case events.Resubmitting:
			cy.resubmissions++
			err := c.Resubmitter.Resubmit(ctx, e)
			if err != nil {
				// Counted anyway: the next verification shows whether the
				// runs exist, and the bound must hold.
				log.Error("Resubmission failed", "attempt", cy.resubmissions, "error", err)
			} else {
				log.Info("Resubmitted ensemble", "attempt", cy.resubmissions)
			}
			c.write(ctx, events.NewResubmit(cy.id, cy.resubmissions, err == nil))
			if ctx.Err() != nil {
				c.fail(ctx, cy, e, ctx.Err())
				return outcome(), ctx.Err()
			}
			c.transition(ctx, cy, e, events.Waiting)

		case events.Complete:
			log.Info("Ensemble complete",
				"resubmissions", cy.resubmissions,
				"poll_retries", cy.polls.Retries,
			)
			return outcome(), nil
		}
	}
}

// wait polls until the machine is idle. Failed polls are charged to the
// budget of the whole cycle, not just this wait.
func (c *Controller) wait(ctx context.Context, cy *cycle, e *Ensemble, log *logger.Logger) error {
	return cy.polls.WaitIdle(ctx, c.Waiter, e.Machine, log, func(res PollResult) {
		c.write(ctx, events.NewPoll(cy.id, res.String(), cy.polls.Failures))
	})
}

func (c *Controller) transition(ctx context.Context, cy *cycle, e *Ensemble, s events.State) {
	cy.state = s
	fields := e.Fields()
	fields["target_filename"] = e.TargetFilename
	c.write(ctx, events.NewState(cy.id, s, fields))
}

func (c *Controller) fail(ctx context.Context, cy *cycle, e *Ensemble, err error) {
	c.write(ctx, events.NewSystemLog(cy.id, "error", "cycle failed", map[string]string{"error": err.Error()}))
	c.transition(context.WithoutCancel(ctx), cy, e, events.Failed)
}

// write publishes an event. Event writers are auxiliary: their failures
// are logged and never abort the cycle.
func (c *Controller) write(ctx context.Context, ev *events.Event) {
	if c.Event == nil {
		return
	}
	if err := c.Event.WriteEvent(context.WithoutCancel(ctx), ev); err != nil {
		c.Log.Error("Writing event", "error", err, "event_type", string(ev.Type))
	}
}
