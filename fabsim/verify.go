package fabsim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/util"
)

// DefaultFlagFile is the file the verification command writes its result to.
const DefaultFlagFile = "check.dat"

// VerificationResult is the outcome of one verification attempt.
type VerificationResult struct {
	// AllPresent is true if every run of the last ensemble produced its
	// target file.
	AllPresent bool
}

// Verifier checks whether the last ensemble produced all of its outputs.
type Verifier struct {
	Invoker Invoker
	// VerifyMachine runs the verification command. Results are fetched
	// first, so this is normally "localhost".
	VerifyMachine string
	FlagFile      string
	// Retrier bounds the fetch and verification invocations.
	Retrier *util.Retrier
	Log     *logger.Logger
}

// NewVerifier returns a Verifier making at most maxTries attempts for
// each invocation, backing off from interval up to maxInterval.
func NewVerifier(inv Invoker, maxTries int, interval, maxInterval time.Duration, log *logger.Logger) *Verifier {
	r := util.NewRetrier()
	r.MaxTries = maxTries
	r.InitialInterval = interval
	r.MaxInterval = maxInterval
	return &Verifier{
		Invoker:       inv,
		VerifyMachine: "localhost",
		FlagFile:      DefaultFlagFile,
		Retrier:       r,
		Log:           log,
	}
}

// FetchResults copies the results of machine into the local results
// directory. Failures are reported as false, never as a panic or error.
func (v *Verifier) FetchResults(ctx context.Context, machine string) bool {
	_, ok := v.Invoker.Invoke(ctx, "fetch_results", "", machine)
	return ok
}

// VerifyEnsemble fetches the results of e and asks the verification
// command whether every run produced e.TargetFilename. The answer is read
// from the flag file in e.CampaignDir.
func (v *Verifier) VerifyEnsemble(ctx context.Context, e *Ensemble) (VerificationResult, error) {
	err := v.retry(ctx, "fetch_results", ErrFetchExhausted, func() bool {
		return v.FetchResults(ctx, e.Machine)
	})
	if err != nil {
		return VerificationResult{}, err
	}

	flagPath := filepath.Join(e.CampaignDir, v.flagFile())
	// A flag left by an earlier cycle must not be mistaken for this one.
	if err := os.Remove(flagPath); err != nil && !os.IsNotExist(err) {
		return VerificationResult{}, fmt.Errorf("removing stale flag file: %w", err)
	}

	args := NewArgs(e.Config).
		Set("campaign_dir", e.CampaignDir).
		Set("target_filename", EscapeFilename(e.TargetFilename))
	machine := v.VerifyMachine
	if machine == "" {
		machine = "localhost"
	}
	err = v.retry(ctx, "verify_last_ensemble", ErrVerifyExhausted, func() bool {
		_, ok := v.Invoker.Invoke(ctx, "verify_last_ensemble", args.String(), machine)
		return ok
	})
	if err != nil {
		return VerificationResult{}, err
	}

	allPresent, err := ReadFlagFile(flagPath)
	if err != nil {
		return VerificationResult{}, err
	}
	v.Log.Info("Verified last ensemble",
		"config", e.Config,
		"target_filename", e.TargetFilename,
		"all_present", allPresent,
	)
	return VerificationResult{AllPresent: allPresent}, nil
}

func (v *Verifier) flagFile() string {
	if v.FlagFile == "" {
		return DefaultFlagFile
	}
	return v.FlagFile
}

// retry calls f until it succeeds or the retrier gives up. Exhaustion is
// reported as a FatalError wrapping exhausted.
func (v *Verifier) retry(ctx context.Context, op string, exhausted error, f func() bool) error {
	r := v.Retrier
	if r == nil {
		r = util.NewRetrier()
	}
	r.Notify = func(err error, d time.Duration) {
		v.Log.Warn("Retrying", "op", op, "wait", d.String())
	}
	attempts, err := r.Retry(ctx, func() error {
		if f() {
			return nil
		}
		return ErrInvocationFailed
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	v.Log.Error("Giving up", "op", op, "attempts", attempts)
	return &FatalError{Op: op, Attempts: attempts, Err: exhausted}
}

// ReadFlagFile reads the verification flag: "1" means every output is
// present, "0" means some are missing. Anything else is an error wrapping
// ErrMalformedFlagFile.
func ReadFlagFile(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedFlagFile, err)
	}
	raw := strings.TrimSpace(string(b))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %q is not an integer", ErrMalformedFlagFile, path, raw)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: %s: unexpected value %d", ErrMalformedFlagFile, path, n)
}
