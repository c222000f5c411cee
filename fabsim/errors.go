package fabsim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvocationFailed is returned when a remote command could not be
	// launched or exited with an error.
	ErrInvocationFailed = errors.New("remote command failed")
	// ErrPollExhausted means the status query kept failing.
	ErrPollExhausted = errors.New("status polling failed too many times")
	// ErrResubmitExhausted means the ensemble was still incomplete after
	// the maximum number of resubmissions.
	ErrResubmitExhausted = errors.New("ensemble incomplete after the maximum number of resubmissions")
	// ErrFetchExhausted means results could not be fetched.
	ErrFetchExhausted = errors.New("fetching results failed too many times")
	// ErrVerifyExhausted means the verification command kept failing.
	ErrVerifyExhausted = errors.New("verification command failed too many times")
	// ErrMalformedFlagFile means the verification flag file is missing or
	// does not hold 0 or 1.
	ErrMalformedFlagFile = errors.New("malformed verification flag file")
)

// FatalError marks a failure the pipeline cannot recover from: a retry
// bound was exhausted. Callers should stop the whole pipeline.
type FatalError struct {
	// Op names the step that gave up, e.g. "wait" or "resubmit".
	Op string
	// Attempts is the number of attempts made before giving up.
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v (after %d attempts)", e.Op, e.Err, e.Attempts)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
