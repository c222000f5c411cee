// Package util contains helpers shared by the fabuq packages.
package util

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
)

// Retrier retries an operation with exponential backoff, for at most
// MaxTries attempts.
type Retrier struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	// MaxTries is the total number of attempts, including the first one.
	// Values below 1 mean a single attempt.
	MaxTries int
	// Notify is called before every retry with the error of the failed
	// attempt and the time until the next one.
	Notify func(err error, wait time.Duration)
}

// NewRetrier creates a new Retrier instance using default values.
func NewRetrier() *Retrier {
	return &Retrier{
		InitialInterval:     time.Millisecond * 500,
		MaxInterval:         time.Second * 60,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
		MaxTries:            10,
	}
}

// Retry calls f until it returns nil, the attempts are used up or ctx is
// done. It returns the number of attempts made and the last error of f.
func (r *Retrier) Retry(ctx context.Context, f func() error) (int, error) {
	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		return f()
	}, r.policy(ctx), r.notify)
	return attempts, err
}

func (r *Retrier) notify(err error, d time.Duration) {
	if r.Notify != nil {
		r.Notify(err, d)
	}
}

func (r *Retrier) policy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.InitialInterval
	eb.MaxInterval = r.MaxInterval
	eb.Multiplier = r.Multiplier
	eb.RandomizationFactor = r.RandomizationFactor
	// attempts are bounded by MaxTries only
	eb.MaxElapsedTime = 0
	eb.Reset()

	retries := r.MaxTries - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
