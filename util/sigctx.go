package util

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// SignalContext returns a context which is canceled when any of the given
// signals is received, after waiting for delay. The returned stop function
// releases the signal handler and must be called once the context is no
// longer needed.
func SignalContext(ctx context.Context, delay time.Duration, sigs ...os.Signal) (context.Context, func()) {
	sch := make(chan os.Signal, 1)
	sub, cancel := context.WithCancel(ctx)
	signal.Notify(sch, sigs...)

	go func() {
		select {
		case <-sub.Done():
		case <-sch:
			time.Sleep(delay)
			cancel()
		}
	}()

	return sub, func() {
		signal.Stop(sch)
		cancel()
	}
}
