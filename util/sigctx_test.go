package util

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalContextCanceledBySignal(t *testing.T) {
	ctx, stop := SignalContext(context.Background(), 0, syscall.SIGUSR1)
	defer stop()

	syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not canceled by the signal")
	}
}

func TestSignalContextStop(t *testing.T) {
	ctx, stop := SignalContext(context.Background(), 0, syscall.SIGUSR2)
	assert.NoError(t, ctx.Err())
	stop()
	assert.Error(t, ctx.Err())
}

func TestGenCycleIDUnique(t *testing.T) {
	a, b := GenCycleID(), GenCycleID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 20)
	// xid ids sort by creation time
	assert.True(t, a < b)
}
