package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ohsu-comp-bio/fabuq/events"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveInvocation(t *testing.T) {
	before := testutil.ToFloat64(invocations.WithLabelValues("stat", "failed"))
	ObserveInvocation("stat", false)
	ObserveInvocation("stat", false)
	after := testutil.ToFloat64(invocations.WithLabelValues("stat", "failed"))
	assert.Equal(t, before+2, after)
}

func TestObservePollActiveJobs(t *testing.T) {
	ObservePoll("active", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeJobs))

	// a failed poll leaves the gauge alone
	ObservePoll("failed", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeJobs))

	ObservePoll("idle", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(activeJobs))
}

func TestEventWriter(t *testing.T) {
	ctx := context.Background()
	w := EventWriter{}

	failedBefore := testutil.ToFloat64(cycles.WithLabelValues("FAILED"))
	resubBefore := testutil.ToFloat64(resubmissions.WithLabelValues("submitted"))

	require.NoError(t, w.WriteEvent(ctx, events.NewState("c", events.Waiting, nil)))
	require.NoError(t, w.WriteEvent(ctx, events.NewResubmit("c", 1, true)))
	require.NoError(t, w.WriteEvent(ctx, events.NewState("c", events.Failed, nil)))

	assert.Equal(t, failedBefore+1, testutil.ToFloat64(cycles.WithLabelValues("FAILED")))
	assert.Equal(t, resubBefore+1, testutil.ToFloat64(resubmissions.WithLabelValues("submitted")))
}

func TestWriteTextfile(t *testing.T) {
	ObserveInvocation("fetch_results", true)

	p := filepath.Join(t.TempDir(), "textfile", "fabuq.prom")
	require.NoError(t, WriteTextfile(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `fabuq_commands_invocations_total{command="fetch_results",result="ok"}`)
}
