package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *BoltJournal {
	conf := config.Journal{Path: filepath.Join(t.TempDir(), "nested", "fabuq.db")}
	j, err := NewBoltJournal(conf)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func stateFields() map[string]string {
	return map[string]string{
		"config":          "virsim",
		"campaign_dir":    "/tmp/campaign",
		"machine":         "eagle_vecma",
		"target_filename": "out.csv",
	}
}

func writeAll(t *testing.T, j *BoltJournal, evs ...*events.Event) {
	for _, ev := range evs {
		require.NoError(t, j.WriteEvent(context.Background(), ev))
	}
}

func TestJournalRecordsCycle(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	id := "cycle-1"

	writeAll(t, j,
		events.NewState(id, events.Waiting, stateFields()),
		events.NewPoll(id, "failed", 1),
		events.NewPoll(id, "idle", 1),
		events.NewState(id, events.Verifying, stateFields()),
		events.NewVerify(id, false, 1),
		events.NewState(id, events.Resubmitting, stateFields()),
		events.NewResubmit(id, 1, true),
		events.NewState(id, events.Waiting, stateFields()),
		events.NewPoll(id, "idle", 0),
		events.NewState(id, events.Verifying, stateFields()),
		events.NewVerify(id, true, 2),
		events.NewState(id, events.Complete, stateFields()),
	)

	c, err := j.GetCycle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, events.Complete, c.State)
	assert.Equal(t, "virsim", c.Config)
	assert.Equal(t, "/tmp/campaign", c.CampaignDir)
	assert.Equal(t, "eagle_vecma", c.Machine)
	assert.Equal(t, "out.csv", c.TargetFilename)
	assert.Equal(t, 1, c.PollFailures)
	assert.Equal(t, 1, c.Resubmissions)
	assert.False(t, c.Start.IsZero())
	require.NotNil(t, c.End)
	assert.False(t, c.End.IsZero())

	evs, err := j.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, evs, 12)
	assert.Equal(t, events.TypeState, evs[0].Type)
	assert.Equal(t, events.Waiting, evs[0].State)
	assert.Equal(t, events.TypeResubmit, evs[6].Type)
	assert.Equal(t, events.Complete, evs[11].State)
}

func TestJournalRunningCycleHasNoEnd(t *testing.T) {
	j := newTestJournal(t)
	writeAll(t, j, events.NewState("c", events.Waiting, stateFields()))

	c, err := j.GetCycle(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, events.Waiting, c.State)
	assert.Nil(t, c.End)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"end"`)
}

func TestJournalEventBeforeStateKeepsEventOnly(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	writeAll(t, j, events.NewSystemLog("orphan", "info", "hello", nil))

	_, err := j.GetCycle(ctx, "orphan")
	assert.Equal(t, ErrNotFound, err)

	evs, err := j.ListEvents(ctx, "orphan")
	require.NoError(t, err)
	assert.Len(t, evs, 1)
}

func TestJournalRejectsEventWithoutCycle(t *testing.T) {
	j := newTestJournal(t)
	err := j.WriteEvent(context.Background(), &events.Event{Type: events.TypeSystemLog})
	assert.Error(t, err)
}

func TestJournalUnknownCycle(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	_, err := j.GetCycle(ctx, "missing")
	assert.Equal(t, ErrNotFound, err)
	_, err = j.ListEvents(ctx, "missing")
	assert.Equal(t, ErrNotFound, err)
}

func TestListCyclesNewestFirst(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		writeAll(t, j, events.NewState(id, events.Waiting, stateFields()))
	}

	all, err := j.ListCycles(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	some, err := j.ListCycles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "b", some[1].ID)
}

func TestJournalReopen(t *testing.T) {
	conf := config.Journal{Path: filepath.Join(t.TempDir(), "fabuq.db")}
	j, err := NewBoltJournal(conf)
	require.NoError(t, err)
	writeAll(t, j, events.NewState("x", events.Failed, stateFields()))
	require.NoError(t, j.Close())

	j, err = NewBoltJournal(conf)
	require.NoError(t, err)
	defer j.Close()

	c, err := j.GetCycle(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, events.Failed, c.State)
	require.NotNil(t, c.End)
	assert.WithinDuration(t, time.Now(), *c.End, time.Minute)
}
