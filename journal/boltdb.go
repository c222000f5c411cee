// Package journal persists verify cycles and their events in BoltDB so
// that past cycles can be inspected after the process exits.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/events"
	"github.com/ohsu-comp-bio/fabuq/util/fsutil"
)

// CycleBucket maps: cycle ID -> Cycle JSON
var CycleBucket = []byte("cycles")

// EventBucket holds one nested bucket per cycle ID, which maps
// sequence number -> Event JSON
var EventBucket = []byte("cycle-events")

// ErrNotFound is returned when a cycle does not exist in the journal.
var ErrNotFound = errors.New("cycle not found")

// Cycle summarizes one verify cycle.
type Cycle struct {
	ID             string       `json:"id"`
	Config         string       `json:"config"`
	CampaignDir    string       `json:"campaign_dir"`
	Machine        string       `json:"machine"`
	TargetFilename string       `json:"target_filename"`
	State          events.State `json:"state"`
	PollFailures   int          `json:"poll_failures"`
	Resubmissions  int          `json:"resubmissions"`
	Start          time.Time    `json:"start"`
	End            *time.Time   `json:"end,omitempty"`
}

// BoltJournal records cycle events in a BoltDB file.
type BoltJournal struct {
	db *bolt.DB
}

// NewBoltJournal opens (creating if needed) the journal database at the
// configured path and creates the required buckets.
func NewBoltJournal(conf config.Journal) (*BoltJournal, error) {
	err := fsutil.EnsurePath(conf.Path)
	if err != nil {
		return nil, err
	}
	db, err := bolt.Open(conf.Path, 0600, &bolt.Options{
		Timeout: time.Second * 5,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", conf.Path, err)
	}
	j := &BoltJournal{db: db}
	if err := j.init(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *BoltJournal) init() error {
	return j.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{CycleBucket, EventBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (j *BoltJournal) Close() error {
	return j.db.Close()
}

// WriteEvent appends ev to the events of its cycle and updates the cycle
// summary.
func (j *BoltJournal) WriteEvent(ctx context.Context, ev *events.Event) error {
	if ev.CycleID == "" {
		return fmt.Errorf("event has no cycle ID")
	}
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		id := []byte(ev.CycleID)
		eb, err := tx.Bucket(EventBucket).CreateBucketIfNotExists(id)
		if err != nil {
			return err
		}
		seq, err := eb.NextSequence()
		if err != nil {
			return err
		}
		if err := eb.Put(seqKey(seq), evBytes); err != nil {
			return err
		}

		cycle, err := getCycle(tx, ev.CycleID)
		if err == ErrNotFound {
			if ev.Type != events.TypeState {
				// summaries are created by the first state transition
				return nil
			}
			cycle = &Cycle{ID: ev.CycleID, Start: ev.Timestamp}
		} else if err != nil {
			return err
		}

		applyEvent(cycle, ev)
		return putCycle(tx, cycle)
	})
}

func applyEvent(c *Cycle, ev *events.Event) {
	switch ev.Type {
	case events.TypeState:
		c.State = ev.State
		if v, ok := ev.Fields["config"]; ok {
			c.Config = v
		}
		if v, ok := ev.Fields["campaign_dir"]; ok {
			c.CampaignDir = v
		}
		if v, ok := ev.Fields["machine"]; ok {
			c.Machine = v
		}
		if v, ok := ev.Fields["target_filename"]; ok {
			c.TargetFilename = v
		}
		if ev.State.Terminal() {
			end := ev.Timestamp
			c.End = &end
		}

	case events.TypePoll:
		if ev.Fields["result"] == "failed" {
			c.PollFailures++
		}

	case events.TypeResubmit:
		c.Resubmissions = ev.Attempt
	}
}

// GetCycle returns the summary of the cycle with the given ID.
func (j *BoltJournal) GetCycle(ctx context.Context, id string) (*Cycle, error) {
	var cycle *Cycle
	err := j.db.View(func(tx *bolt.Tx) error {
		var err error
		cycle, err = getCycle(tx, id)
		return err
	})
	return cycle, err
}

// ListCycles returns up to limit cycle summaries, most recent first.
// A limit <= 0 returns every cycle.
func (j *BoltJournal) ListCycles(ctx context.Context, limit int) ([]*Cycle, error) {
	var cycles []*Cycle
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(CycleBucket).Cursor()
		// Cycle IDs sort by creation time, so the newest is last.
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(cycles) >= limit {
				break
			}
			cycle := &Cycle{}
			if err := json.Unmarshal(v, cycle); err != nil {
				return fmt.Errorf("decoding cycle %s: %w", k, err)
			}
			cycles = append(cycles, cycle)
		}
		return nil
	})
	return cycles, err
}

// ListEvents returns the events of a cycle in the order they were written.
func (j *BoltJournal) ListEvents(ctx context.Context, id string) ([]*events.Event, error) {
	var evs []*events.Event
	err := j.db.View(func(tx *bolt.Tx) error {
		eb := tx.Bucket(EventBucket).Bucket([]byte(id))
		if eb == nil {
			return ErrNotFound
		}
		return eb.ForEach(func(k, v []byte) error {
			ev := &events.Event{}
			if err := json.Unmarshal(v, ev); err != nil {
				return err
			}
			evs = append(evs, ev)
			return nil
		})
	})
	return evs, err
}

func getCycle(tx *bolt.Tx, id string) (*Cycle, error) {
	b := tx.Bucket(CycleBucket).Get([]byte(id))
	if b == nil {
		return nil, ErrNotFound
	}
	cycle := &Cycle{}
	if err := json.Unmarshal(b, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

func putCycle(tx *bolt.Tx, c *Cycle) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return tx.Bucket(CycleBucket).Put([]byte(c.ID), b)
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
