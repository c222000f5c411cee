// Package events contains the events emitted by a verify cycle and the
// writers that consume them.
package events

import (
	"time"
)

// Type identifies the kind of an event.
type Type string

// Event types.
const (
	// TypeState records a transition of the cycle state machine.
	TypeState Type = "STATE"
	// TypePoll records the result of one status poll.
	TypePoll Type = "POLL"
	// TypeVerify records the result of one verification attempt.
	TypeVerify Type = "VERIFY"
	// TypeResubmit records a resubmission of the ensemble.
	TypeResubmit Type = "RESUBMIT"
	// TypeSystemLog records a free-form log message.
	TypeSystemLog Type = "SYSTEM_LOG"
)

// State is the state of a verify cycle.
type State string

// Cycle states.
const (
	Waiting      State = "WAITING"
	Verifying    State = "VERIFYING"
	Resubmitting State = "RESUBMITTING"
	Complete     State = "COMPLETE"
	Failed       State = "FAILED"
)

// Terminal returns true if no further transitions follow s.
func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

// Event describes something that happened during a verify cycle.
type Event struct {
	CycleID   string            `json:"cycle_id"`
	Type      Type              `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	State     State             `json:"state,omitempty"`
	Attempt   int               `json:"attempt,omitempty"`
	Level     string            `json:"level,omitempty"`
	Msg       string            `json:"msg,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// NewState creates a state transition event.
func NewState(cycleID string, s State, fields map[string]string) *Event {
	return &Event{
		CycleID:   cycleID,
		Type:      TypeState,
		Timestamp: time.Now(),
		State:     s,
		Fields:    fields,
	}
}

// NewPoll creates a poll result event. result is "idle" or "failed";
// attempt counts the failed polls of the cycle so far.
func NewPoll(cycleID, result string, attempt int) *Event {
	return &Event{
		CycleID:   cycleID,
		Type:      TypePoll,
		Timestamp: time.Now(),
		Attempt:   attempt,
		Fields:    map[string]string{"result": result},
	}
}

// NewVerify creates a verification result event.
func NewVerify(cycleID string, allPresent bool, attempt int) *Event {
	res := "incomplete"
	if allPresent {
		res = "complete"
	}
	return &Event{
		CycleID:   cycleID,
		Type:      TypeVerify,
		Timestamp: time.Now(),
		Attempt:   attempt,
		Fields:    map[string]string{"result": res},
	}
}

// NewResubmit creates a resubmission event. attempt is the 1-based
// resubmission number.
func NewResubmit(cycleID string, attempt int, ok bool) *Event {
	res := "submitted"
	if !ok {
		res = "failed"
	}
	return &Event{
		CycleID:   cycleID,
		Type:      TypeResubmit,
		Timestamp: time.Now(),
		Attempt:   attempt,
		Fields:    map[string]string{"result": res},
	}
}

// NewSystemLog creates a free-form log event.
func NewSystemLog(cycleID, level, msg string, fields map[string]string) *Event {
	return &Event{
		CycleID:   cycleID,
		Type:      TypeSystemLog,
		Timestamp: time.Now(),
		Level:     level,
		Msg:       msg,
		Fields:    fields,
	}
}
