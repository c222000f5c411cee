package events

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ohsu-comp-bio/fabuq/logger"
)

// Writer provides write access to a cycle's events.
type Writer interface {
	WriteEvent(context.Context, *Event) error
}

// MultiWriter writes events to all the given writers.
// Every writer sees every event, even if an earlier one fails.
func MultiWriter(ws ...Writer) Writer {
	return multiwriter(ws)
}

type multiwriter []Writer

// WriteEvent writes an event to all the writers.
func (mw multiwriter) WriteEvent(ctx context.Context, ev *Event) error {
	var result *multierror.Error
	for _, w := range mw {
		if err := w.WriteEvent(ctx, ev); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type discard struct{}

func (discard) WriteEvent(context.Context, *Event) error {
	return nil
}

// Discard is a writer which discards all events.
var Discard Writer = discard{}

// ErrLogger writes an error message to the given logger when an event write fails.
type ErrLogger struct {
	Writer
	Log *logger.Logger
}

// WriteEvent writes the event to the underlying event writer. If an error is returned
// from that write, ErrLogger will log the error to the give logger, and return the error.
func (e *ErrLogger) WriteEvent(ctx context.Context, ev *Event) error {
	err := e.Writer.WriteEvent(ctx, ev)
	if err != nil {
		e.Log.Error("error writing event", "error", err, "event_type", string(ev.Type), "cycleID", ev.CycleID)
	}
	return err
}

// Logger writes events to a fabuq logger.
type Logger struct {
	Log *logger.Logger
}

// NewLogger returns a Logger writing to a sub-logger with the given name.
func NewLogger(name string) *Logger {
	return &Logger{logger.Sub(name)}
}

// WriteEvent writes an event to the logger.
func (el *Logger) WriteEvent(ctx context.Context, ev *Event) error {
	ts := string(ev.Type)
	log := el.Log.WithFields("cycleID", ev.CycleID)
	var args []interface{}
	for k, v := range ev.Fields {
		args = append(args, k, v)
	}

	switch ev.Type {
	case TypeState:
		log.Info(ts, append(args, "state", string(ev.State))...)
	case TypePoll, TypeVerify, TypeResubmit:
		log.Debug(ts, append(args, "attempt", ev.Attempt)...)
	case TypeSystemLog:
		switch ev.Level {
		case "error":
			log.Error(ev.Msg, args...)
		case "warning", "warn":
			log.Warn(ev.Msg, args...)
		case "debug":
			log.Debug(ev.Msg, args...)
		default:
			log.Info(ev.Msg, args...)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
