package util

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/ohsu-comp-bio/fabuq/events"
	"github.com/ohsu-comp-bio/fabuq/fabsim"
	"github.com/ohsu-comp-bio/fabuq/journal"
	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/metrics"
	fabutil "github.com/ohsu-comp-bio/fabuq/util"
)

// SignalContext returns a context canceled on SIGINT or SIGTERM.
func SignalContext(ctx context.Context) (context.Context, func()) {
	return fabutil.SignalContext(ctx, 0, os.Interrupt, syscall.SIGTERM)
}

// Runtime holds the components shared by the commands that drive the
// remote tool.
type Runtime struct {
	Conf      config.Config
	Log       *logger.Logger
	Invoker   fabsim.Invoker
	Ensembles *fabsim.Ensembles
	Event     events.Writer
	Journal   *journal.BoltJournal

	stopMetrics context.CancelFunc
	metricsErr  chan error
}

// NewRuntime configures logging, opens the journal and starts the metrics
// server described by conf. Close must be called when the command is done.
func NewRuntime(ctx context.Context, conf config.Config, name string) (*Runtime, error) {
	log := logger.NewLogger(name, conf.Logger)

	inv := fabsim.NewCommandInvoker(conf.Tool, log.Sub("invoker"))
	rt := &Runtime{
		Conf:    conf,
		Log:     log,
		Invoker: inv,
		Ensembles: &fabsim.Ensembles{
			Invoker:         inv,
			ResubmitCommand: conf.ResubmitCommand,
			Log:             log.Sub("ensemble"),
		},
	}

	writers := []events.Writer{
		&events.Logger{Log: log.Sub("events")},
		metrics.EventWriter{},
	}
	if !conf.Journal.Disabled {
		j, err := journal.NewBoltJournal(conf.Journal)
		if err != nil {
			return nil, fmt.Errorf("error opening journal: %v", err)
		}
		rt.Journal = j
		writers = append(writers, j)
	}
	rt.Event = &events.ErrLogger{Writer: events.MultiWriter(writers...), Log: log}

	if conf.Metrics.Addr != "" {
		mctx, cancel := context.WithCancel(ctx)
		rt.stopMetrics = cancel
		rt.metricsErr = make(chan error, 1)
		go func() {
			rt.metricsErr <- metrics.Serve(mctx, conf.Metrics.Addr, log.Sub("metrics"))
		}()
	}
	return rt, nil
}

// Controller returns a verify cycle controller built from the configuration.
func (rt *Runtime) Controller() *fabsim.Controller {
	conf := rt.Conf
	verifier := fabsim.NewVerifier(
		rt.Invoker,
		conf.Retry.MaxFetchRetries,
		time.Duration(conf.Retry.FetchInterval),
		time.Duration(conf.Retry.FetchMaxInterval),
		rt.Log.Sub("verifier"),
	)
	verifier.VerifyMachine = conf.VerifyMachine
	verifier.FlagFile = conf.FlagFile

	return &fabsim.Controller{
		Waiter:      rt.Poller(),
		Verifier:    verifier,
		Resubmitter: rt.Ensembles,
		Budget: fabsim.RetryBudget{
			MaxPollRetries:   conf.Retry.MaxPollRetries,
			MaxResubmissions: conf.Retry.MaxResubmissions,
		},
		Event: rt.Event,
		Log:   rt.Log.Sub("controller"),
	}
}

// Poller returns a status poller built from the configuration.
func (rt *Runtime) Poller() *fabsim.Poller {
	return &fabsim.Poller{
		Invoker:     rt.Invoker,
		Interval:    time.Duration(rt.Conf.Poll.Interval),
		HeaderLines: rt.Conf.Poll.HeaderLines,
		Log:         rt.Log.Sub("poller"),
	}
}

// Close stops the metrics server, writes the metrics textfile and closes
// the journal.
func (rt *Runtime) Close() {
	if rt.stopMetrics != nil {
		rt.stopMetrics()
		if err := <-rt.metricsErr; err != nil {
			rt.Log.Error("Metrics server failed", err)
		}
	}
	if p := rt.Conf.Metrics.TextfilePath; p != "" {
		if err := metrics.WriteTextfile(p); err != nil {
			rt.Log.Error("Writing metrics textfile", "path", p, "error", err)
		}
	}
	if rt.Journal != nil {
		if err := rt.Journal.Close(); err != nil {
			rt.Log.Error("Closing journal", err)
		}
	}
}
