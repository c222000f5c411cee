// Package metrics exposes Prometheus metrics about remote commands,
// status polls and verify cycles.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ohsu-comp-bio/fabuq/events"
	"github.com/ohsu-comp-bio/fabuq/logger"
	"github.com/ohsu-comp-bio/fabuq/util/fsutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(invocations)
	prometheus.MustRegister(polls)
	prometheus.MustRegister(activeJobs)
	prometheus.MustRegister(resubmissions)
	prometheus.MustRegister(cycles)
}

var invocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fabuq",
		Subsystem: "commands",
		Name:      "invocations_total",
		Help:      "Number of remote tool invocations, by command and result.",
	},
	[]string{"command", "result"},
)

var polls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fabuq",
		Subsystem: "poller",
		Name:      "polls_total",
		Help:      "Number of status polls, by result.",
	},
	[]string{"result"},
)

var activeJobs = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "fabuq",
	Subsystem: "poller",
	Name:      "active_jobs",
	Help:      "Number of active jobs seen by the last successful poll.",
})

var resubmissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fabuq",
		Subsystem: "cycles",
		Name:      "resubmissions_total",
		Help:      "Number of ensemble resubmissions, by result.",
	},
	[]string{"result"},
)

var cycles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fabuq",
		Subsystem: "cycles",
		Name:      "finished_total",
		Help:      "Number of finished verify cycles, by final state.",
	},
	[]string{"state"},
)

// ObserveInvocation counts one remote tool invocation.
func ObserveInvocation(command string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	invocations.WithLabelValues(command, result).Inc()
}

// ObservePoll counts one status poll. active is recorded unless the poll failed.
func ObservePoll(result string, active int) {
	polls.WithLabelValues(result).Inc()
	if result != "failed" {
		activeJobs.Set(float64(active))
	}
}

// EventWriter updates the cycle metrics from cycle events.
type EventWriter struct{}

// WriteEvent implements events.Writer.
func (EventWriter) WriteEvent(ctx context.Context, ev *events.Event) error {
	switch ev.Type {
	case events.TypeResubmit:
		resubmissions.WithLabelValues(ev.Fields["result"]).Inc()
	case events.TypeState:
		if ev.State.Terminal() {
			cycles.WithLabelValues(string(ev.State)).Inc()
		}
	}
	return nil
}

// Serve serves /metrics on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, log *logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
