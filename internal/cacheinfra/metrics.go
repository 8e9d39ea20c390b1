package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded per command.
const (
	OutcomeOK        = "ok"
	OutcomeNil       = "nil"
	OutcomeStore     = "store_error"
	OutcomeTransport = "transport_error"
)

// Metrics holds the collectors shared by instrumented executors.
type Metrics struct {
	commands *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the cache collectors on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialcache",
			Subsystem: "cache",
			Name:      "commands_total",
			Help:      "Cache commands sent, by command and outcome.",
		}, []string{"command", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "socialcache",
			Subsystem: "cache",
			Name:      "round_trip_seconds",
			Help:      "Round-trip latency of single commands and pipelines.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"mode"}),
	}
	if reg != nil {
		reg.MustRegister(m.commands, m.latency)
	}
	return m
}

// Instrument wraps exec so every command it runs is counted and timed.
func (m *Metrics) Instrument(exec cache.Executor) cache.Executor {
	return &instrumentedExecutor{next: exec, metrics: m}
}

type instrumentedExecutor struct {
	next    cache.Executor
	metrics *Metrics
}

func (e *instrumentedExecutor) Do(ctx context.Context, cmd cache.Command) (cache.Reply, error) {
	start := time.Now()
	reply, err := e.next.Do(ctx, cmd)
	e.metrics.latency.WithLabelValues("single").Observe(time.Since(start).Seconds())
	e.metrics.commands.WithLabelValues(cmd.Name, outcome(reply, err)).Inc()
	return reply, err
}

func (e *instrumentedExecutor) Pipeline(ctx context.Context, cmds []cache.Command) ([]cache.Reply, error) {
	start := time.Now()
	replies, err := e.next.Pipeline(ctx, cmds)
	e.metrics.latency.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())

	for i, cmd := range cmds {
		if err != nil || i >= len(replies) {
			e.metrics.commands.WithLabelValues(cmd.Name, outcome(cache.Reply{}, err)).Inc()
			continue
		}
		e.metrics.commands.WithLabelValues(cmd.Name, outcome(replies[i], nil)).Inc()
	}
	return replies, err
}

func (e *instrumentedExecutor) Close() error {
	return e.next.Close()
}

func outcome(reply cache.Reply, err error) string {
	if err != nil {
		var storeErr *cache.StoreError
		if errors.As(err, &storeErr) {
			return OutcomeStore
		}
		return OutcomeTransport
	}
	if reply.IsNil() {
		return OutcomeNil
	}
	return OutcomeOK
}
