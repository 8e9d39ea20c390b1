package cacheinfra

import (
	"context"
	"testing"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Instrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	exec := metrics.Instrument(NewMemoryExecutor())
	ctx := context.Background()

	if _, err := exec.Do(ctx, cache.Get("missing")); err != nil {
		t.Fatal(err)
	}
	if _, err := exec.Do(ctx, cache.Set("s", "x")); err != nil {
		t.Fatal(err)
	}
	if _, err := exec.Do(ctx, cache.Incr("s")); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := exec.Pipeline(ctx, []cache.Command{cache.Incr("a"), cache.Get("a")}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		command, outcome string
		want             float64
	}{
		{"GET", OutcomeNil, 1},
		{"GET", OutcomeOK, 1},
		{"SET", OutcomeOK, 1},
		{"INCR", OutcomeStore, 1},
		{"INCR", OutcomeOK, 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(metrics.commands.WithLabelValues(tt.command, tt.outcome))
		if got != tt.want {
			t.Errorf("%s/%s = %v, want %v", tt.command, tt.outcome, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(metrics.latency); n != 2 {
		t.Errorf("expected single and pipeline histograms, got %d series", n)
	}
}

func TestMetrics_TransportOutcome(t *testing.T) {
	metrics := NewMetrics(nil)
	mem := NewMemoryExecutor()
	exec := metrics.Instrument(mem)
	_ = exec.Close()

	if _, err := exec.Pipeline(context.Background(), []cache.Command{cache.Get("a"), cache.Get("b")}); err == nil {
		t.Fatal("expected error after close")
	}
	if got := testutil.ToFloat64(metrics.commands.WithLabelValues("GET", OutcomeTransport)); got != 2 {
		t.Errorf("transport outcomes = %v, want 2", got)
	}
}
