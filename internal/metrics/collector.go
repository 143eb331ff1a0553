// Package metrics exposes run progress as Prometheus metrics. The Collector
// is an events.Sink, so it sees exactly what other observers see.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/evalgrid/internal/events"
	"github.com/specialistvlad/evalgrid/internal/model"
)

const namespace = "evalgrid"

// Collector turns events into counters, gauges and histograms on its own
// registry.
type Collector struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	stepsTotal       *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	stepsRunning     prometheus.Gauge
	commandsTotal    *prometheus.CounterVec
	commandDuration  prometheus.Histogram
	commandRetries   prometheus.Counter
	recordsExtracted *prometheus.CounterVec
}

// NewCollector creates a Collector with a fresh registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome.",
		}, []string{"outcome"}),
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Steps that reached a terminal status.",
		}, []string{"status"}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of executed steps.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"step"}),
		stepsRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steps_running",
			Help:      "Steps currently executing commands.",
		}),
		commandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Executed commands by outcome.",
		}, []string{"outcome"}),
		commandDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall time of commands including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		commandRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_retries_total",
			Help:      "Attempts beyond the first.",
		}),
		recordsExtracted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Metric records produced by parsers.",
		}, []string{"step"}),
	}
}

// Registry returns the registry metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Publish implements events.Sink.
func (c *Collector) Publish(_ context.Context, ev events.Event) {
	switch ev.Kind {
	case events.StepStarted:
		c.stepsRunning.Inc()
	case events.CommandFinished:
		if ev.Status == model.StatusSkipped {
			return
		}
		c.commandsTotal.WithLabelValues(commandOutcome(ev)).Inc()
		c.commandDuration.Observe(ev.Duration.Seconds())
		if ev.Attempts > 1 {
			c.commandRetries.Add(float64(ev.Attempts - 1))
		}
	case events.StepFinished:
		c.stepsTotal.WithLabelValues(string(ev.Status)).Inc()
		if ev.Duration > 0 {
			c.stepDuration.WithLabelValues(ev.Step).Observe(ev.Duration.Seconds())
		}
		if ev.Records > 0 {
			c.recordsExtracted.WithLabelValues(ev.Step).Add(float64(ev.Records))
		}
		if ev.Ran {
			c.stepsRunning.Dec()
		}
	case events.RunFinished:
		outcome := "failure"
		if ev.Success {
			outcome = "success"
		}
		c.runsTotal.WithLabelValues(outcome).Inc()
	}
}

func commandOutcome(ev events.Event) string {
	switch {
	case ev.TimedOut:
		return "timeout"
	case ev.Success:
		return "success"
	default:
		return "failure"
	}
}
