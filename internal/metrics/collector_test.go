package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/evalgrid/internal/events"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Publish(t *testing.T) {
	// --- Arrange ---
	c := NewCollector()
	ctx := context.Background()

	// --- Act ---
	c.Publish(ctx, events.Event{Kind: events.RunStarted})
	c.Publish(ctx, events.Event{Kind: events.StepStarted, Step: "build"})
	c.Publish(ctx, events.Event{Kind: events.CommandFinished, Step: "build", Success: true, Attempts: 1, Duration: time.Second})
	c.Publish(ctx, events.Event{Kind: events.CommandFinished, Step: "build", Attempts: 3, TimedOut: true})
	c.Publish(ctx, events.Event{Kind: events.CommandFinished, Step: "build", Status: model.StatusSkipped})
	c.Publish(ctx, events.Event{Kind: events.StepFinished, Step: "build", Status: model.StatusFailed, Ran: true, Duration: time.Second, Records: 4})
	c.Publish(ctx, events.Event{Kind: events.StepFinished, Step: "test", Status: model.StatusSkippedDependencyFailed, Reason: "dependency failed"})
	c.Publish(ctx, events.Event{Kind: events.RunFinished, Success: false})

	// --- Assert ---
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("timeout")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.commandRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("skipped_dependency_failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.stepsRunning))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.recordsExtracted.WithLabelValues("build")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.stepDuration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.Publish(context.Background(), events.Event{Kind: events.RunFinished, Success: true})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `evalgrid_runs_total{outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
