package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout(t *testing.T) {
	// --- Arrange ---
	a, b := &Memory{}, &Memory{}
	sink := Fanout{a, nil, Nop{}, b}

	// --- Act ---
	sink.Publish(context.Background(), Event{Kind: StepStarted, Step: "build"})
	sink.Publish(context.Background(), Event{Kind: StepFinished, Step: "build", Status: model.StatusSuccess})

	// --- Assert ---
	assert.Len(t, a.Events(), 2)
	assert.Equal(t, a.Events(), b.Events())
	require.Len(t, a.OfKind(StepFinished), 1)
	assert.Equal(t, model.StatusSuccess, a.OfKind(StepFinished)[0].Status)
}

func TestMemory_ConcurrentPublish(t *testing.T) {
	m := &Memory{}
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Publish(context.Background(), Event{Kind: CommandFinished, Attempts: i})
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.Events(), 50)
}

func TestPayloadOf(t *testing.T) {
	ev := Event{
		Kind:     StepFinished,
		RunID:    "r1",
		Step:     "bench",
		Status:   model.StatusFailed,
		Duration: 2 * time.Second,
	}

	payload, err := payloadOf(ev)

	require.NoError(t, err)
	assert.Equal(t, "step_finished", payload["kind"])
	assert.Equal(t, "bench", payload["step"])
	assert.Equal(t, "failed", payload["status"])
	assert.Equal(t, float64(2*time.Second), payload["duration_ns"])
	assert.NotContains(t, payload, "command")
}

func TestDialSocketIO_Errors(t *testing.T) {
	t.Run("invalid URL", func(t *testing.T) {
		_, err := DialSocketIO(context.Background(), SocketIOOptions{URL: "not a url"})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := DialSocketIO(ctx, SocketIOOptions{URL: "http://127.0.0.1:1", ConnectTimeout: time.Second})
		assert.Error(t, err)
	})
}
