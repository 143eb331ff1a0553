package inmemorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Get status of a step that hasn't been touched yet
	status, err := s.GetStatus(ctx, "build")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, status)

	require.NoError(t, s.SetStatus(ctx, "build", model.StatusRunning))

	status, err = s.GetStatus(ctx, "build")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, status)
}

func TestSetAndGetResult(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, ok := s.GetResult(ctx, "build")
	assert.False(t, ok)

	expected := &model.StepResult{StepName: "build", Status: model.StatusSuccess}
	require.NoError(t, s.SetResult(ctx, "build", expected))

	got, ok := s.GetResult(ctx, "build")
	require.True(t, ok)
	assert.Same(t, expected, got)
}

func TestConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	numGoroutines := 100
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("step_%d", i)
			assert.NoError(t, s.SetStatus(ctx, name, model.StatusRunning))
			assert.NoError(t, s.SetResult(ctx, name, &model.StepResult{StepName: name, Status: model.StatusSuccess}))
			assert.NoError(t, s.SetStatus(ctx, name, model.StatusSuccess))
		}(i)
	}
	wg.Wait()

	results := s.Results(ctx)
	require.Len(t, results, numGoroutines)
	for name, r := range results {
		assert.Equal(t, name, r.StepName)
		status, err := s.GetStatus(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSuccess, status)
	}
}
