// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Blocks(t *testing.T) {
	assert.True(t, StatusFailed.Blocks())
	assert.True(t, StatusSkippedDependencyFailed.Blocks())
	assert.False(t, StatusSkipped.Blocks())
	assert.False(t, StatusSuccess.Blocks())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusSkipped.IsTerminal())
}

func TestRunResult_Finalize(t *testing.T) {
	t.Run("skips do not fail the run", func(t *testing.T) {
		r := NewRunResult("id", "plan", []string{"a", "b", "c"})
		r.Steps["a"] = &StepResult{StepName: "a", Status: StatusSuccess}
		r.Steps["b"] = &StepResult{StepName: "b", Status: StatusSkipped}
		r.Steps["c"] = &StepResult{StepName: "c", Status: StatusSkippedDependencyFailed}
		r.Finalize()
		assert.True(t, r.OverallSuccess)
	})

	t.Run("any failure fails the run", func(t *testing.T) {
		r := NewRunResult("id", "plan", []string{"a", "b"})
		r.Steps["a"] = &StepResult{StepName: "a", Status: StatusFailed}
		r.Steps["b"] = &StepResult{StepName: "b", Status: StatusSuccess}
		r.Finalize()
		assert.False(t, r.OverallSuccess)
	})
}

func TestRunResult_Ordered(t *testing.T) {
	r := NewRunResult("id", "plan", []string{"b", "a"})
	r.Steps["a"] = &StepResult{StepName: "a"}
	r.Steps["b"] = &StepResult{StepName: "b"}
	r.Steps["z"] = &StepResult{StepName: "z"}

	ordered := r.Ordered()
	require.Len(t, ordered, 3)
	assert.Equal(t, "b", ordered[0].StepName)
	assert.Equal(t, "a", ordered[1].StepName)
	assert.Equal(t, "z", ordered[2].StepName)
}

func TestStepResult_RecoveryAndDuration(t *testing.T) {
	var nilResult *StepResult
	assert.False(t, nilResult.RecoveryRequested())

	start := time.Now()
	r := &StepResult{
		Commands:   []CommandResult{{Success: true}, {RecoveryTriggered: true}},
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
	}
	assert.True(t, r.RecoveryRequested())
	assert.Equal(t, 2*time.Second, r.Duration())
	assert.Zero(t, (&StepResult{}).Duration())
}
