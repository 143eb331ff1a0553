// Package nodestore defines the interface for storing and retrieving the
// mutable execution state of steps during a run.
//
// # Why Node Store Exists
//
// The node store isolates **mutable execution state** (status, step results)
// from the **immutable graph structure** managed by topologystore. It is the
// synchronized aggregation point of a run: many workers write their own
// step's state concurrently, and the condition evaluator reads finished
// results while other steps are still running.
//
// # Lifecycle and Usage
//
// The node store is:
//  1. **Created** once per session (ephemeral, not persistent across runs)
//  2. **Mutated** as steps move Pending → Running → terminal
//  3. **Queried** by the scheduler to resolve eligibility and by conditions
//     such as `failed:build` that look at a finished step
//  4. **Drained** into the RunResult when the run ends
//
// # Thread-Safety
//
// All methods MUST be safe to call concurrently. A single step is only ever
// written by the worker that owns it.
package nodestore

import (
	"context"

	"github.com/specialistvlad/evalgrid/internal/model"
)

// Store is the interface for the per-step execution state of a run.
type Store interface {
	// SetStatus updates the lifecycle status of a step.
	SetStatus(ctx context.Context, name string, status model.Status) error

	// GetStatus retrieves the current status of a step.
	//
	// Returns StatusPending if no status has been set yet.
	GetStatus(ctx context.Context, name string) (model.Status, error)

	// SetResult records the terminal StepResult of a step. The store keeps
	// the pointer; callers must not mutate the result afterwards.
	SetResult(ctx context.Context, name string, result *model.StepResult) error

	// GetResult retrieves the recorded result of a step.
	//
	// Returns nil and false if the step has not reached a terminal state.
	GetResult(ctx context.Context, name string) (*model.StepResult, bool)

	// Results returns a snapshot of every recorded result keyed by step name.
	Results(ctx context.Context) map[string]*model.StepResult
}
