package graph

import (
	"context"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/node"
)

// Graph is a unified interface for interacting with the execution graph of
// one run, combining static topology queries with dynamic state updates.
//
// Implementations MUST be thread-safe, as multiple workers run steps in
// parallel and simultaneously query and update the graph.
type Graph interface {
	// Node retrieves a step node by name.
	Node(ctx context.Context, name string) (*node.Node, bool)

	// AllNodes returns every node in plan order.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the depends_on nodes of a step. Only these
	// propagate failure.
	DependenciesOf(ctx context.Context, name string) ([]*node.Node, error)

	// PredecessorsOf returns every node a step waits for, recovery origins included.
	PredecessorsOf(ctx context.Context, name string) ([]*node.Node, error)

	// RecoveryOriginsOf returns the names of the steps that may trigger this
	// step through retry.on_failure.
	RecoveryOriginsOf(ctx context.Context, name string) ([]string, error)

	// DependentsOf returns every node that waits for a step.
	DependentsOf(ctx context.Context, name string) ([]*node.Node, error)

	// NodeStatus retrieves the current status of a step.
	//
	// Returns StatusPending and false if the step is not part of the graph.
	NodeStatus(ctx context.Context, name string) (model.Status, bool)

	// Result returns the terminal StepResult of a step, if recorded.
	Result(ctx context.Context, name string) (*model.StepResult, bool)

	// Results returns a snapshot of all recorded StepResults.
	Results(ctx context.Context) map[string]*model.StepResult

	// MarkRunning transitions a step to Running.
	//
	// State transition: Pending → Running
	MarkRunning(ctx context.Context, name string) error

	// MarkFinished records the terminal result of a step. The result's
	// Status must be terminal.
	//
	// State transition: Pending|Running → Success|Failed|Skipped|SkippedDependencyFailed
	MarkFinished(ctx context.Context, name string, result *model.StepResult) error
}
