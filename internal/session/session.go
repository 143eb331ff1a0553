// Package session defines the core interfaces for creating and managing an
// execution session. It abstracts away how the graph state of a run is
// stored and how commands are executed.
package session

import (
	"context"

	"github.com/specialistvlad/evalgrid/internal/condition"
	"github.com/specialistvlad/evalgrid/internal/dag"
	"github.com/specialistvlad/evalgrid/internal/events"
	"github.com/specialistvlad/evalgrid/internal/executor"
	"github.com/specialistvlad/evalgrid/internal/graph"
	"github.com/specialistvlad/evalgrid/internal/parser"
	"github.com/specialistvlad/evalgrid/internal/scheduler"
)

// Request carries the validated inputs of one run.
type Request struct {
	Plan       *dag.Plan
	Conditions *condition.Evaluator
	Parsers    *parser.Set
	Sink       events.Sink
	Executor   executor.Options
	Scheduler  scheduler.Options
}

// SessionFactory creates an execution Session.
type SessionFactory interface {
	NewSession(ctx context.Context, req Request) (Session, error)
}

// Session represents a single execution run and manages its lifecycle.
type Session interface {
	GetScheduler() (scheduler.Scheduler, error)
	// Graph exposes the run state, mainly for inspection after the run.
	Graph() graph.Graph
	// Close releases any resources held by the session.
	Close(ctx context.Context) error
}
