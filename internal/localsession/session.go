// Package localsession provides a concrete implementation of the
// session.Session and session.SessionFactory interfaces for local,
// in-process execution.
package localsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/executor"
	"github.com/specialistvlad/evalgrid/internal/graph"
	"github.com/specialistvlad/evalgrid/internal/inmemorystore"
	"github.com/specialistvlad/evalgrid/internal/inmemorytopology"
	"github.com/specialistvlad/evalgrid/internal/scheduler"
	"github.com/specialistvlad/evalgrid/internal/session"
)

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct{}

// NewSession wires in-memory stores, the graph, a subprocess executor and
// the scheduler for one run.
func (f *SessionFactory) NewSession(ctx context.Context, req session.Request) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	if req.Plan == nil {
		return nil, errors.New("session request has no plan")
	}

	topoStore := inmemorytopology.New()
	if err := graph.Populate(ctx, topoStore, req.Plan); err != nil {
		return nil, fmt.Errorf("populating graph: %w", err)
	}
	g := graph.New(topoStore, inmemorystore.New())
	exec := executor.New(req.Executor)
	sched := scheduler.New(g, exec, req.Conditions, req.Parsers, req.Sink, req.Scheduler)
	logger.Debug("Local session created.", "steps", req.Plan.Len())

	return &Session{graph: g, scheduler: sched}, nil
}

// Session implements session.Session for local runs.
type Session struct {
	graph     graph.Graph
	scheduler scheduler.Scheduler
}

// GetScheduler returns the scheduler wired by the factory.
func (s *Session) GetScheduler() (scheduler.Scheduler, error) {
	return s.scheduler, nil
}

func (s *Session) Graph() graph.Graph {
	return s.graph
}

// Close has nothing to release for in-memory stores.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Local session closed.")
	return nil
}
