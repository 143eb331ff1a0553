package graph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/dag"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/node"
	"github.com/specialistvlad/evalgrid/internal/nodestore"
	"github.com/specialistvlad/evalgrid/internal/topologystore"
)

// Manager provides a high-level, thread-safe interface to the execution graph
// by composing the topology and node-state stores.
type Manager struct {
	topology  topologystore.Store
	nodeState nodestore.Store
}

// New creates a new graph manager.
func New(ts topologystore.Store, ns nodestore.Store) Graph {
	return &Manager{topology: ts, nodeState: ns}
}

// Populate copies the steps and edges of a validated plan into the topology.
func Populate(ctx context.Context, ts topologystore.Store, plan *dag.Plan) error {
	logger := ctxlog.FromContext(ctx)
	for i, s := range plan.Steps() {
		if err := ts.AddNode(ctx, node.New(i, s)); err != nil {
			return fmt.Errorf("adding step '%s': %w", s.Name, err)
		}
	}

	edges := 0
	for _, name := range plan.Order() {
		for _, dep := range plan.Dependencies(name) {
			if err := ts.AddDependency(ctx, dep, name, topologystore.Hard); err != nil {
				return err
			}
			edges++
		}
		for _, origin := range plan.RecoveryOrigins(name) {
			if err := ts.AddDependency(ctx, origin, name, topologystore.Recovery); err != nil {
				return err
			}
			edges++
		}
		for _, source := range plan.ConditionSources(name) {
			if err := ts.AddDependency(ctx, source, name, topologystore.Ordering); err != nil {
				return err
			}
			edges++
		}
	}
	logger.Debug("Topology populated from plan.", "steps", plan.Len(), "edges", edges)
	return nil
}

func (m *Manager) Node(ctx context.Context, name string) (*node.Node, bool) {
	return m.topology.GetNode(ctx, name)
}

func (m *Manager) AllNodes(ctx context.Context) []*node.Node {
	return m.topology.AllNodes(ctx)
}

func (m *Manager) DependenciesOf(ctx context.Context, name string) ([]*node.Node, error) {
	names, err := m.topology.DependenciesOf(ctx, name, topologystore.Hard)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, names)
}

func (m *Manager) PredecessorsOf(ctx context.Context, name string) ([]*node.Node, error) {
	names, err := m.topology.DependenciesOf(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, names)
}

func (m *Manager) RecoveryOriginsOf(ctx context.Context, name string) ([]string, error) {
	return m.topology.DependenciesOf(ctx, name, topologystore.Recovery)
}

func (m *Manager) DependentsOf(ctx context.Context, name string) ([]*node.Node, error) {
	names, err := m.topology.DependentsOf(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, names)
}

func (m *Manager) NodeStatus(ctx context.Context, name string) (model.Status, bool) {
	if _, ok := m.topology.GetNode(ctx, name); !ok {
		return model.StatusPending, false
	}
	status, err := m.nodeState.GetStatus(ctx, name)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to read step status.", "step", name, "error", err)
		return model.StatusPending, false
	}
	return status, true
}

func (m *Manager) Result(ctx context.Context, name string) (*model.StepResult, bool) {
	return m.nodeState.GetResult(ctx, name)
}

func (m *Manager) Results(ctx context.Context) map[string]*model.StepResult {
	return m.nodeState.Results(ctx)
}

func (m *Manager) MarkRunning(ctx context.Context, name string) error {
	if _, ok := m.topology.GetNode(ctx, name); !ok {
		return fmt.Errorf("step '%s' not found in graph", name)
	}
	return m.nodeState.SetStatus(ctx, name, model.StatusRunning)
}

func (m *Manager) MarkFinished(ctx context.Context, name string, result *model.StepResult) error {
	if _, ok := m.topology.GetNode(ctx, name); !ok {
		return fmt.Errorf("step '%s' not found in graph", name)
	}
	if result == nil || !result.Status.IsTerminal() {
		return fmt.Errorf("step '%s': result must carry a terminal status", name)
	}
	// Result first, so a reader that sees the terminal status also sees the result.
	if err := m.nodeState.SetResult(ctx, name, result); err != nil {
		return err
	}
	return m.nodeState.SetStatus(ctx, name, result.Status)
}

func (m *Manager) resolve(ctx context.Context, names []string) ([]*node.Node, error) {
	nodes := make([]*node.Node, 0, len(names))
	for _, name := range names {
		n, ok := m.topology.GetNode(ctx, name)
		if !ok {
			return nil, fmt.Errorf("internal inconsistency: edge references missing node '%s'", name)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
