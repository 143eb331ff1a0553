package dag

import (
	"fmt"
	"slices"
)

type edgeKind int

const (
	hardEdge edgeKind = iota
	recoveryEdge
	// conditionEdge orders a step after the steps its conditions read.
	conditionEdge
)

type node struct {
	id    string
	index int

	// deps and dependents keep insertion order so traversal is deterministic.
	deps       []*node
	dependents []*node
	kinds      map[string]edgeKind // keyed by dependency id
}

// Graph is a directed graph of step names. Edges point from a dependency to
// the step that waits for it.
type Graph struct {
	nodes map[string]*node
	order []*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	n := &node{
		id:    id,
		index: len(g.order),
		kinds: make(map[string]edgeKind),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// AddEdge creates a directed edge from `fromID` to `toID`, meaning `toID`
// waits for `fromID`. An existing edge is upgraded to the stronger kind:
// hard over recovery over condition.
func (g *Graph) AddEdge(fromID, toID string, kind edgeKind) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if existing, ok := toNode.kinds[fromID]; ok {
		if kind < existing {
			toNode.kinds[fromID] = kind
		}
		return nil
	}
	toNode.kinds[fromID] = kind
	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)
	return nil
}

// DetectCycles runs a depth-first search with visiting/visited coloring over
// nodes in insertion order. The first back edge found is reported with the
// path that closes it.
func (g *Graph) DetectCycles() error {
	visited := make(map[string]bool)
	visiting := make(map[string]int) // id -> position in stack
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if visited[n.id] {
			return nil
		}
		if pos, ok := visiting[n.id]; ok {
			path := append(slices.Clone(stack[pos:]), n.id)
			return &GraphError{Kind: Cycle, Step: n.id, CyclePath: path}
		}

		visiting[n.id] = len(stack)
		stack = append(stack, n.id)
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(visiting, n.id)
		visited[n.id] = true
		return nil
	}

	for _, n := range g.order {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder returns every node such that each one follows all of its
// dependencies. Among nodes that are ready at the same time the one inserted
// first wins. The graph must be acyclic.
func (g *Graph) TopologicalOrder() []string {
	indegree := make(map[string]int, len(g.order))
	var ready []*node
	for _, n := range g.order {
		indegree[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, n)
		}
	}

	byIndex := func(a, b *node) int { return a.index - b.index }
	order := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		slices.SortFunc(ready, byIndex)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n.id)
		for _, dependent := range n.dependents {
			indegree[dependent.id]--
			if indegree[dependent.id] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return order
}

// Dependencies returns the IDs the given node waits for, optionally only
// those joined by hard edges.
func (g *Graph) dependencies(id string, hardOnly bool) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.deps))
	for _, dep := range n.deps {
		if hardOnly && n.kinds[dep.id] != hardEdge {
			continue
		}
		out = append(out, dep.id)
	}
	return out
}

func (g *Graph) dependenciesOfKind(id string, kind edgeKind) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []string
	for _, dep := range n.deps {
		if n.kinds[dep.id] == kind {
			out = append(out, dep.id)
		}
	}
	return out
}

func (g *Graph) dependents(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.dependents))
	for _, d := range n.dependents {
		out = append(out, d.id)
	}
	return out
}
