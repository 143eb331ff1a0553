package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/evalgrid/internal/node"
	"github.com/specialistvlad/evalgrid/internal/topologystore"
)

type edge struct {
	name string
	kind topologystore.EdgeKind
}

// Store keeps nodes and edges in maps guarded by a single RWMutex. Edge
// lists preserve insertion order.
type Store struct {
	mu         sync.RWMutex
	nodes      map[string]*node.Node
	deps       map[string][]edge   // Key: node name, Value: what it waits for
	dependents map[string][]string // Key: node name, Value: who waits for it
}

func New() topologystore.Store {
	return &Store{
		nodes:      make(map[string]*node.Node),
		deps:       make(map[string][]edge),
		dependents: make(map[string][]string),
	}
}

func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.Name]; exists {
		// Adding the same node twice is not an error, it's idempotent.
		return nil
	}
	s.nodes[n.Name] = n
	return nil
}

func (s *Store) AddDependency(ctx context.Context, from, to string, kind topologystore.EdgeKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("dependency source node '%s' not found in topology", from)
	}
	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("dependency target node '%s' not found in topology", to)
	}

	for i, e := range s.deps[to] {
		if e.name == from {
			if kind < e.kind {
				s.deps[to][i].kind = kind
			}
			return nil
		}
	}
	s.deps[to] = append(s.deps[to], edge{name: from, kind: kind})
	s.dependents[from] = append(s.dependents[from], to)
	return nil
}

func (s *Store) GetNode(ctx context.Context, name string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[name]
	return n, ok
}

func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *node.Node) int { return a.Index - b.Index })
	return nodes
}

func (s *Store) DependenciesOf(ctx context.Context, name string, kinds ...topologystore.EdgeKind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[name]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", name)
	}

	deps := make([]string, 0, len(s.deps[name]))
	for _, e := range s.deps[name] {
		if len(kinds) == 0 || slices.Contains(kinds, e.kind) {
			deps = append(deps, e.name)
		}
	}
	return deps, nil
}

func (s *Store) DependentsOf(ctx context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[name]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", name)
	}
	return slices.Clone(s.dependents[name]), nil
}
