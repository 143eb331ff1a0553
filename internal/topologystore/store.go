// Package topologystore defines the interface for storing the static structure
// of the execution graph: which steps exist and which steps each one waits for.
//
// # Why Topology Store Exists
//
// The topology is written once, when a session is created from a validated
// plan, and read many times while workers release steps. Keeping it apart from
// the mutable per-step state (nodestore) lets frequent status writes proceed
// without contending with structure queries.
//
// # Edge Kinds
//
// Three kinds of edge are stored:
//   - **Hard** edges come from depends_on. They order steps and propagate failure.
//   - **Recovery** edges come from retry.on_failure. They only order a recovery
//     step after the step that may trigger it.
//   - **Ordering** edges come from conditions that read another step's
//     outcome. They only delay the reader until that step has finished.
//
// Every kind counts towards the number of predecessors a node waits for.
package topologystore

import (
	"context"

	"github.com/specialistvlad/evalgrid/internal/node"
)

// EdgeKind distinguishes failure-propagating edges from ordering-only ones.
type EdgeKind int

const (
	Hard EdgeKind = iota
	Recovery
	Ordering
)

type Store interface {
	// AddNode registers a step node in the topology.
	//
	// Adding the same node twice (by name) is idempotent and not an error.
	//
	// Thread-safety: Must be safe to call concurrently with other AddNode calls.
	AddNode(ctx context.Context, n *node.Node) error

	// AddDependency records that `to` waits for `from`.
	//
	// Both nodes must already exist in the topology. If either is missing,
	// implementations return an error.
	//
	// Thread-safety: Must be safe to call concurrently with other writes.
	AddDependency(ctx context.Context, from, to string, kind EdgeKind) error

	// GetNode retrieves a single node by step name.
	GetNode(ctx context.Context, name string) (*node.Node, bool)

	// AllNodes returns all nodes ordered by node.Index.
	//
	// The returned slice is a snapshot and safe for the caller to iterate.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the names `name` waits for through edges of the
	// given kinds. With no kinds given, every edge counts.
	//
	// Returns an error if `name` doesn't exist in the topology.
	DependenciesOf(ctx context.Context, name string, kinds ...EdgeKind) ([]string, error)

	// DependentsOf returns the names of every node that waits for `name`,
	// regardless of edge kind.
	DependentsOf(ctx context.Context, name string) ([]string, error)
}
