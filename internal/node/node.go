// Package node defines the runtime vertex of the execution graph: one step of
// the plan plus the counters the worker pool needs to release it.
package node

import (
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/evalgrid/internal/config"
)

type Node struct {
	// Name is the unique step name from the plan.
	Name string
	// Index is the position of the step in the validated execution order.
	Index int
	// Step holds the immutable step definition.
	Step *config.Step

	// --- Internal state management ---

	// depCount is an atomic counter for predecessors that have not yet
	// reached a terminal state.
	depCount atomic.Int32
	// releaseOnce ensures a node is handed to a worker exactly once.
	releaseOnce sync.Once
}

// New creates a node for the step at the given position of the plan order.
func New(index int, step *config.Step) *Node {
	return &Node{
		Name:  step.Name,
		Index: index,
		Step:  step,
	}
}

func (n *Node) ID() string {
	return n.Name
}

func (n *Node) SetDepCount(count int32) {
	n.depCount.Store(count)
}

func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// Release runs f at most once for the lifetime of the node and reports
// whether this call was the one that ran it.
func (n *Node) Release(f func()) bool {
	var released bool
	n.releaseOnce.Do(func() {
		f()
		released = true
	})
	return released
}
