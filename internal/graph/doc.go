// Package graph provides a unified facade for managing the execution graph,
// combining static topology (step structure) and dynamic state (step status
// and results).
//
// # Architecture: The Facade Pattern
//
// The Graph is a thin facade over two specialized stores:
//
//	┌─────────────────────────────────────┐
//	│           Graph Facade              │
//	│  (Unified API for the scheduler to  │
//	│   query structure & record state)   │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │ Node State │
//	  │   Store    │  │   Store    │
//	  │ (Structure)│  │  (Status)  │
//	  └────────────┘  └────────────┘
//
// **Topology Store** (topologystore.Store):
//   - Holds step nodes and their hard and recovery edges
//   - Written once by Populate from a validated dag.Plan, read-many during execution
//
// **Node Store** (nodestore.Store):
//   - Holds each step's status and terminal StepResult
//   - Updated by MarkRunning and MarkFinished
//
// # Lifecycle
//
//  1. **Creation:** the session factory creates the graph with both stores injected
//  2. **Population:** Populate copies the plan's steps and edges into the topology
//  3. **Execution:** the scheduler queries eligibility and records outcomes
//  4. **Disposal:** the graph is discarded when the session ends
//
// # Thread-Safety
//
// All Graph methods are thread-safe by delegation to the underlying stores.
package graph
