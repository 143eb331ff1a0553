// Package dag is the planning layer of the application. It takes the steps
// of a loaded plan, builds a directed acyclic graph from their depends_on and
// on_failure references, rejects unknown references and cycles, and produces
// a deterministic execution order that the scheduler consumes.
//
// Two edge kinds exist. Hard edges come from depends_on: they order steps and
// carry failure propagation. Recovery edges come from a command's
// retry.on_failure: they only order the recovery step after its origin.
package dag
