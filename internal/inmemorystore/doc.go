// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. It holds the status and StepResult of
// every step for the lifetime of a single run.
package inmemorystore
