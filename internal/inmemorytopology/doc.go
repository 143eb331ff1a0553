// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. A plan's step graph always fits in
// memory, so this is the only implementation the application ships.
package inmemorytopology
