// Package events carries run progress to observers. The scheduler publishes
// one event per lifecycle transition; sinks decide what to do with them.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/evalgrid/internal/model"
)

// Kind names a lifecycle transition.
type Kind string

const (
	RunStarted      Kind = "run_started"
	StepStarted     Kind = "step_started"
	CommandFinished Kind = "command_finished"
	StepFinished    Kind = "step_finished"
	RunFinished     Kind = "run_finished"
)

// Event is a single progress notification. Fields that do not apply to the
// kind are left zero.
type Event struct {
	Kind     Kind         `json:"kind"`
	RunID    string       `json:"run_id"`
	Plan     string       `json:"plan,omitempty"`
	Step     string       `json:"step,omitempty"`
	Status   model.Status `json:"status,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Command  string       `json:"command,omitempty"`
	ExitCode int          `json:"exit_code,omitempty"`
	Attempts int          `json:"attempts,omitempty"`
	TimedOut bool         `json:"timed_out,omitempty"`
	Cleanup  bool         `json:"cleanup,omitempty"`
	// Ran is set on StepFinished when the step executed its commands.
	Ran      bool          `json:"ran,omitempty"`
	Success  bool          `json:"success"`
	Records  int           `json:"records,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Time     time.Time     `json:"time"`
}

// Sink receives events. Publish must be safe for concurrent use and must not
// block the caller for long; sinks report their own delivery problems.
type Sink interface {
	Publish(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, s := range f {
		if s != nil {
			s.Publish(ctx, ev)
		}
	}
}

// Memory keeps every event it receives.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of what was received so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// OfKind filters the received events.
func (m *Memory) OfKind(kind Kind) []Event {
	var out []Event
	for _, ev := range m.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
