// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"sort"
	"time"
)

// MetricRecord is one flat structured record extracted by a parser. Fields
// are parser-defined (test_name, duration, status, ...).
type MetricRecord map[string]any

// CommandResult captures the final outcome of a single command.
type CommandResult struct {
	Command      string
	ExitCode     int
	Stdout       string
	Stderr       string
	Duration     time.Duration
	AttemptsUsed int

	// Success is true iff the command finished in time with the expected exit code.
	Success   bool
	TimedOut  bool
	Cancelled bool

	// Skipped is set when the command's own condition evaluated false.
	Skipped    bool
	SkipReason string

	Cleanup bool
	// ContinueOnFailure mirrors the command definition so a failure can be
	// classified without the config at hand.
	ContinueOnFailure bool
	// RecoveryTriggered is set when every attempt failed and the retry policy
	// names an on_failure step.
	RecoveryTriggered bool
	RecoveryStep      string

	// Error holds a process-level problem (spawn failure, output_file write).
	Error string
}

// StepResult is the terminal record of one step.
type StepResult struct {
	StepName      string
	Description   string
	Status        Status
	SkipReason    string
	Commands      []CommandResult
	ParsedRecords []MetricRecord
	ParseErrors   []string
	// Error holds a step-level problem, such as a condition that could not
	// be evaluated.
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time between start and finish, zero for steps that
// never ran.
func (r *StepResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecoveryRequested reports whether any command of this step exhausted its
// retries and asked for its on_failure step.
func (r *StepResult) RecoveryRequested() bool {
	if r == nil {
		return false
	}
	for _, c := range r.Commands {
		if c.RecoveryTriggered {
			return true
		}
	}
	return false
}

// RunResult is the full record of one orchestration run.
type RunResult struct {
	RunID    string
	PlanName string
	// Order is the validated execution order of the plan.
	Order          []string
	Steps          map[string]*StepResult
	OverallSuccess bool
	Cancelled      bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewRunResult returns an empty result ready for aggregation.
func NewRunResult(runID, planName string, order []string) *RunResult {
	return &RunResult{
		RunID:    runID,
		PlanName: planName,
		Order:    append([]string(nil), order...),
		Steps:    make(map[string]*StepResult, len(order)),
	}
}

// Finalize derives OverallSuccess: true iff no step ended Failed.
func (r *RunResult) Finalize() {
	r.OverallSuccess = true
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			r.OverallSuccess = false
			return
		}
	}
}

// Ordered returns step results following Order, then any extras by name.
func (r *RunResult) Ordered() []*StepResult {
	out := make([]*StepResult, 0, len(r.Steps))
	seen := make(map[string]struct{}, len(r.Order))
	for _, name := range r.Order {
		if s, ok := r.Steps[name]; ok {
			out = append(out, s)
			seen[name] = struct{}{}
		}
	}
	var rest []string
	for name := range r.Steps {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, r.Steps[name])
	}
	return out
}

// Counts tallies steps per status.
func (r *RunResult) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, s := range r.Steps {
		counts[s.Status]++
	}
	return counts
}
