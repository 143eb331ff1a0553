// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// Status is the lifecycle state of a step within a run.
//
//	Pending → {Skipped | SkippedDependencyFailed | Running → {Success | Failed}}
type Status string

const (
	StatusPending                 Status = "pending"
	StatusRunning                 Status = "running"
	StatusSuccess                 Status = "success"
	StatusFailed                  Status = "failed"
	StatusSkipped                 Status = "skipped"
	StatusSkippedDependencyFailed Status = "skipped_dependency_failed"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusSkippedDependencyFailed:
		return true
	}
	return false
}

// Blocks reports whether a dependency in this state prevents its dependents
// from running. Only real failures propagate; a plain skip does not.
func (s Status) Blocks() bool {
	return s == StatusFailed || s == StatusSkippedDependencyFailed
}

func (s Status) String() string {
	return string(s)
}
