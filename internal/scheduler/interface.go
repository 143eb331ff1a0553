package scheduler

import (
	"context"

	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/model"
)

// Scheduler runs every step of a graph to a terminal state.
type Scheduler interface {
	// Run executes the plan and returns its RunResult. A run that is cancelled
	// or times out still returns a complete result: steps that never started
	// are Skipped and RunResult.Cancelled is set. The error is reserved for
	// internal inconsistencies of the graph.
	Run(ctx context.Context) (*model.RunResult, error)
}

// CommandRunner executes a single command. executor.Executor implements it.
type CommandRunner interface {
	Execute(ctx context.Context, cmd *config.Command, env []string, cwd string) model.CommandResult
}
