package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/evalgrid/internal/condition"
	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/events"
	"github.com/specialistvlad/evalgrid/internal/executor"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/node"
	"github.com/specialistvlad/evalgrid/internal/parser"
)

const reasonRunCancelled = "run cancelled"

// process takes one step from Pending to a terminal state.
func (r *run) process(ctx context.Context, n *node.Node) error {
	ctx, logger := ctxlog.With(ctx, "step", n.Name)

	res, proceed, err := r.resolve(ctx, n)
	if err != nil {
		return err
	}
	if proceed {
		if err := r.graph.MarkRunning(ctx, n.Name); err != nil {
			return err
		}
		r.publish(ctx, events.Event{Kind: events.StepStarted, Step: n.Name})
		logger.Info("▶️ Starting step.", "commands", len(n.Step.Commands))
		r.execute(ctx, n, res)
	}
	return r.finish(ctx, res)
}

// resolve decides whether a step runs. Checks are ordered: run
// cancellation, blocking dependencies, the enabled flag, then the condition.
func (r *run) resolve(ctx context.Context, n *node.Node) (*model.StepResult, bool, error) {
	res := &model.StepResult{StepName: n.Name, Description: n.Step.Description}
	skip := func(status model.Status, reason string) (*model.StepResult, bool, error) {
		res.Status = status
		res.SkipReason = reason
		return res, false, nil
	}

	if ctx.Err() != nil {
		r.cancelled.Store(true)
		return skip(model.StatusSkipped, reasonRunCancelled)
	}

	deps, err := r.graph.DependenciesOf(ctx, n.Name)
	if err != nil {
		return nil, false, fmt.Errorf("resolving step '%s': %w", n.Name, err)
	}
	for _, dep := range deps {
		status, _ := r.graph.NodeStatus(ctx, dep.Name)
		if status.Blocks() {
			return skip(model.StatusSkippedDependencyFailed, fmt.Sprintf("dependency '%s' %s", dep.Name, status))
		}
	}

	if !n.Step.IsEnabled() {
		return skip(model.StatusSkipped, "disabled")
	}

	if n.Step.Condition != "" {
		ok, err := r.evaluate(ctx, n.Step.Condition)
		if err != nil {
			res.Status = model.StatusFailed
			res.Error = err.Error()
			return res, false, nil
		}
		if !ok {
			return skip(model.StatusSkipped, fmt.Sprintf("condition '%s' is false", n.Step.Condition))
		}
		return res, true, nil
	}

	origins, err := r.graph.RecoveryOriginsOf(ctx, n.Name)
	if err != nil {
		return nil, false, fmt.Errorf("resolving step '%s': %w", n.Name, err)
	}
	if len(origins) > 0 {
		for _, origin := range origins {
			if prior, ok := r.graph.Result(ctx, origin); ok && prior.RecoveryRequested() {
				return res, true, nil
			}
		}
		return skip(model.StatusSkipped, fmt.Sprintf("recovery not requested by %s", strings.Join(origins, ", ")))
	}
	return res, true, nil
}

// execute runs the commands of a step. Normal commands run in declaration
// order and stop at the first required failure; cleanup commands then run
// in reverse order and never change the status.
func (r *run) execute(ctx context.Context, n *node.Node, res *model.StepResult) {
	res.StartedAt = time.Now()
	stepEnv := executor.MergeEnv(r.opts.BaseEnv, r.opts.Environment, n.Step.Environment)

	var cleanup []*config.Command
	failed := false
	for _, cmd := range n.Step.Commands {
		if cmd.Cleanup {
			cleanup = append(cleanup, cmd)
			continue
		}
		if failed {
			continue
		}
		cr := r.runCommand(ctx, n, cmd, stepEnv)
		res.Commands = append(res.Commands, cr)
		if cr.Skipped {
			continue
		}
		if !cr.Success && (!cmd.ContinueOnFailure || cr.Cancelled) {
			failed = true
		}
		if !cr.Cancelled {
			r.parse(ctx, n, cmd, cr, res)
		}
	}

	for i := len(cleanup) - 1; i >= 0; i-- {
		cmd := cleanup[i]
		if ctx.Err() != nil {
			res.Commands = append(res.Commands, model.CommandResult{
				Command:    cmd.Command,
				Cleanup:    true,
				Skipped:    true,
				SkipReason: reasonRunCancelled,
			})
			continue
		}
		cr := r.runCommand(ctx, n, cmd, stepEnv)
		if !cr.Success && !cr.Skipped {
			ctxlog.FromContext(ctx).Warn("Cleanup command failed.", "command", cmd.Command, "exit_code", cr.ExitCode)
		}
		res.Commands = append(res.Commands, cr)
	}

	res.Status = model.StatusSuccess
	if failed {
		res.Status = model.StatusFailed
	}
	res.FinishedAt = time.Now()
}

func (r *run) runCommand(ctx context.Context, n *node.Node, cmd *config.Command, stepEnv []string) model.CommandResult {
	logger := ctxlog.FromContext(ctx).With("command", cmd.Command)

	if cmd.Condition != "" {
		ok, err := r.evaluate(ctx, cmd.Condition)
		if err != nil {
			logger.Error("Command condition could not be evaluated.", "condition", cmd.Condition, "error", err)
			return model.CommandResult{
				Command:           cmd.Command,
				ExitCode:          -1,
				Cleanup:           cmd.Cleanup,
				ContinueOnFailure: cmd.ContinueOnFailure,
				Error:             err.Error(),
			}
		}
		if !ok {
			logger.Info("⏭️ Skipping command.", "condition", cmd.Condition)
			cr := model.CommandResult{
				Command:    cmd.Command,
				Cleanup:    cmd.Cleanup,
				Skipped:    true,
				SkipReason: fmt.Sprintf("condition '%s' is false", cmd.Condition),
			}
			r.publish(ctx, events.Event{Kind: events.CommandFinished, Step: n.Name, Command: cmd.Command, Status: model.StatusSkipped, Cleanup: cmd.Cleanup})
			return cr
		}
	}

	env := executor.MergeEnv(stepEnv, cmd.Environment)
	cwd := executor.ResolveCwd(r.opts.WorkingDirectory, cmd.Cwd)
	cr := r.runner.Execute(ctx, cmd, env, cwd)
	if cr.Cancelled {
		r.cancelled.Store(true)
	}

	if cr.Success {
		logger.Debug("Command succeeded.", "duration", cr.Duration, "attempts", cr.AttemptsUsed)
	} else {
		logger.Warn("Command failed.",
			"exit_code", cr.ExitCode,
			"attempts", cr.AttemptsUsed,
			"timed_out", cr.TimedOut,
			"cancelled", cr.Cancelled,
			"continue_on_failure", cmd.ContinueOnFailure,
		)
	}
	r.publish(ctx, events.Event{
		Kind:     events.CommandFinished,
		Step:     n.Name,
		Command:  cmd.Command,
		ExitCode: cr.ExitCode,
		Attempts: cr.AttemptsUsed,
		TimedOut: cr.TimedOut,
		Cleanup:  cmd.Cleanup,
		Success:  cr.Success,
		Duration: cr.Duration,
	})
	return cr
}

// parse feeds one command's output to the step parser. Failures are recorded
// on the step and never change its status.
func (r *run) parse(ctx context.Context, n *node.Node, cmd *config.Command, cr model.CommandResult, res *model.StepResult) {
	name := n.Step.Parser
	if name == "" {
		return
	}
	if r.parsers == nil {
		res.ParseErrors = append(res.ParseErrors, (&parser.ParseError{Parser: name, Err: fmt.Errorf("no parsers configured")}).Error())
		return
	}
	records, err := r.parsers.Parse(name, parser.Output{
		Stdout:   cr.Stdout,
		Stderr:   cr.Stderr,
		ExitCode: cr.ExitCode,
		Dir:      executor.ResolveCwd(r.opts.WorkingDirectory, cmd.Cwd),
	})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Parser failed, no records extracted.", "parser", name, "error", err)
		res.ParseErrors = append(res.ParseErrors, err.Error())
		return
	}
	res.ParsedRecords = append(res.ParsedRecords, records...)
}

func (r *run) finish(ctx context.Context, res *model.StepResult) error {
	logger := ctxlog.FromContext(ctx)
	if err := r.graph.MarkFinished(ctx, res.StepName, res); err != nil {
		return err
	}

	switch res.Status {
	case model.StatusSuccess:
		logger.Info("✅ Step finished.", "duration", res.Duration(), "records", len(res.ParsedRecords))
	case model.StatusFailed:
		logger.Error("❌ Step failed.", "duration", res.Duration(), "error", res.Error)
	default:
		logger.Info("⏭️ Step skipped.", "status", res.Status, "reason", res.SkipReason)
	}

	r.publish(ctx, events.Event{
		Kind:     events.StepFinished,
		Step:     res.StepName,
		Status:   res.Status,
		Reason:   res.SkipReason,
		Success:  res.Status == model.StatusSuccess,
		Ran:      !res.StartedAt.IsZero(),
		Records:  len(res.ParsedRecords),
		Duration: res.Duration(),
	})
	return nil
}

func (r *run) evaluate(ctx context.Context, name string) (bool, error) {
	if r.conditions == nil {
		return false, fmt.Errorf("condition '%s' used but no conditions are configured", name)
	}
	return r.conditions.Evaluate(name, condition.Context{
		Platform: r.opts.Platform,
		Results: condition.ResultsFunc(func(step string) (*model.StepResult, bool) {
			return r.graph.Result(ctx, step)
		}),
	})
}
