package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/executor"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/recorder"
	"github.com/specialistvlad/evalgrid/internal/scheduler"
	"github.com/specialistvlad/evalgrid/internal/session"
)

// Run loads, validates and executes the plan, then persists the results.
// In validate-only mode it prints the execution order and returns a nil
// result. A failed run is not an error; callers inspect the result.
func (app *App) Run(ctx context.Context) (*model.RunResult, error) {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	app.logger.Debug("App.Run method started.")

	if err := app.LoadPlan(ctx); err != nil {
		return nil, err
	}
	prep, err := app.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	if app.config.ValidateOnly {
		app.printPlan(prep)
		return nil, nil
	}

	if err := app.healthCheckServer(); err != nil {
		return nil, err
	}
	defer app.closeHealthCheckServer()

	sink, closeSink := app.eventSink(ctx)
	defer closeSink()

	global := app.plan.Global
	parallel := global.Parallel
	if app.config.Parallel != nil {
		parallel = *app.config.Parallel
	}
	workers := global.MaxWorkers
	if app.config.WorkerCount > 0 {
		workers = app.config.WorkerCount
	}
	outDir := app.outputDirectory()

	sess, err := app.sessionFactory.NewSession(ctx, session.Request{
		Plan:       prep.Plan,
		Conditions: prep.Conditions,
		Parsers:    prep.Parsers,
		Sink:       sink,
		Executor: executor.Options{
			OutputDir:      outDir,
			DefaultTimeout: global.DefaultTimeout(),
		},
		Scheduler: scheduler.Options{
			PlanName:         app.plan.Name,
			Parallel:         parallel,
			Workers:          workers,
			RunTimeout:       app.config.RunTimeout,
			WorkingDirectory: app.workingDirectory(),
			Environment:      global.Environment,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer sess.Close(ctx)

	sched, err := sess.GetScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduler: %w", err)
	}
	result, err := sched.Run(ctx)
	if err != nil {
		return result, fmt.Errorf("execution failed: %w", err)
	}

	paths, err := recorder.New(outDir).Write(ctx, result)
	if err != nil {
		return result, fmt.Errorf("failed to persist results: %w", err)
	}
	app.logger.Info("Results written.", "output_directory", outDir, "files", len(paths))

	app.logger.Debug("App.Run method finished.")
	return result, nil
}

// printPlan writes the validated execution order for -validate.
func (app *App) printPlan(prep *Prepared) {
	fmt.Fprintf(app.outW, "Plan %q is valid: %d step(s)\n", app.plan.Name, prep.Plan.Len())
	fmt.Fprintln(app.outW, "Execution order:")
	for i, name := range prep.Plan.Order() {
		line := fmt.Sprintf("  %d. %s", i+1, name)
		step, _ := prep.Plan.Step(name)
		var notes []string
		if deps := prep.Plan.Dependencies(name); len(deps) > 0 {
			notes = append(notes, "depends on: "+strings.Join(deps, ", "))
		}
		if origins := prep.Plan.RecoveryOrigins(name); len(origins) > 0 {
			notes = append(notes, "recovers: "+strings.Join(origins, ", "))
		}
		if sources := prep.Plan.ConditionSources(name); len(sources) > 0 {
			notes = append(notes, "after: "+strings.Join(sources, ", "))
		}
		if step != nil && !step.IsEnabled() {
			notes = append(notes, "disabled")
		}
		if step != nil && step.Condition != "" {
			notes = append(notes, "if "+step.Condition)
		}
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, "; ") + ")"
		}
		fmt.Fprintln(app.outW, line)
	}
}
