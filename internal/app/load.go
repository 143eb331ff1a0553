package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/condition"
	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/dag"
	"github.com/specialistvlad/evalgrid/internal/hcl"
	"github.com/specialistvlad/evalgrid/internal/parser"
	"github.com/specialistvlad/evalgrid/internal/yamlconfig"
)

// LoaderFor picks the plan loader by extension: YAML for .yaml/.yml, HCL for
// everything else including directories.
func LoaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlconfig.NewLoader()
	default:
		return hcl.NewLoader()
	}
}

// Prepared is a validated plan ready to execute.
type Prepared struct {
	Plan       *dag.Plan
	Conditions *condition.Evaluator
	Parsers    *parser.Set
}

// LoadPlan reads and structurally validates the plan.
func (app *App) LoadPlan(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading plan...", "plan_path", app.config.PlanPath)

	plan, err := app.loader.Load(ctx, app.config.PlanPath)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if err := config.Validate(plan); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	app.plan = plan
	logger.Info("Plan loaded successfully.", "plan", plan.Name, "steps_found", len(plan.Steps))
	return nil
}

// Prepare builds the dependency graph, compiles conditions and parsers, and
// checks every reference. All condition and parser problems are reported
// together.
func (app *App) Prepare(ctx context.Context) (*Prepared, error) {
	logger := ctxlog.FromContext(ctx)
	if app.plan == nil {
		return nil, errors.New("plan is not loaded")
	}

	conds, err := condition.New(app.plan.Conditions, app.plan.StepNames())
	if err != nil {
		return nil, fmt.Errorf("invalid conditions: %w", err)
	}
	// Unresolvable names are reported below against the selected steps.
	refs := func(name string) []string {
		if conds.Validate(name) != nil {
			return nil
		}
		return conds.StepRefs(name)
	}

	full, err := dag.Build(app.plan.Steps, dag.WithConditionRefs(refs))
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	plan, err := full.Restrict(app.config.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to select steps: %w", err)
	}
	logger.Debug("Dependency graph built.", "node_count", plan.Len(), "order", plan.Order())

	var errs []error
	var parserRefs []string
	for _, s := range plan.Steps() {
		if s.Condition != "" {
			if err := conds.Validate(s.Condition); err != nil {
				errs = append(errs, fmt.Errorf("step %s: %w", s.Name, err))
			}
		}
		for i, c := range s.Commands {
			if c.Condition == "" {
				continue
			}
			if err := conds.Validate(c.Condition); err != nil {
				errs = append(errs, fmt.Errorf("step %s, command %d: %w", s.Name, i+1, err))
			}
		}
		parserRefs = append(parserRefs, s.Parser)
	}

	parsers, err := app.parsers.Build(app.plan.Parsers, parserRefs)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid plan references: %w", errors.Join(errs...))
	}

	logger.Debug("Plan prepared.", "conditions", conds.Names(), "parsers", len(app.plan.Parsers))
	return &Prepared{Plan: plan, Conditions: conds, Parsers: parsers}, nil
}

// baseDir is the directory relative plan paths resolve against.
func (app *App) baseDir() string {
	path := app.config.PlanPath
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func (app *App) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(app.baseDir(), path)
}

// workingDirectory is global.working_directory resolved against the plan.
func (app *App) workingDirectory() string {
	return app.resolve(app.plan.Global.WorkingDirectory)
}

// outputDirectory prefers the command-line override, used as given.
func (app *App) outputDirectory() string {
	if app.config.OutputDir != "" {
		return app.config.OutputDir
	}
	return app.resolve(app.plan.Global.OutputDirectory)
}
