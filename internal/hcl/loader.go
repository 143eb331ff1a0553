package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the `env` object and ${VAR} substitution; nil means
	// os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL plan loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses a file or every .hcl file below a directory and merges the
// blocks into one plan.
func (l *Loader) Load(ctx context.Context, path string) (*config.Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := l.findFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	environ := l.environ()
	evalCtx := &hcl.EvalContext{Variables: map[string]cty.Value{"env": envObject(environ)}}
	parser := hclparse.NewParser()
	plan := &config.Plan{}
	var sawPlan, sawGlobal bool

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Plans {
			if sawPlan {
				return nil, fmt.Errorf("%s: only one plan block is allowed", file)
			}
			sawPlan = true
			plan.Name, plan.Version, plan.Description = p.Name, p.Version, p.Description
		}
		for _, g := range root.Globals {
			if sawGlobal {
				return nil, fmt.Errorf("%s: only one global block is allowed", file)
			}
			sawGlobal = true
			plan.Global = translateGlobal(g)
		}
		for _, s := range root.Steps {
			plan.Steps = append(plan.Steps, translateStep(s))
		}
		for _, p := range root.Parsers {
			pc, err := translateParser(p, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			if plan.Parsers == nil {
				plan.Parsers = make(map[string]config.ParserConfig)
			}
			if _, dup := plan.Parsers[p.Name]; dup {
				return nil, fmt.Errorf("%s: parser '%s' is defined twice", file, p.Name)
			}
			plan.Parsers[p.Name] = pc
		}
		for _, c := range root.Conditions {
			if plan.Conditions == nil {
				plan.Conditions = make(map[string]string)
			}
			if _, dup := plan.Conditions[c.Name]; dup {
				return nil, fmt.Errorf("%s: condition '%s' is defined twice", file, c.Name)
			}
			plan.Conditions[c.Name] = c.Expression
		}
		for _, r := range root.Repositories {
			plan.Repositories = append(plan.Repositories, config.Repository{
				Name: r.Name, URL: r.URL, Branch: r.Branch, Path: r.Path, Submodules: r.Submodules,
			})
		}
	}

	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	config.ExpandPlan(plan, lookupIn(environ))
	plan.ApplyDefaults()

	logger.Debug("HCL loading complete.", "steps", len(plan.Steps), "parsers", len(plan.Parsers), "conditions", len(plan.Conditions))
	return plan, nil
}

func (l *Loader) environ() []string {
	if l.Environ != nil {
		return l.Environ()
	}
	return os.Environ()
}

// findFiles returns path itself, or the sorted .hcl files below it.
func (l *Loader) findFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", path)
	}
	return files, nil
}

func translateGlobal(g *globalBlock) config.Global {
	return config.Global{
		WorkingDirectory: g.WorkingDirectory,
		OutputDirectory:  g.OutputDirectory,
		Timeout:          g.Timeout,
		Parallel:         g.Parallel,
		MaxWorkers:       g.MaxWorkers,
		Environment:      g.Environment,
	}
}

func translateStep(s *stepBlock) *config.Step {
	step := &config.Step{
		Name:        s.Name,
		Description: s.Description,
		Enabled:     s.Enabled,
		DependsOn:   s.DependsOn,
		Condition:   s.Condition,
		Environment: s.Environment,
		Parser:      s.Parser,
	}
	for _, c := range s.Commands {
		cmd := &config.Command{
			Command:           c.Run,
			Cwd:               c.Cwd,
			Timeout:           c.Timeout,
			ExpectedExitCode:  c.ExpectedExitCode,
			Environment:       c.Environment,
			ContinueOnFailure: c.ContinueOnFailure,
			Condition:         c.Condition,
			OutputFile:        c.OutputFile,
			Cleanup:           c.Cleanup,
		}
		if c.Retry != nil {
			cmd.Retry = &config.Retry{
				MaxAttempts: c.Retry.MaxAttempts,
				Delay:       c.Retry.Delay,
				OnFailure:   c.Retry.OnFailure,
			}
		}
		step.Commands = append(step.Commands, cmd)
	}
	return step
}

func translateParser(p *parserBlock, evalCtx *hcl.EvalContext) (config.ParserConfig, error) {
	pc := config.ParserConfig{Type: p.Type}
	if p.Options == nil {
		return pc, nil
	}
	attrs, diags := p.Options.JustAttributes()
	if diags.HasErrors() {
		return pc, fmt.Errorf("parser '%s': %w", p.Name, diags)
	}
	if len(attrs) == 0 {
		return pc, nil
	}
	pc.Options = make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return pc, fmt.Errorf("parser '%s', option '%s': %w", p.Name, name, diags)
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			return pc, fmt.Errorf("parser '%s', option '%s': %w", p.Name, name, err)
		}
		pc.Options[name] = goVal
	}
	return pc, nil
}
