package config

import (
	"errors"
	"fmt"
)

// Validate checks the structural rules of a plan that do not need the
// dependency graph, the condition table or the parser registry. All problems
// are reported together.
func Validate(p *Plan) error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("plan: missing required field: name"))
	}
	if len(p.Steps) == 0 {
		errs = append(errs, errors.New("plan: missing required field: steps"))
	}

	for i, s := range p.Steps {
		if s == nil {
			errs = append(errs, fmt.Errorf("step %d: empty definition", i))
			continue
		}
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			errs = append(errs, fmt.Errorf("step %d: missing required field: name", i))
		}
		if len(s.Commands) == 0 {
			errs = append(errs, fmt.Errorf("step %s: missing required field: commands", label))
		}
		for j, c := range s.Commands {
			errs = append(errs, validateCommand(label, j, c)...)
		}
	}

	for name, pc := range p.Parsers {
		if pc.Type == "" {
			errs = append(errs, fmt.Errorf("parser %s: missing required field: type", name))
		}
	}
	for i, r := range p.Repositories {
		if r.Name == "" || r.URL == "" {
			errs = append(errs, fmt.Errorf("repository %d: name and url are required", i))
		}
	}
	return errors.Join(errs...)
}

func validateCommand(step string, idx int, c *Command) []error {
	if c == nil {
		return []error{fmt.Errorf("step %s command %d: empty definition", step, idx)}
	}
	var errs []error
	if c.Command == "" {
		errs = append(errs, fmt.Errorf("step %s command %d: missing required field: command", step, idx))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("step %s command %d: timeout must be > 0", step, idx))
	}
	if c.Retry != nil {
		if c.Retry.MaxAttempts < 1 {
			errs = append(errs, fmt.Errorf("step %s command %d: retry.max_attempts must be >= 1", step, idx))
		}
		if c.Retry.Delay < 0 {
			errs = append(errs, fmt.Errorf("step %s command %d: retry.delay must be >= 0", step, idx))
		}
		if c.Retry.OnFailure == step {
			errs = append(errs, fmt.Errorf("step %s command %d: retry.on_failure cannot name its own step", step, idx))
		}
	}
	if c.Cleanup && c.Retry != nil && c.Retry.OnFailure != "" {
		errs = append(errs, fmt.Errorf("step %s command %d: cleanup commands cannot trigger recovery", step, idx))
	}
	return errs
}
