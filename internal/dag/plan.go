package dag

import (
	"github.com/specialistvlad/evalgrid/internal/config"
)

// Plan is a validated, ordered execution plan. It is immutable once built.
type Plan struct {
	graph    *Graph
	declared []*config.Step
	steps    map[string]*config.Step
	order    []string
	opts     options
}

// RefFunc returns the steps whose outcome the named condition reads.
type RefFunc func(condition string) []string

type options struct {
	conditionRefs RefFunc
}

// Option configures Build.
type Option func(*options)

// WithConditionRefs orders every step after the steps its own condition and
// its command conditions read. These edges do not propagate failure.
func WithConditionRefs(refs RefFunc) Option {
	return func(o *options) {
		o.conditionRefs = refs
	}
}

// conditionSources lists, without duplicates, the steps read by the
// conditions of s.
func (o options) conditionSources(s *config.Step) []string {
	if o.conditionRefs == nil {
		return nil
	}
	names := []string{s.Condition}
	for _, c := range s.Commands {
		names = append(names, c.Condition)
	}

	var out []string
	seen := make(map[string]struct{})
	for _, name := range names {
		if name == "" {
			continue
		}
		for _, ref := range o.conditionRefs(name) {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

// Build validates the steps and produces an execution plan. It rejects
// empty or duplicate names, depends_on and on_failure references to unknown
// steps, and cycles over every edge kind.
func Build(steps []*config.Step, opts ...Option) (*Plan, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := New()
	index := make(map[string]*config.Step, len(steps))

	for _, s := range steps {
		if s.Name == "" {
			return nil, &GraphError{Kind: EmptyName}
		}
		if _, dup := index[s.Name]; dup {
			return nil, &GraphError{Kind: DuplicateStep, Step: s.Name}
		}
		index[s.Name] = s
		g.AddNode(s.Name)
	}

	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if dep == s.Name {
				return nil, &GraphError{Kind: Cycle, Step: s.Name, CyclePath: []string{s.Name, s.Name}}
			}
			if _, ok := index[dep]; !ok {
				return nil, &GraphError{Kind: UnknownDependency, Step: s.Name, Ref: dep}
			}
			if err := g.AddEdge(dep, s.Name, hardEdge); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range steps {
		for _, target := range s.RecoveryTargets() {
			if target == s.Name {
				return nil, &GraphError{Kind: Cycle, Step: s.Name, CyclePath: []string{s.Name, s.Name}}
			}
			if _, ok := index[target]; !ok {
				return nil, &GraphError{Kind: UnknownStep, Step: s.Name, Ref: target}
			}
			if err := g.AddEdge(s.Name, target, recoveryEdge); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range steps {
		for _, ref := range o.conditionSources(s) {
			if ref == s.Name {
				return nil, &GraphError{Kind: Cycle, Step: s.Name, CyclePath: []string{s.Name, s.Name}}
			}
			if _, ok := index[ref]; !ok {
				return nil, &GraphError{Kind: UnknownStep, Step: s.Name, Ref: ref}
			}
			if err := g.AddEdge(ref, s.Name, conditionEdge); err != nil {
				return nil, err
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	return &Plan{
		graph:    g,
		declared: steps,
		steps:    index,
		order:    g.TopologicalOrder(),
		opts:     o,
	}, nil
}

// Order returns the step names in execution order.
func (p *Plan) Order() []string {
	return append([]string(nil), p.order...)
}

// Steps returns the step definitions in execution order.
func (p *Plan) Steps() []*config.Step {
	out := make([]*config.Step, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.steps[name])
	}
	return out
}

// Len is the number of steps in the plan.
func (p *Plan) Len() int {
	return len(p.order)
}

// Step looks up a step definition by name.
func (p *Plan) Step(name string) (*config.Step, bool) {
	s, ok := p.steps[name]
	return s, ok
}

// Has reports whether the plan contains the named step.
func (p *Plan) Has(name string) bool {
	_, ok := p.steps[name]
	return ok
}

// Dependencies returns the depends_on steps of name. Only these propagate
// failure.
func (p *Plan) Dependencies(name string) []string {
	return p.graph.dependencies(name, true)
}

// Predecessors returns every step that must reach a terminal state before
// name may start, including recovery origins and condition sources.
func (p *Plan) Predecessors(name string) []string {
	return p.graph.dependencies(name, false)
}

// Dependents returns every step that waits for name.
func (p *Plan) Dependents(name string) []string {
	return p.graph.dependents(name)
}

// RecoveryOrigins returns the steps whose commands name this step as their
// on_failure target.
func (p *Plan) RecoveryOrigins(name string) []string {
	return p.graph.dependenciesOfKind(name, recoveryEdge)
}

// ConditionSources returns the steps name waits for only because one of its
// conditions reads their outcome.
func (p *Plan) ConditionSources(name string) []string {
	return p.graph.dependenciesOfKind(name, conditionEdge)
}

// Restrict returns a plan reduced to the requested steps, their transitive
// dependencies, the steps their conditions read and the recovery steps any of
// them may trigger. Disabled
// dependencies stay in the plan and resolve to Skipped at run time. An empty
// request returns the plan unchanged.
func (p *Plan) Restrict(requested []string) (*Plan, error) {
	if len(requested) == 0 {
		return p, nil
	}

	keep := make(map[string]struct{})
	queue := make([]string, 0, len(requested))
	for _, name := range requested {
		if !p.Has(name) {
			return nil, &GraphError{Kind: UnknownStep, Ref: name}
		}
		queue = append(queue, name)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := keep[name]; ok {
			continue
		}
		keep[name] = struct{}{}
		queue = append(queue, p.Dependencies(name)...)
		queue = append(queue, p.steps[name].RecoveryTargets()...)
		queue = append(queue, p.opts.conditionSources(p.steps[name])...)
	}

	subset := make([]*config.Step, 0, len(keep))
	for _, s := range p.declared {
		if _, ok := keep[s.Name]; ok {
			subset = append(subset, s)
		}
	}
	return Build(subset, func(o *options) { *o = p.opts })
}
