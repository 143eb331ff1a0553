package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/model"
)

const (
	KindSimple     = "simple"
	KindStructured = "structured"
	KindJSON       = "json"
	KindPytest     = "pytest"
)

// Output is the raw material handed to a parser.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Dir is the working directory of the command, used to resolve relative
	// file options.
	Dir string
}

// Combined joins stdout and stderr.
func (o Output) Combined() string {
	if o.Stderr == "" {
		return o.Stdout
	}
	if o.Stdout == "" {
		return o.Stderr
	}
	return strings.TrimSuffix(o.Stdout, "\n") + "\n" + o.Stderr
}

// Parser consumes raw output and produces records.
type Parser interface {
	Parse(out Output) ([]model.MetricRecord, error)
}

// Factory builds a configured parser from kind-specific options.
type Factory func(opts map[string]any) (Parser, error)

// Registry maps parser kinds to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with every built-in kind registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(KindSimple, newSimple)
	r.Register(KindStructured, newStructured)
	r.Register("regex", newStructured)
	r.Register("structured-text", newStructured)
	r.Register("structured_text", newStructured)
	r.Register(KindJSON, newJSON)
	r.Register(KindPytest, newPytest)
	return r
}

// Register adds a parser kind. It panics if the kind is already registered.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("parser: kind '%s' registered twice", kind))
	}
	r.factories[kind] = f
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds a single parser of the given kind.
func (r *Registry) New(kind string, opts map[string]any) (Parser, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown parser type '%s'", kind)
	}
	return f(opts)
}

// Build compiles the plan's parser table. Names in refs that are not in
// defs are treated as a bare kind with default options. Every problem is
// reported together.
func (r *Registry) Build(defs map[string]config.ParserConfig, refs []string) (*Set, error) {
	set := &Set{parsers: make(map[string]Parser, len(defs))}
	var errs []error

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := defs[name]
		p, err := r.New(def.Type, def.Options)
		if err != nil {
			errs = append(errs, fmt.Errorf("parser '%s': %w", name, err))
			continue
		}
		set.parsers[name] = p
	}

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, ok := set.parsers[ref]; ok {
			continue
		}
		if _, defined := defs[ref]; defined {
			continue // already reported
		}
		p, err := r.New(ref, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("parser '%s' is neither defined nor a known type", ref))
			continue
		}
		set.parsers[ref] = p
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}

// Set is a compiled, read-only collection of named parsers.
type Set struct {
	parsers map[string]Parser
}

// Has reports whether name is available.
func (s *Set) Has(name string) bool {
	_, ok := s.parsers[name]
	return ok
}

// Parse dispatches out to the named parser. On failure it returns an empty
// record sequence and a *ParseError.
func (s *Set) Parse(name string, out Output) ([]model.MetricRecord, error) {
	p, ok := s.parsers[name]
	if !ok {
		return nil, &ParseError{Parser: name, Err: errors.New("parser not configured")}
	}
	records, err := p.Parse(out)
	if err != nil {
		return nil, &ParseError{Parser: name, Err: err}
	}
	if records == nil {
		records = []model.MetricRecord{}
	}
	return records, nil
}
