package config

import (
	"os"
	"regexp"
)

var envRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnv replaces ${VAR} references with values from lookup. Unknown
// variables are left verbatim.
func ExpandEnv(s string, lookup func(string) (string, bool)) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return ref
	})
}

// ExpandValue walks decoded option values (maps, slices, strings) and
// expands every string it finds.
func ExpandValue(v any, lookup func(string) (string, bool)) any {
	switch t := v.(type) {
	case string:
		return ExpandEnv(t, lookup)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ExpandValue(item, lookup)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ExpandValue(item, lookup)
		}
		return out
	default:
		return v
	}
}

// ExpandPlan substitutes environment references in every string field of
// the plan in place.
func ExpandPlan(p *Plan, lookup func(string) (string, bool)) {
	x := func(s string) string { return ExpandEnv(s, lookup) }
	xm := func(m map[string]string) {
		for k, v := range m {
			m[k] = x(v)
		}
	}

	p.Name = x(p.Name)
	p.Global.WorkingDirectory = x(p.Global.WorkingDirectory)
	p.Global.OutputDirectory = x(p.Global.OutputDirectory)
	xm(p.Global.Environment)
	for _, s := range p.Steps {
		s.Description = x(s.Description)
		xm(s.Environment)
		for _, c := range s.Commands {
			c.Command = x(c.Command)
			c.Cwd = x(c.Cwd)
			c.OutputFile = x(c.OutputFile)
			xm(c.Environment)
		}
	}
	for name, pc := range p.Parsers {
		if pc.Options != nil {
			pc.Options = ExpandValue(pc.Options, lookup).(map[string]any)
		}
		p.Parsers[name] = pc
	}
	for i := range p.Repositories {
		p.Repositories[i].URL = x(p.Repositories[i].URL)
		p.Repositories[i].Path = x(p.Repositories[i].Path)
	}
}
