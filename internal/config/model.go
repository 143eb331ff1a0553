package config

import "time"

const (
	DefaultWorkingDirectory = "."
	DefaultOutputDirectory  = "results"
	DefaultTimeoutSeconds   = 3600
	DefaultMaxWorkers       = 4
)

// Plan is the unified, format-agnostic representation of an evaluation plan.
type Plan struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`

	Global       Global                  `yaml:"global"`
	Steps        []*Step                 `yaml:"steps"`
	Parsers      map[string]ParserConfig `yaml:"parsers,omitempty"`
	Conditions   map[string]string       `yaml:"conditions,omitempty"`
	Repositories []Repository            `yaml:"repositories,omitempty"`
}

// Global holds run-wide settings.
type Global struct {
	WorkingDirectory string `yaml:"working_directory"`
	OutputDirectory  string `yaml:"output_directory"`
	// Timeout is the default per-command timeout in seconds.
	Timeout     float64           `yaml:"timeout"`
	Parallel    bool              `yaml:"parallel"`
	MaxWorkers  int               `yaml:"max_workers,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Step is a named unit of work made of ordered commands.
type Step struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Enabled     *bool             `yaml:"enabled,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Condition   string            `yaml:"condition,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Commands    []*Command        `yaml:"commands"`
	Parser      string            `yaml:"parser,omitempty"`
}

// IsEnabled returns the enabled flag, defaulting to true.
func (s *Step) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// RecoveryTargets lists the on_failure steps named by the step's commands,
// in command order without duplicates.
func (s *Step) RecoveryTargets() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range s.Commands {
		if c.Retry == nil || c.Retry.OnFailure == "" {
			continue
		}
		if _, ok := seen[c.Retry.OnFailure]; ok {
			continue
		}
		seen[c.Retry.OnFailure] = struct{}{}
		out = append(out, c.Retry.OnFailure)
	}
	return out
}

// Command is one shell invocation.
type Command struct {
	Command string `yaml:"command"`
	Cwd     string `yaml:"cwd,omitempty"`
	// Timeout in seconds; zero inherits Global.Timeout.
	Timeout           float64           `yaml:"timeout,omitempty"`
	ExpectedExitCode  int               `yaml:"expected_exit_code,omitempty"`
	Environment       map[string]string `yaml:"environment,omitempty"`
	ContinueOnFailure bool              `yaml:"continue_on_failure,omitempty"`
	Retry             *Retry            `yaml:"retry,omitempty"`
	Condition         string            `yaml:"condition,omitempty"`
	OutputFile        string            `yaml:"output_file,omitempty"`
	// Cleanup commands run after the normal ones, last declared first, and
	// never affect the step status.
	Cleanup bool `yaml:"cleanup,omitempty"`
}

// TimeoutDuration resolves the effective timeout against a fallback.
func (c *Command) TimeoutDuration(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return Seconds(c.Timeout)
	}
	return fallback
}

// Attempts is the total number of attempts allowed, including the first.
func (c *Command) Attempts() int {
	if c.Retry == nil || c.Retry.MaxAttempts < 1 {
		return 1
	}
	return c.Retry.MaxAttempts
}

// Retry is a bounded re-execution policy with a fixed delay.
type Retry struct {
	MaxAttempts int `yaml:"max_attempts"`
	// Delay between attempts in seconds.
	Delay     float64 `yaml:"delay,omitempty"`
	OnFailure string  `yaml:"on_failure,omitempty"`
}

// DelayDuration returns the fixed wait between attempts.
func (r *Retry) DelayDuration() time.Duration {
	if r == nil || r.Delay <= 0 {
		return 0
	}
	return Seconds(r.Delay)
}

// ParserConfig names a parser kind and carries its kind-specific options.
type ParserConfig struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:",inline"`
}

// Repository is carried through for external checkout tooling only.
type Repository struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Branch     string `yaml:"branch,omitempty"`
	Path       string `yaml:"path,omitempty"`
	Submodules bool   `yaml:"submodules,omitempty"`
}

// Seconds converts fractional seconds into a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// DefaultTimeout returns the global command timeout.
func (g *Global) DefaultTimeout() time.Duration {
	if g.Timeout <= 0 {
		return 0
	}
	return Seconds(g.Timeout)
}

// ApplyDefaults fills unset global settings.
func (p *Plan) ApplyDefaults() {
	if p.Global.WorkingDirectory == "" {
		p.Global.WorkingDirectory = DefaultWorkingDirectory
	}
	if p.Global.OutputDirectory == "" {
		p.Global.OutputDirectory = DefaultOutputDirectory
	}
	if p.Global.Timeout == 0 {
		p.Global.Timeout = DefaultTimeoutSeconds
	}
	if p.Global.MaxWorkers <= 0 {
		p.Global.MaxWorkers = DefaultMaxWorkers
	}
}

// StepNames returns all declared step names in declaration order.
func (p *Plan) StepNames() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Name)
	}
	return names
}
