package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a plan file may contain.
type fileRoot struct {
	Plans        []*planBlock       `hcl:"plan,block"`
	Globals      []*globalBlock     `hcl:"global,block"`
	Steps        []*stepBlock       `hcl:"step,block"`
	Parsers      []*parserBlock     `hcl:"parser,block"`
	Conditions   []*conditionBlock  `hcl:"condition,block"`
	Repositories []*repositoryBlock `hcl:"repository,block"`
}

type planBlock struct {
	Name        string `hcl:"name,label"`
	Version     string `hcl:"version,optional"`
	Description string `hcl:"description,optional"`
}

type globalBlock struct {
	WorkingDirectory string            `hcl:"working_directory,optional"`
	OutputDirectory  string            `hcl:"output_directory,optional"`
	Timeout          float64           `hcl:"timeout,optional"`
	Parallel         bool              `hcl:"parallel,optional"`
	MaxWorkers       int               `hcl:"max_workers,optional"`
	Environment      map[string]string `hcl:"environment,optional"`
}

type stepBlock struct {
	Name        string            `hcl:"name,label"`
	Description string            `hcl:"description,optional"`
	Enabled     *bool             `hcl:"enabled,optional"`
	DependsOn   []string          `hcl:"depends_on,optional"`
	Condition   string            `hcl:"condition,optional"`
	Environment map[string]string `hcl:"environment,optional"`
	Parser      string            `hcl:"parser,optional"`
	Commands    []*commandBlock   `hcl:"command,block"`
}

type commandBlock struct {
	Run               string            `hcl:"run"`
	Cwd               string            `hcl:"cwd,optional"`
	Timeout           float64           `hcl:"timeout,optional"`
	ExpectedExitCode  int               `hcl:"expected_exit_code,optional"`
	Environment       map[string]string `hcl:"environment,optional"`
	ContinueOnFailure bool              `hcl:"continue_on_failure,optional"`
	Condition         string            `hcl:"condition,optional"`
	OutputFile        string            `hcl:"output_file,optional"`
	Cleanup           bool              `hcl:"cleanup,optional"`
	Retry             *retryBlock       `hcl:"retry,block"`
}

type retryBlock struct {
	MaxAttempts int     `hcl:"max_attempts"`
	Delay       float64 `hcl:"delay,optional"`
	OnFailure   string  `hcl:"on_failure,optional"`
}

// parserBlock keeps every attribute besides type as kind-specific options.
type parserBlock struct {
	Name    string   `hcl:"name,label"`
	Type    string   `hcl:"type"`
	Options hcl.Body `hcl:",remain"`
}

type conditionBlock struct {
	Name       string `hcl:"name,label"`
	Expression string `hcl:"expression"`
}

type repositoryBlock struct {
	Name       string `hcl:"name,label"`
	URL        string `hcl:"url"`
	Branch     string `hcl:"branch,optional"`
	Path       string `hcl:"path,optional"`
	Submodules bool   `hcl:"submodules,optional"`
}
