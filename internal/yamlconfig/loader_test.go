package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPlan = `
name: conformance
version: "1.0"
global:
  working_directory: ${WORKSPACE}
  timeout: 600
  parallel: true
  max_workers: 2
  environment:
    GOFLAGS: -count=1
steps:
  - name: build
    commands:
      - command: make build
        timeout: 120
        retry:
          max_attempts: 3
          delay: 0.5
          on_failure: triage
  - name: test
    depends_on: [build]
    condition: linux
    parser: pytest_results
    commands:
      - command: pytest -v
        continue_on_failure: true
        expected_exit_code: 1
        environment:
          PYTHONPATH: ${WORKSPACE}/src
      - command: rm -rf .cache
        cleanup: true
  - name: triage
    enabled: false
    commands:
      - command: ./collect-logs.sh
        output_file: triage.txt
parsers:
  pytest_results:
    type: structured
    input: combined
    patterns:
      - '::(?P<test_name>\w+) (?P<status>PASSED|FAILED)'
conditions:
  x86_linux: platform.os == "linux" && platform.arch == "amd64"
repositories:
  - name: suite
    url: https://example.com/suite.git
    branch: main
`

func lookup(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoader_Parse(t *testing.T) {
	// --- Arrange ---
	l := &Loader{Lookup: lookup(map[string]string{"WORKSPACE": "/ws"})}

	// --- Act ---
	plan, err := l.Parse([]byte(fullPlan))

	// --- Assert ---
	require.NoError(t, err)
	require.NoError(t, config.Validate(plan))
	assert.Equal(t, "conformance", plan.Name)
	assert.Equal(t, "/ws", plan.Global.WorkingDirectory)
	assert.Equal(t, config.DefaultOutputDirectory, plan.Global.OutputDirectory)
	assert.Equal(t, 600.0, plan.Global.Timeout)
	assert.True(t, plan.Global.Parallel)
	assert.Equal(t, 2, plan.Global.MaxWorkers)
	assert.Equal(t, []string{"build", "test", "triage"}, plan.StepNames())

	build := plan.Steps[0]
	require.NotNil(t, build.Commands[0].Retry)
	assert.Equal(t, 3, build.Commands[0].Retry.MaxAttempts)
	assert.Equal(t, "triage", build.Commands[0].Retry.OnFailure)

	test := plan.Steps[1]
	assert.Equal(t, []string{"build"}, test.DependsOn)
	assert.Equal(t, "/ws/src", test.Commands[0].Environment["PYTHONPATH"])
	assert.Equal(t, 1, test.Commands[0].ExpectedExitCode)
	assert.True(t, test.Commands[1].Cleanup)

	assert.False(t, plan.Steps[2].IsEnabled())
	assert.Equal(t, "triage.txt", plan.Steps[2].Commands[0].OutputFile)

	pc := plan.Parsers["pytest_results"]
	assert.Equal(t, "structured", pc.Type)
	assert.Equal(t, "combined", pc.Options["input"])
	assert.Len(t, pc.Options["patterns"], 1)
	assert.Contains(t, plan.Conditions, "x86_linux")
	require.Len(t, plan.Repositories, 1)
	assert.Equal(t, "main", plan.Repositories[0].Branch)
}

func TestLoader_ParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"empty document", ""},
		{"malformed yaml", "steps: [\n"},
		{"unknown top-level key", "name: x\nstepz: []\n"},
		{"unknown command key", "name: x\nsteps:\n  - name: a\n    commands:\n      - command: true\n        retries: 3\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nightly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - name: a\n    commands:\n      - command: echo hi\n"), 0o644))

	plan, err := NewLoader().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "nightly", plan.Name, "name defaults to the file name")
	assert.Equal(t, float64(config.DefaultTimeoutSeconds), plan.Global.Timeout)

	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
