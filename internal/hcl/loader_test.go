package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planFile = `
plan "conformance" {
  version = "1.0"
}

global {
  working_directory = "${env.WORKSPACE}"
  timeout           = 600
  parallel          = true
  max_workers       = 2
  environment = {
    GOFLAGS = "-count=1"
  }
}

condition "x86_linux" {
  expression = "platform.os == \"linux\" && platform.arch == \"amd64\""
}

parser "pytest_results" {
  type     = "structured"
  input    = "combined"
  patterns = ["::(?P<test_name>\\w+) (?P<status>PASSED|FAILED)"]
  static   = { suite = "unit", shard = 2 }
}

repository "suite" {
  url    = "https://example.com/suite.git"
  branch = "main"
}
`

const stepsFile = `
step "build" {
  command {
    run     = "make build"
    timeout = 120
    retry {
      max_attempts = 3
      delay        = 0.5
      on_failure   = "triage"
    }
  }
}

step "test" {
  depends_on = ["build"]
  condition  = "linux"
  parser     = "pytest_results"

  command {
    run                 = "pytest -v"
    continue_on_failure = true
    expected_exit_code  = 1
    environment = {
      PYTHONPATH = "$${WORKSPACE}/src"
    }
  }

  command {
    run     = "rm -rf .cache"
    cleanup = true
  }
}

step "triage" {
  enabled = false
  command {
    run         = "./collect-logs.sh"
    output_file = "triage.txt"
  }
}
`

func testLoader() *Loader {
	return &Loader{Environ: func() []string { return []string{"WORKSPACE=/ws"} }}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Directory(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "00-plan.hcl", planFile)
	writeFile(t, dir, "10-steps.hcl", stepsFile)
	writeFile(t, dir, "notes.txt", "ignored")

	// --- Act ---
	plan, err := testLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.NoError(t, config.Validate(plan))

	assert.Equal(t, "conformance", plan.Name)
	assert.Equal(t, "1.0", plan.Version)
	assert.Equal(t, "/ws", plan.Global.WorkingDirectory)
	assert.Equal(t, config.DefaultOutputDirectory, plan.Global.OutputDirectory)
	assert.Equal(t, 600.0, plan.Global.Timeout)
	assert.True(t, plan.Global.Parallel)
	assert.Equal(t, 2, plan.Global.MaxWorkers)
	assert.Equal(t, map[string]string{"GOFLAGS": "-count=1"}, plan.Global.Environment)

	assert.Equal(t, []string{"build", "test", "triage"}, plan.StepNames())

	build := plan.Steps[0]
	require.Len(t, build.Commands, 1)
	assert.Equal(t, "make build", build.Commands[0].Command)
	assert.Equal(t, 120.0, build.Commands[0].Timeout)
	require.NotNil(t, build.Commands[0].Retry)
	assert.Equal(t, config.Retry{MaxAttempts: 3, Delay: 0.5, OnFailure: "triage"}, *build.Commands[0].Retry)
	assert.True(t, build.IsEnabled())

	test := plan.Steps[1]
	assert.Equal(t, []string{"build"}, test.DependsOn)
	assert.Equal(t, "linux", test.Condition)
	assert.Equal(t, "pytest_results", test.Parser)
	require.Len(t, test.Commands, 2)
	assert.True(t, test.Commands[0].ContinueOnFailure)
	assert.Equal(t, 1, test.Commands[0].ExpectedExitCode)
	assert.Equal(t, "/ws/src", test.Commands[0].Environment["PYTHONPATH"])
	assert.True(t, test.Commands[1].Cleanup)

	triage := plan.Steps[2]
	assert.False(t, triage.IsEnabled())
	assert.Equal(t, "triage.txt", triage.Commands[0].OutputFile)

	require.Contains(t, plan.Parsers, "pytest_results")
	pc := plan.Parsers["pytest_results"]
	assert.Equal(t, "structured", pc.Type)
	assert.Equal(t, "combined", pc.Options["input"])
	assert.Equal(t, []any{`::(?P<test_name>\w+) (?P<status>PASSED|FAILED)`}, pc.Options["patterns"])
	assert.Equal(t, map[string]any{"suite": "unit", "shard": 2}, pc.Options["static"])

	assert.Equal(t, `platform.os == "linux" && platform.arch == "amd64"`, plan.Conditions["x86_linux"])
	require.Len(t, plan.Repositories, 1)
	assert.Equal(t, "suite", plan.Repositories[0].Name)
	assert.Equal(t, "main", plan.Repositories[0].Branch)
}

func TestLoader_SingleFileNameDefaultsToStem(t *testing.T) {
	path := writeFile(t, t.TempDir(), "nightly.hcl", stepsFile)

	plan, err := testLoader().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "nightly", plan.Name)
	assert.Len(t, plan.Steps, 3)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"a.hcl": `step "x" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"a.hcl": `step "x" { bogus = 1 }`},
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "command without run",
			files:   map[string]string{"a.hcl": "step \"x\" {\n  command {\n    cwd = \".\"\n  }\n}\n"},
			wantErr: "failed to decode HCL file",
		},
		{
			name: "two global blocks",
			files: map[string]string{
				"a.hcl": `global { timeout = 1 }`,
				"b.hcl": `global { timeout = 2 }`,
			},
			wantErr: "only one global block",
		},
		{
			name: "duplicate parser",
			files: map[string]string{
				"a.hcl": `parser "p" { type = "simple" }`,
				"b.hcl": `parser "p" { type = "json" }`,
			},
			wantErr: "parser 'p' is defined twice",
		},
		{
			name:    "empty directory",
			files:   map[string]string{"readme.md": "nothing"},
			wantErr: "no .hcl files found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			dir := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, dir, name, content)
			}

			// --- Act ---
			_, err := testLoader().Load(context.Background(), dir)

			// --- Assert ---
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		_, err := testLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error accessing path")
	})
}
