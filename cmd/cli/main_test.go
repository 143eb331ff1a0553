package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/cli"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to set up test file")
	return path
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Missing closing brace.
	invalidHCL := `
		step "build" {
			command {
	`
	path := writePlan(t, "main.hcl", invalidHCL)
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{path})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load plan")
	require.Contains(t, runErr.Error(), "failed to parse HCL file")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ExitCodes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("plans use POSIX sh commands")
	}
	t.Parallel()

	testCases := []struct {
		name     string
		command  string
		wantCode int
	}{
		{"successful run", "true", 0},
		{"failed run", "exit 3", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			plan := "name: exit\nsteps:\n  - name: only\n    commands:\n      - command: \"" + tc.command + "\"\n"
			path := writePlan(t, "plan.yaml", plan)
			args := []string{"-output", filepath.Join(t.TempDir(), "results"), path}

			// --- Act ---
			err := run(context.Background(), &bytes.Buffer{}, args)

			// --- Assert ---
			if tc.wantCode == 0 {
				require.NoError(t, err)
				return
			}
			var exitErr *cli.ExitError
			require.True(t, errors.As(err, &exitErr), "expected *cli.ExitError, got %v", err)
			require.Equal(t, tc.wantCode, exitErr.Code)
			require.Contains(t, exitErr.Message, "failed")
		})
	}
}

func TestRun_Validate(t *testing.T) {
	t.Parallel()

	path := writePlan(t, "plan.yaml", "name: dry\nsteps:\n  - name: a\n    commands: [{command: make}]\n")
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-validate", path})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Execution order:\n  1. a\n")
}
