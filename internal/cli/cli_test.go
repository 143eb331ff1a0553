package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/evalgrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	yes, no := true, false

	testCases := []struct {
		name string
		args []string
		want app.Config
	}{
		{
			name: "positional path with defaults",
			args: []string{"plan.yaml"},
			want: app.Config{PlanPath: "plan.yaml", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "plan flag wins over shorthand and positional",
			args: []string{"-plan", "a.hcl", "-p", "b.hcl", "c.hcl"},
			want: app.Config{PlanPath: "a.hcl", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "shorthand",
			args: []string{"-p", "plans/"},
			want: app.Config{PlanPath: "plans/", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "every option",
			args: []string{
				"-steps", "unit, e2e,,",
				"-output", "out",
				"-workers", "8",
				"-parallel", "TRUE",
				"-run-timeout", "90s",
				"-validate",
				"-healthcheck-port", "8080",
				"-events-url", "http://localhost:3000",
				"-log-format", "JSON",
				"-log-level", "debug",
				"plan.yml",
			},
			want: app.Config{
				PlanPath:        "plan.yml",
				Steps:           []string{"unit", "e2e"},
				OutputDir:       "out",
				WorkerCount:     8,
				Parallel:        &yes,
				RunTimeout:      90 * time.Second,
				ValidateOnly:    true,
				HealthcheckPort: 8080,
				EventsURL:       "http://localhost:3000",
				LogFormat:       "json",
				LogLevel:        "debug",
			},
		},
		{
			name: "sequential override",
			args: []string{"-parallel", "false", "plan.yaml"},
			want: app.Config{PlanPath: "plan.yaml", Parallel: &no, LogFormat: "text", LogLevel: "info"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			var out bytes.Buffer

			// --- Act ---
			cfg, shouldExit, err := Parse(tc.args, &out)

			// --- Assert ---
			require.NoError(t, err)
			assert.False(t, shouldExit)
			assert.Equal(t, tc.want, *cfg)
		})
	}
}

func TestParse_ShouldExit(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"help flag", []string{"-h"}},
		{"no plan path", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			cfg, shouldExit, err := Parse(tc.args, &out)

			require.NoError(t, err)
			assert.True(t, shouldExit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{"-nope", "p.yaml"}, "flag provided but not defined: -nope"},
		{"bad log format", []string{"-log-format", "xml", "p.yaml"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "trace", "p.yaml"}, "invalid log-level"},
		{"bad parallel", []string{"-parallel", "maybe", "p.yaml"}, "invalid parallel"},
		{"negative workers", []string{"-workers", "-1", "p.yaml"}, "WorkerCount cannot be negative"},
		{"bad duration", []string{"-run-timeout", "soon", "p.yaml"}, "invalid value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			_, _, err := Parse(tc.args, &out)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %v", err)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
