package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/app"
	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an application run.
type HarnessResult struct {
	// LogOutput is everything the app wrote, logs and -validate output alike.
	LogOutput string
	Result    *model.RunResult
	Err       error
	App       *app.App
	// Dir is the temporary directory holding the plan files.
	Dir string
}

// WriteFiles writes files (relative path → content) below dir, creating
// subdirectories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunPlan writes files into a fresh temporary directory and runs the app on
// planFile (relative to that directory) with cfg. PlanPath is always set by
// the harness; OutputDir defaults to <dir>/results.
func RunPlan(t *testing.T, files map[string]string, planFile string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunPlanWithContext(context.Background(), t, files, planFile, cfg)
}

// RunPlanWithContext is RunPlan with a caller-provided context.
func RunPlanWithContext(ctx context.Context, t *testing.T, files map[string]string, planFile string, cfg app.Config) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, files)

	cfg.PlanPath = filepath.Join(dir, planFile)
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(dir, "results")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(logBuffer, &cfg, nil)
	result, err := testApp.Run(ctx)

	if os.Getenv("EVALGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Result:    result,
		Err:       err,
		App:       testApp,
		Dir:       dir,
	}
}

// StepStatus returns the status a step ended with, failing the test if the
// run produced no result for it.
func (h *HarnessResult) StepStatus(t *testing.T, step string) model.Status {
	t.Helper()
	require.NoError(t, h.Err)
	require.NotNil(t, h.Result, "run produced no result")
	res, ok := h.Result.Steps[step]
	require.True(t, ok, fmt.Sprintf("no result for step '%s'", step))
	return res.Status
}
