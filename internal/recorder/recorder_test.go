package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *model.RunResult {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	res := model.NewRunResult("run-1", "conformance", []string{"build", "test", "docs"})
	res.StartedAt = start
	res.FinishedAt = start.Add(3 * time.Second)
	res.Steps["build"] = &model.StepResult{
		StepName:   "build",
		Status:     model.StatusFailed,
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Commands: []model.CommandResult{
			{Command: "make", ExitCode: 2, Stdout: "compiling\n", Stderr: "boom\n", AttemptsUsed: 3, Duration: 1500 * time.Millisecond, RecoveryTriggered: true, RecoveryStep: "triage"},
			{Command: "rm -rf tmp", Success: true, Cleanup: true, AttemptsUsed: 1},
		},
	}
	res.Steps["test"] = &model.StepResult{
		StepName:   "test",
		Status:     model.StatusSkippedDependencyFailed,
		SkipReason: "dependency 'build' failed",
	}
	res.Steps["docs"] = &model.StepResult{
		StepName:      "docs",
		Status:        model.StatusSuccess,
		StartedAt:     start,
		FinishedAt:    start.Add(time.Second),
		ParsedRecords: []model.MetricRecord{{"test_name": "a", "status": "passed"}},
		Commands: []model.CommandResult{
			{Command: "mkdocs build", Skipped: true, SkipReason: "condition 'linux' is false"},
		},
	}
	res.Finalize()
	return res
}

func TestWriteJSON(t *testing.T) {
	// --- Arrange ---
	var buf bytes.Buffer

	// --- Act ---
	require.NoError(t, WriteJSON(&buf, sampleRun()))

	// --- Assert ---
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, false, doc["overall_success"])
	assert.Equal(t, 3.0, doc["duration_seconds"])
	assert.Equal(t, map[string]any{"failed": 1.0, "skipped_dependency_failed": 1.0, "success": 1.0}, doc["counts"])

	steps := doc["steps"].([]any)
	require.Len(t, steps, 3)
	build := steps[0].(map[string]any)
	assert.Equal(t, "build", build["name"])
	assert.Equal(t, "failed", build["status"])
	assert.Equal(t, 2.0, build["duration_seconds"])
	cmd := build["commands"].([]any)[0].(map[string]any)
	assert.Equal(t, 2.0, cmd["exit_code"])
	assert.Equal(t, 3.0, cmd["attempts"])
	assert.Equal(t, "triage", cmd["recovery_step"])

	test := steps[1].(map[string]any)
	assert.NotContains(t, test, "started_at")
	assert.Equal(t, []any{}, test["parsed_records"])
}

func TestWriteCommandLog(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCommandLog(&buf, sampleRun()))

	out := buf.String()
	assert.Contains(t, out, "[build] command #1 (failed): make\n")
	assert.Contains(t, out, "  exit_code=2 attempts=3 duration=1.5s\n")
	assert.Contains(t, out, "  --- stderr ---\n  boom\n")
	assert.Contains(t, out, "[build] cleanup #2 (ok): rm -rf tmp\n")
	assert.Contains(t, out, "[docs] command #1 (skipped): mkdocs build\n  skipped: condition 'linux' is false\n")
	assert.NotContains(t, out, "[test]")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSummary(&buf, sampleRun()))

	out := buf.String()
	assert.Contains(t, out, "Outcome: FAILED\n")
	assert.Contains(t, out, "Elapsed: 3s\n")
	assert.Regexp(t, `build\s+failed\s+2s\s+0`, out)
	assert.Regexp(t, `test\s+skipped_dependency_failed\s+0s\s+0\s+dependency 'build' failed`, out)
	assert.Regexp(t, `docs\s+success\s+1s\s+1`, out)
	assert.Contains(t, out, "1 succeeded, 1 failed, 0 skipped, 1 skipped (dependency failed)\n")
}

func TestRecorder_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")

	paths, err := New(dir).Write(context.Background(), sampleRun())

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, ResultFile),
		filepath.Join(dir, CommandLog),
		filepath.Join(dir, SummaryFile),
	}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
