package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/require"
)

// AssertStepStatuses checks the terminal status of every listed step.
func AssertStepStatuses(t *testing.T, result *HarnessResult, want map[string]model.Status) {
	t.Helper()
	for step, status := range want {
		require.Equal(t, status, result.StepStatus(t, step), "status of step '%s'", step)
	}
}

// AssertStepLogged checks the log output for a line mentioning the step.
// It relies on the text handler's step=<name> attribute.
func AssertStepLogged(t *testing.T, result *HarnessResult, stepName string) {
	t.Helper()

	expectedLogSubstring := fmt.Sprintf("step=%s", stepName)

	require.True(t,
		strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected log output for step '%s' was not found in logs", stepName,
	)
}
