package condition

import (
	"errors"
	"testing"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linuxAMD = Platform{OS: "linux", Arch: "amd64"}

func requireEvalError(t *testing.T, err error, kind ErrorKind) *EvalError {
	t.Helper()
	require.Error(t, err)
	var ee *EvalError
	require.True(t, errors.As(err, &ee), "expected *EvalError, got %T: %v", err, err)
	require.Equal(t, kind, ee.Kind)
	return ee
}

func TestEvaluate_Builtins(t *testing.T) {
	e, err := New(nil, nil)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		platform Platform
		want     bool
	}{
		{"always", linuxAMD, true},
		{"never", linuxAMD, false},
		{"linux", linuxAMD, true},
		{"darwin", linuxAMD, false},
		{"macos", Platform{OS: "darwin", Arch: "arm64"}, true},
		{"unix", Platform{OS: "darwin", Arch: "arm64"}, true},
		{"unix", Platform{OS: "windows", Arch: "amd64"}, false},
		{"windows", Platform{OS: "windows", Arch: "amd64"}, true},
		{"x86_64", linuxAMD, true},
		{"arm64", linuxAMD, false},
		{"aarch64", Platform{OS: "linux", Arch: "arm64"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name+"/"+tc.platform.OS+"-"+tc.platform.Arch, func(t *testing.T) {
			got, err := e.Evaluate(tc.name, Context{Platform: tc.platform})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_StepReferences(t *testing.T) {
	e, err := New(nil, []string{"build", "test", "lint", "pending"})
	require.NoError(t, err)

	results := MapResults{
		"build": {StepName: "build", Status: model.StatusFailed, Commands: []model.CommandResult{{RecoveryTriggered: true}}},
		"test":  {StepName: "test", Status: model.StatusSkippedDependencyFailed},
		"lint":  {StepName: "lint", Status: model.StatusSuccess},
	}
	ctx := Context{Platform: linuxAMD, Results: results}

	testCases := []struct {
		name string
		want bool
	}{
		{"failed:build", true},
		{"on_failure:build", true},
		{"succeeded:build", false},
		{"skipped:test", true},
		{"failed:test", false},
		{"succeeded:lint", true},
		{"on_failure:lint", false},
		{"failed:pending", false},
		{"succeeded:pending", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Evaluate(tc.name, ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("unknown step", func(t *testing.T) {
		_, err := e.Evaluate("failed:ghost", ctx)
		ee := requireEvalError(t, err, UnknownStepReference)
		assert.Equal(t, "ghost", ee.Ref)
		requireEvalError(t, e.Validate("on_failure:ghost"), UnknownStepReference)
	})
}

func TestEvaluate_UserExpressions(t *testing.T) {
	e, err := New(map[string]string{
		"is_linux_x86":   `platform.os == "linux" && platform.arch == "amd64"`,
		"needs_rerun":    `failed("build") || on_failure("build")`,
		"build_finished": `status("build") != "pending"`,
		"on_unix":        `platform.family == "unix"`,
		"as_string":      `"true"`,
	}, []string{"build"})
	require.NoError(t, err)
	assert.Equal(t, []string{"as_string", "build_finished", "is_linux_x86", "needs_rerun", "on_unix"}, e.Names())

	before := Context{Platform: linuxAMD}
	after := Context{Platform: linuxAMD, Results: MapResults{
		"build": {StepName: "build", Status: model.StatusFailed},
	}}

	check := func(name string, ctx Context, want bool) {
		t.Helper()
		got, err := e.Evaluate(name, ctx)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	check("is_linux_x86", before, true)
	check("is_linux_x86", Context{Platform: Platform{OS: "darwin", Arch: "arm64"}}, false)
	check("needs_rerun", before, false)
	check("needs_rerun", after, true)
	check("build_finished", before, false)
	check("build_finished", after, true)
	check("on_unix", before, true)
	check("as_string", before, true)

	t.Run("evaluation is deterministic", func(t *testing.T) {
		for range 10 {
			check("needs_rerun", after, true)
		}
	})
}

func TestStepRefs(t *testing.T) {
	e, err := New(map[string]string{
		"needs_rerun": `failed("build") || on_failure("build") || skipped("lint")`,
		"on_linux":    `platform.os == "linux"`,
	}, []string{"build", "lint"})
	require.NoError(t, err)

	testCases := []struct {
		name      string
		condition string
		want      []string
	}{
		{name: "step reference", condition: "failed:build", want: []string{"build"}},
		{name: "on_failure reference", condition: OnFailureRef("lint"), want: []string{"lint"}},
		{name: "user expression in first-use order", condition: "needs_rerun", want: []string{"build", "lint"}},
		{name: "platform expression", condition: "on_linux", want: nil},
		{name: "builtin", condition: "always", want: nil},
		{name: "unknown", condition: "ghost", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			got := e.StepRefs(tc.condition)

			// --- Assert ---
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_RejectsUnsafeOrUnknown(t *testing.T) {
	steps := []string{"build"}
	testCases := []struct {
		name string
		expr string
		kind ErrorKind
	}{
		{"syntax error", `platform.os ==`, InvalidExpression},
		{"unknown variable", `env.HOME == "/root"`, InvalidExpression},
		{"bare platform", `platform == "linux"`, InvalidExpression},
		{"unknown platform attribute", `platform.kernel == "6"`, InvalidExpression},
		{"unknown function", `file("/etc/passwd") == ""`, InvalidExpression},
		{"non-literal argument", `failed(platform.os)`, InvalidExpression},
		{"wrong arity", `failed("build", "x")`, InvalidExpression},
		{"unknown step", `failed("deploy")`, UnknownStepReference},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(map[string]string{"c": tc.expr}, steps)
			requireEvalError(t, err, tc.kind)
		})
	}

	t.Run("builtin cannot be redefined", func(t *testing.T) {
		_, err := New(map[string]string{"linux": `true`}, steps)
		requireEvalError(t, err, DuplicateCondition)
	})
}

func TestEvaluate_Errors(t *testing.T) {
	e, err := New(map[string]string{"number": `1 + 1`}, nil)
	require.NoError(t, err)

	_, err = e.Evaluate("nope", Context{})
	requireEvalError(t, err, UnknownCondition)
	requireEvalError(t, e.Validate("nope"), UnknownCondition)
	assert.NoError(t, e.Validate("number"))
	assert.NoError(t, e.Validate("linux"))

	_, err = e.Evaluate("number", Context{Platform: linuxAMD})
	requireEvalError(t, err, InvalidExpression)
}
