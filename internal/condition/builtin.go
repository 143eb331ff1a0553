package condition

import (
	"runtime"
	"strings"

	"github.com/specialistvlad/evalgrid/internal/model"
)

// Platform carries the host facts conditions may test.
type Platform struct {
	OS   string
	Arch string
}

// HostPlatform reports the platform of the running process.
func HostPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Family is "windows" for Windows and "unix" for everything else.
func (p Platform) Family() string {
	if p.OS == "windows" {
		return "windows"
	}
	return "unix"
}

// Results is a read-only view of finished steps.
type Results interface {
	Lookup(step string) (*model.StepResult, bool)
}

// ResultsFunc adapts a lookup function to Results.
type ResultsFunc func(step string) (*model.StepResult, bool)

func (f ResultsFunc) Lookup(step string) (*model.StepResult, bool) {
	return f(step)
}

// MapResults is a Results backed by a plain map.
type MapResults map[string]*model.StepResult

func (m MapResults) Lookup(step string) (*model.StepResult, bool) {
	r, ok := m[step]
	return r, ok
}

// Context is everything an evaluation may observe.
type Context struct {
	Platform Platform
	Results  Results
}

func (c Context) lookup(step string) (*model.StepResult, bool) {
	if c.Results == nil {
		return nil, false
	}
	r, ok := c.Results.Lookup(step)
	if !ok || r == nil {
		return nil, false
	}
	return r, true
}

type predicate func(Context) bool

func osIs(name string) predicate {
	return func(c Context) bool { return c.Platform.OS == name }
}

func archIs(name string) predicate {
	return func(c Context) bool { return c.Platform.Arch == name }
}

var builtins = map[string]predicate{
	"always":  func(Context) bool { return true },
	"never":   func(Context) bool { return false },
	"linux":   osIs("linux"),
	"darwin":  osIs("darwin"),
	"macos":   osIs("darwin"),
	"windows": osIs("windows"),
	"unix":    func(c Context) bool { return c.Platform.Family() == "unix" },
	"amd64":   archIs("amd64"),
	"x86_64":  archIs("amd64"),
	"arm64":   archIs("arm64"),
	"aarch64": archIs("arm64"),
}

// stepTest is a predicate over a finished step. It is false for steps that
// have not finished.
type stepTest func(*model.StepResult) bool

var stepTests = map[string]stepTest{
	"failed":    func(r *model.StepResult) bool { return r.Status == model.StatusFailed },
	"succeeded": func(r *model.StepResult) bool { return r.Status == model.StatusSuccess },
	"skipped": func(r *model.StepResult) bool {
		return r.Status == model.StatusSkipped || r.Status == model.StatusSkippedDependencyFailed
	},
	"on_failure": func(r *model.StepResult) bool { return r.RecoveryRequested() },
}

// splitStepRef parses `kind:step` references.
func splitStepRef(name string) (stepTest, string, bool) {
	kind, step, found := strings.Cut(name, ":")
	if !found || step == "" {
		return nil, "", false
	}
	test, ok := stepTests[kind]
	return test, step, ok
}

// OnFailureRef builds the condition name that is true once step asked for
// its recovery step.
func OnFailureRef(step string) string {
	return "on_failure:" + step
}
