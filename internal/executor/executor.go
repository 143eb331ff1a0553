package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/model"
)

var (
	errAttemptFailed = errors.New("attempt failed")
	errRunCancelled  = errors.New("run cancelled")
)

// Options configures an Executor.
type Options struct {
	// Shell is the interpreter prefix; the command string is appended as the
	// last argument. Defaults to `sh -c` (`cmd /C` on Windows).
	Shell []string
	// OutputDir anchors relative output_file paths.
	OutputDir string
	// DefaultTimeout applies to commands without their own timeout. Zero
	// means no limit.
	DefaultTimeout time.Duration
	// WaitDelay bounds how long to wait for output pipes after the process
	// is killed.
	WaitDelay time.Duration
}

// Executor runs commands. It holds no per-run state and is safe for
// concurrent use.
type Executor struct {
	shell          []string
	outputDir      string
	defaultTimeout time.Duration
	waitDelay      time.Duration
}

// New creates an Executor.
func New(opts Options) *Executor {
	shell := opts.Shell
	if len(shell) == 0 {
		shell = defaultShell()
	}
	waitDelay := opts.WaitDelay
	if waitDelay <= 0 {
		waitDelay = 2 * time.Second
	}
	return &Executor{
		shell:          shell,
		outputDir:      opts.OutputDir,
		defaultTimeout: opts.DefaultTimeout,
		waitDelay:      waitDelay,
	}
}

type attempt struct {
	exitCode  int
	stdout    string
	stderr    string
	timedOut  bool
	cancelled bool
	startErr  error
}

func (a attempt) succeeded(expected int) bool {
	return !a.timedOut && !a.cancelled && a.startErr == nil && a.exitCode == expected
}

// Execute runs cmd with the given environment and working directory, applying
// its timeout and retry policy. It always returns a result; failures are
// described by its fields.
func (e *Executor) Execute(ctx context.Context, cmd *config.Command, env []string, cwd string) model.CommandResult {
	logger := ctxlog.FromContext(ctx).With("command", cmd.Command)
	timeout := cmd.TimeoutDuration(e.defaultTimeout)
	attempts := cmd.Attempts()

	var last attempt
	used := 0
	operation := func() error {
		used++
		logger.Debug("Starting command attempt.", "attempt", used, "max_attempts", attempts, "timeout", timeout)
		last = e.runOnce(ctx, cmd.Command, env, cwd, timeout)
		switch {
		case last.succeeded(cmd.ExpectedExitCode):
			return nil
		case last.cancelled:
			return backoff.Permanent(errRunCancelled)
		}
		logger.Warn("Command attempt failed.",
			"attempt", used,
			"max_attempts", attempts,
			"exit_code", last.exitCode,
			"expected_exit_code", cmd.ExpectedExitCode,
			"timed_out", last.timedOut,
		)
		return errAttemptFailed
	}

	var delay time.Duration
	if cmd.Retry != nil {
		delay = cmd.Retry.DelayDuration()
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)

	start := time.Now()
	_ = backoff.Retry(operation, policy)

	result := model.CommandResult{
		Command:           cmd.Command,
		ExitCode:          last.exitCode,
		Stdout:            last.stdout,
		Stderr:            last.stderr,
		Duration:          time.Since(start),
		AttemptsUsed:      used,
		Success:           last.succeeded(cmd.ExpectedExitCode),
		TimedOut:          last.timedOut,
		Cancelled:         last.cancelled || (!last.succeeded(cmd.ExpectedExitCode) && ctx.Err() != nil),
		Cleanup:           cmd.Cleanup,
		ContinueOnFailure: cmd.ContinueOnFailure,
	}
	if last.startErr != nil {
		result.Error = last.startErr.Error()
	}
	if !result.Success && !result.Cancelled && cmd.Retry != nil && cmd.Retry.OnFailure != "" {
		result.RecoveryTriggered = true
		result.RecoveryStep = cmd.Retry.OnFailure
		logger.Warn("Retries exhausted, recovery step requested.", "on_failure", cmd.Retry.OnFailure)
	}

	if cmd.OutputFile != "" {
		if err := e.writeOutputFile(cmd.OutputFile, result.Stdout); err != nil {
			logger.Warn("Failed to persist command output.", "output_file", cmd.OutputFile, "error", err)
			if result.Error == "" {
				result.Error = err.Error()
			}
		}
	}
	return result
}

// runOnce starts one subprocess and waits for it or for the deadline.
func (e *Executor) runOnce(ctx context.Context, command string, env []string, cwd string, timeout time.Duration) attempt {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	args := append(append([]string(nil), e.shell[1:]...), command)
	c := exec.CommandContext(runCtx, e.shell[0], args...)
	c.Dir = cwd
	c.Env = env
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = e.waitDelay
	configureProcessGroup(c)

	err := c.Run()
	a := attempt{stdout: stdout.String(), stderr: stderr.String()}
	a.classify(err, ctx.Err(), runCtx.Err(), c.ProcessState)
	return a
}

// classify sets the outcome of a finished attempt. A clean exit counts as
// success even when the deadline fired just after it.
func (a *attempt) classify(runErr, parentErr, deadlineErr error, state *os.ProcessState) {
	switch {
	case parentErr != nil:
		a.cancelled = true
		a.exitCode = -1
	case runErr == nil:
		a.exitCode = 0
	case errors.Is(deadlineErr, context.DeadlineExceeded):
		a.timedOut = true
		a.exitCode = -1
	case state != nil:
		a.exitCode = state.ExitCode()
	default:
		a.exitCode = -1
		a.startErr = fmt.Errorf("failed to start command: %w", runErr)
	}
}

func (e *Executor) writeOutputFile(path, content string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.outputDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
