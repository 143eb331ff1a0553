// Package executor runs a single plan command as a shell subprocess.
//
// The executor owns the per-command contract: the merged environment and
// working directory are applied to the child process only, the timeout kills
// the whole process group, and the retry policy re-runs a failing command a
// bounded number of times with a fixed delay. It never decides step status;
// it only reports what happened in a model.CommandResult.
package executor
