// Package scheduler drives one run of a validated plan. It decides, step by
// step, whether a step runs or is skipped, executes the commands of the steps
// that run, hands their output to the configured parser and aggregates the
// terminal StepResults into a RunResult.
//
// Two policies are supported. Sequential mode walks the validated order one
// step at a time. Parallel mode feeds a bounded worker pool: a step is
// released to the pool once every step it waits for is terminal, so the
// topological order is always respected while independent steps overlap.
package scheduler
