// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the result types produced by a single evaluation run.
//
// # Core Concepts
//
//   - CommandResult: the outcome of one shell command after all retry attempts,
//     including captured output, exit code, duration and timeout/cancel flags.
//
//   - StepResult: the terminal status of a step together with the ordered
//     CommandResults of everything it executed and the metric records the
//     step's parser extracted from that output.
//
//   - RunResult: the complete record of one run, keyed by step name, plus the
//     overall verdict and run-level timestamps.
//
// Results are created fresh per run. The scheduler is their only writer; once
// a RunResult is returned it is treated as read-only by the recorder, the
// metrics collector and any other reporting collaborator.
package model
