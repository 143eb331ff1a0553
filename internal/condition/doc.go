// Package condition evaluates the named boolean predicates that gate steps
// and commands.
//
// Three sources of names are recognised, in lookup order:
//
//   - builtins: platform checks such as `linux`, `unix` or `arm64`, plus
//     `always` and `never`.
//   - step references: `failed:<step>`, `succeeded:<step>`, `skipped:<step>`
//     and `on_failure:<step>`, which look at an already finished step.
//   - the plan's `conditions` table, whose values are HCL expressions over
//     `platform.os`, `platform.arch`, `platform.family` and the functions
//     `failed()`, `succeeded()`, `skipped()`, `on_failure()` and `status()`.
//
// Expressions are parsed and checked once when the Evaluator is built: only
// the `platform` variable and the functions above are accepted, and every
// step a function names must exist. Nothing in a condition is ever executed
// as code. Evaluation itself is pure; the same Context always yields the
// same answer.
package condition
