// Package parser turns raw command output into structured metric records.
//
// Parsers are addressed by kind through a Registry. The built-in kinds are
// `simple`, `structured` (also registered as `regex`, `structured-text` and
// `structured_text`), `json` and `pytest`; further kinds are added with
// Registry.Register before a plan is loaded. A plan's `parsers` table is
// compiled once into a Set, so option errors surface before anything runs.
//
// Parsing is advisory: a failure yields no records and a *ParseError, and
// never changes the status of the step that produced the output.
package parser
