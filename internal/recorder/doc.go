// Package recorder persists a finished run to the output directory:
// run_result.json, executed_commands.log and summary.txt.
package recorder
