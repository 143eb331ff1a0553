// Package testutil holds helpers shared by tests that drive the whole
// application: a thread-safe log buffer and a harness that writes plan files
// into a temporary directory and runs them.
package testutil
