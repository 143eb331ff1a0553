//go:build windows

package executor

import "os/exec"

func defaultShell() []string {
	return []string{"cmd", "/C"}
}

// configureProcessGroup keeps the default cancel behaviour, which kills the
// direct child only.
func configureProcessGroup(c *exec.Cmd) {}
