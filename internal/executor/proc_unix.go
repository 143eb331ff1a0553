//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

func defaultShell() []string {
	return []string{"sh", "-c"}
}

// configureProcessGroup puts the child in its own process group so that a
// timeout kills everything it spawned, not just the shell.
func configureProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
