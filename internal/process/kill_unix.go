//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the browser's process group so that
// renderer helpers and GPU processes die with it.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort: the launcher's own Kill runs afterwards.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
