//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup terminates the browser and its child processes with
// taskkill (/F force, /T tree).
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
