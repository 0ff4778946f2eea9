//go:build unix

package transport

import (
	"os/exec"
	"syscall"
)

// killProcessGroup runs the script in its own process group and kills the
// whole group on cancellation, so children started by the script do not
// outlive it or keep its output pipes open.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
