//go:build unix

package simulation

import (
	"context"
	"os/exec"
	"syscall"
)

// newCommand starts name in its own process group so cancellation kills the
// simulator together with any children it spawned.
func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	return cmd
}
