//go:build !unix

package simulation

import (
	"context"
	"os/exec"
)

func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
