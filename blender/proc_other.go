//go:build windows

package blender

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}

func killProcessGroup(cmd *exec.Cmd) error {
	return nil
}
