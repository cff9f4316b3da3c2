//go:build !unix

package binary

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
