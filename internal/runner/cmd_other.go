// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build !windows
// +build !windows

package runner

import (
	"os/exec"
)

// newCommand spawns the program directly, PATH resolution is handled by the
// exec package on POSIX hosts
func newCommand(program string, args []string, dir string) (cmd *exec.Cmd) {
	// #nosec G204 -- program and args come from the compiled-in dispatch table
	cmd = exec.Command(program, args...)
	cmd.Dir = dir
	return cmd
}
