// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build windows
// +build windows

package runner

import (
	"os/exec"
)

// newCommand launches the program through cmd /C so that PATH resolution and
// shell builtins behave the way exam toolchain installers expect
func newCommand(program string, args []string, dir string) (cmd *exec.Cmd) {
	cmdArgs := append([]string{"/C", program}, args...)
	// #nosec G204 -- program and args come from the compiled-in dispatch table
	cmd = exec.Command("cmd", cmdArgs...)
	cmd.Dir = dir
	return cmd
}
