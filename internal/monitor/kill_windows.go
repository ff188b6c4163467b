// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build windows
// +build windows

package monitor

import (
	"os/exec"
	"strconv"
)

// killPid forces termination of the single pid through taskkill /F, child
// processes of the target are not included
func killPid(pid int32) (errGo error) {
	// #nosec G204 -- the argument is a numeric pid from the process table
	return exec.Command("taskkill", "/PID", strconv.Itoa(int(pid)), "/F").Run()
}
