// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build !windows
// +build !windows

package monitor

import (
	"os/exec"
	"strconv"
)

// killPid delivers an unblockable SIGKILL, a proctored application is given
// no opportunity to trap and ignore a polite termination request
func killPid(pid int32) (errGo error) {
	// #nosec G204 -- the argument is a numeric pid from the process table
	return exec.Command("kill", "-9", strconv.Itoa(int(pid))).Run()
}
