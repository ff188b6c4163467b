// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build !windows
// +build !windows

package runner

import (
	"os"
	"syscall"
)

// termSignal extracts the terminating signal number when the child died to
// one, POSIX wait status carries it alongside the exit code
func termSignal(state *os.ProcessState) (sig *int) {
	if state == nil {
		return nil
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		n := int(ws.Signal())
		return &n
	}
	return nil
}
