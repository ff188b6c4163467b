// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build windows
// +build windows

package runner

import (
	"os"
)

// termSignal has no meaning on Windows, children die with exit codes only
func termSignal(state *os.ProcessState) (sig *int) {
	return nil
}
