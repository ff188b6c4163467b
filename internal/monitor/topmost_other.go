// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build !windows
// +build !windows

package monitor

// topmostProcessNames is empty away from Windows, no portable notion of an
// always-on-top window exists on the other platforms the agent supports
func topmostProcessNames() (names []string) {
	return nil
}
