// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build !darwin
// +build !darwin

package monitor

// SiriActive returns nil away from macOS so the field never appears in the
// response schema for hosts that cannot observe it
func SiriActive() (active *bool) {
	return nil
}
