// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build linux
// +build linux

package scheduler

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorker binds worker k to core k mod N.  The goroutine is locked to its
// OS thread first so the affinity mask stays with this worker for its
// lifetime.
func pinWorker(k int, workers int) (errGo error) {
	cores := runtime.NumCPU()
	if cores == 0 {
		return nil
	}

	runtime.LockOSThread()

	set := unix.CPUSet{}
	set.Set(k % cores)
	return unix.SchedSetaffinity(0, &set)
}
