// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build windows
// +build windows

package monitor

// Topmost window enumeration walks the visible window list with user32 and
// collects the owning process of every window carrying the always-on-top
// extended style.  Overlay style cheat tools surface here even when their
// process name alone is innocuous.

import (
	"syscall"
	"unsafe"

	"github.com/shirou/gopsutil/process"
)

const (
	gwlExStyle  = -20
	wsExTopmost = 0x00000008
)

var (
	user32                     = syscall.NewLazyDLL("user32.dll")
	procEnumWindows            = user32.NewProc("EnumWindows")
	procIsWindowVisible        = user32.NewProc("IsWindowVisible")
	procGetWindowLongW         = user32.NewProc("GetWindowLongW")
	procGetWindowThreadProcess = user32.NewProc("GetWindowThreadProcessId")
)

func topmostProcessNames() (names []string) {
	pids := []uint32{}

	callback := syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			return 1
		}
		style, _, _ := procGetWindowLongW.Call(hwnd, uintptr(gwlExStyle))
		if uint32(style)&wsExTopmost == 0 {
			return 1
		}
		pid := uint32(0)
		procGetWindowThreadProcess.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
		if pid != 0 {
			pids = append(pids, pid)
		}
		return 1
	})
	procEnumWindows.Call(callback, 0)

	for _, pid := range pids {
		p, errGo := process.NewProcess(int32(pid))
		if errGo != nil {
			continue
		}
		if name, errGo := p.Name(); errGo == nil && len(name) != 0 {
			names = append(names, name)
		}
	}
	return names
}
