// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package monitor

// The denylist is compiled into the agent and is not configurable at
// runtime, an examinee with file system access must not be able to edit
// their own proctoring policy.  Patterns are matched by case insensitive
// substring so they are deliberately broad, over-matching is audited by the
// exam operators rather than prevented here.

import (
	"runtime"
)

var crossPlatformDenied = []string{
	"Code.exe", "code", // VS Code
	"devenv.exe", "devenv", // Visual Studio
	"idea64.exe", "idea", "IntelliJ IDEA",
	"PyCharm", "pycharm",
	"eclipse", "Eclipse",
	"atom", "Atom",
	"sublime_text", "Sublime Text",
	"notepad++.exe", "Notepad++",
	"vim", "nvim", "emacs",
	"AutoHotkey.exe", "autohotkey",
	"obs64.exe", "obs", "OBS Studio",
	"PowerToys.exe", "PowerToys",
	"ollama", "Ollama",
	"docker", "Docker Desktop",
	"virtualbox", "VirtualBox",
	"vmware", "VMware",
	"wireshark", "Wireshark",
	"fiddler", "Fiddler",
	"burp", "Burp Suite",
	"ida", "IDA Pro",
	"ghidra", "Ghidra",
	"x64dbg", "x32dbg",
	"ollydbg", "OllyDbg",
	"cheat engine", "Cheat Engine",
	"process hacker", "Process Hacker",
	"process monitor", "Process Monitor",
	"autoruns", "Autoruns",
	"regshot", "Regshot",
}

var windowsDenied = []string{
	"copilot.exe", "Copilot",
	"mstsc.exe",
	"TeamViewer.exe",
	"anydesk.exe",
	"chrome_remote_desktop_host.exe",
	"LogMeIn.exe",
	"ammyy.exe",
	"radmin.exe",
	"dwservice.exe",
	"supremo.exe",
	"ultraviewer.exe",
	"wsl.exe", "Windows Subsystem for Linux",
}

var darwinDenied = []string{
	"Screen Sharing",
	"Remote Desktop Scanner",
	"Apple Remote Desktop",
	"TeamViewer",
	"AnyDesk",
	"LogMeIn",
	"Splashtop Business",
	"Chrome Remote Desktop",
	"VNC Viewer",
	"Jump Desktop",
	"Microsoft Remote Desktop",
	"Parallels Desktop",
	"VMware Fusion",
	"UTM",
}

var linuxDenied = []string{
	"teamviewer",
	"anydesk",
	"remmina",
	"vinagre",
	"krdc",
	"xfreerdp",
	"rdesktop",
	"vnc",
	"x11vnc",
	"tightvnc",
	"tigervnc",
	"chrome-remote-desktop",
	"nomachine",
	"realvnc",
	"ultravnc",
	"qemu",
	"virtualbox",
	"vmware",
	"kvm",
	"gnome-boxes",
}

// Denylist returns the forbidden application patterns for the host platform
func Denylist() (patterns []string) {
	patterns = append(patterns, crossPlatformDenied...)
	switch runtime.GOOS {
	case "windows":
		patterns = append(patterns, windowsDenied...)
	case "darwin":
		patterns = append(patterns, darwinDenied...)
	case "linux":
		patterns = append(patterns, linuxDenied...)
	}
	return patterns
}

// Platform names the host OS the way the exam client expects it spelled
func Platform() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	case "linux":
		return "linux"
	}
	return "unknown"
}
