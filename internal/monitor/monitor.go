// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package monitor

// This file contains the forbidden process detector and terminator.  The
// detector snapshots the host process table, optionally augments it with the
// platforms topmost window owners, and intersects the candidate names with
// the denylist.  The terminator kills matches by pid and reports the names
// it could not kill.

import (
	"os"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/process"
)

// Monitor holds the immutable detection policy
type Monitor struct {
	patterns []string
	selfPid  int32
}

// New builds a monitor over the supplied denylist patterns.  The agents own
// pid is remembered so the proctor never reports or kills itself.
func New(patterns []string) (m *Monitor) {
	return &Monitor{
		patterns: patterns,
		selfPid:  int32(os.Getpid()),
	}
}

// namedProcess pairs a pid with its reported executable name
type namedProcess struct {
	pid  int32
	name string
}

// snapshot enumerates the process table, entries whose names cannot be read
// are skipped rather than failing the whole sweep
func (m *Monitor) snapshot() (procs []namedProcess) {
	list, errGo := process.Processes()
	if errGo != nil {
		return nil
	}
	procs = make([]namedProcess, 0, len(list))
	for _, p := range list {
		if p.Pid == m.selfPid {
			continue
		}
		name, errGo := p.Name()
		if errGo != nil || len(name) == 0 {
			continue
		}
		procs = append(procs, namedProcess{pid: p.Pid, name: name})
	}
	return procs
}

func (m *Monitor) matches(name string) bool {
	lowered := strings.ToLower(name)
	for _, pattern := range m.patterns {
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func sorted(set map[string]struct{}) (names []string) {
	names = make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect returns the deduplicated, lexicographically sorted names of every
// denylisted candidate.  When includeTopmost is set the platforms topmost
// window owners are folded into the candidate set as well.
func (m *Monitor) Detect(includeTopmost bool) (detected []string) {
	candidates := []string{}
	for _, p := range m.snapshot() {
		candidates = append(candidates, p.name)
	}
	if includeTopmost {
		candidates = append(candidates, topmostProcessNames()...)
	}

	set := map[string]struct{}{}
	for _, name := range candidates {
		if m.matches(name) {
			set[name] = struct{}{}
		}
	}
	return sorted(set)
}

// Terminate kills every running process whose name matches the denylist and
// returns the sorted names of those that survived the attempt.  Individual
// failures never abort the sweep.
func (m *Monitor) Terminate() (failed []string) {
	set := map[string]struct{}{}
	for _, p := range m.snapshot() {
		if !m.matches(p.name) {
			continue
		}
		if errGo := killPid(p.pid); errGo != nil {
			set[p.name] = struct{}{}
		}
	}
	return sorted(set)
}
