// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package registry

// This file contains the job registry correlating admission ids with the
// lifecycle state of each submission.  Reads vastly outnumber writes so a
// readers writer lock guards the keyed map, status polls take the shared
// side while workers take the exclusive side for single key updates.

import (
	"sync"

	uberatomic "go.uber.org/atomic"

	"github.com/leaf-ai/proctor-go-agent/internal/request"
)

// Phase enumerates the job lifecycle
type Phase int

const (
	PhaseQueued Phase = iota
	PhaseRunning
	PhaseCompleted
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseQueued:
		return "queued"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// State is the value stored per job.  Result is only populated in the
// Completed phase, Reason only in the Error phase.
type State struct {
	Phase  Phase
	Result *request.ExecuteResponse
	Reason string
}

func (s State) terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseError
}

// Jobs is the keyed registry.  Ids are allocated by atomic increment at
// admission time and are strictly increasing for the life of the process.
type Jobs struct {
	nextID uberatomic.Uint64

	mu    sync.RWMutex
	items map[uint64]State
}

// New constructs an empty registry
func New() (jobs *Jobs) {
	return &Jobs{
		items: map[uint64]State{},
	}
}

// Admit allocates a fresh id and records the job as queued
func (jobs *Jobs) Admit() (id uint64) {
	id = jobs.nextID.Add(1)

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	jobs.items[id] = State{Phase: PhaseQueued}
	return id
}

// Running transitions a job into the running phase.  Terminal states are
// never rewritten so a late transition after an error is dropped.
func (jobs *Jobs) Running(id uint64) {
	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	if current, isPresent := jobs.items[id]; !isPresent || current.terminal() {
		return
	}
	jobs.items[id] = State{Phase: PhaseRunning}
}

// Complete stores the verdict for a job.  The first terminal state wins.
func (jobs *Jobs) Complete(id uint64, result *request.ExecuteResponse) {
	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	if current, isPresent := jobs.items[id]; !isPresent || current.terminal() {
		return
	}
	jobs.items[id] = State{Phase: PhaseCompleted, Result: result}
}

// Fail stores a framework failure for a job.  The first terminal state wins.
func (jobs *Jobs) Fail(id uint64, reason string) {
	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	if current, isPresent := jobs.items[id]; !isPresent || current.terminal() {
		return
	}
	jobs.items[id] = State{Phase: PhaseError, Reason: reason}
}

// Discard withdraws a job that never reached the queue, only still queued
// records may be removed so a working job cannot lose its verdict
func (jobs *Jobs) Discard(id uint64) {
	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	if current, isPresent := jobs.items[id]; isPresent && current.Phase == PhaseQueued {
		delete(jobs.items, id)
	}
}

// Get retrieves the current state for a job id
func (jobs *Jobs) Get(id uint64) (state State, isPresent bool) {
	jobs.mu.RLock()
	defer jobs.mu.RUnlock()
	state, isPresent = jobs.items[id]
	return state, isPresent
}

// Len reports the number of jobs the registry is tracking
func (jobs *Jobs) Len() int {
	jobs.mu.RLock()
	defer jobs.mu.RUnlock()
	return len(jobs.items)
}
