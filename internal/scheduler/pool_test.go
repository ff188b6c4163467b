// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jjeffery/kv"

	"github.com/leaf-ai/proctor-go-agent/internal/queue"
	"github.com/leaf-ai/proctor-go-agent/internal/registry"
	"github.com/leaf-ai/proctor-go-agent/internal/request"
)

type fakeExecutor struct {
	run func(req *request.Execute) (*request.ExecuteResponse, kv.Error)
}

func (f *fakeExecutor) Execute(ctx context.Context, req *request.Execute) (*request.ExecuteResponse, kv.Error) {
	return f.run(req)
}

type nullLogger struct{}

func (nullLogger) Debug(msg string, args ...interface{})      {}
func (nullLogger) Warn(msg string, args ...interface{}) error { return nil }

func awaitPhase(t *testing.T, jobs *registry.Jobs, id uint64, phase registry.Phase) registry.State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if state, isPresent := jobs.Get(id); isPresent && state.Phase == phase {
			return state
		}
		time.Sleep(5 * time.Millisecond)
	}
	state, _ := jobs.Get(id)
	t.Fatalf("job %d never reached %s, stuck at %s", id, phase, state.Phase)
	return registry.State{}
}

func TestPoolCompletesJob(t *testing.T) {
	q := queue.New[Job](queue.DefaultConfig())
	jobs := registry.New()
	exec := &fakeExecutor{run: func(req *request.Execute) (*request.ExecuteResponse, kv.Error) {
		return &request.ExecuteResponse{Compiled: true, Language: req.Language, Status: request.StatusSuccess}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := New(q, jobs, exec, 2, nullLogger{})
	pool.Start(ctx)

	id := jobs.Admit()
	p := q.Producer()
	defer p.Close()
	if err := p.Send(Job{ID: id, Req: &request.Execute{Language: "python3"}}, "execute"); err != nil {
		t.Fatal(err)
	}

	state := awaitPhase(t, jobs, id, registry.PhaseCompleted)
	if state.Result == nil || state.Result.Language != "python3" {
		t.Fatalf("verdict missing %+v", state)
	}

	cancel()
	pool.Wait()
}

func TestPoolRecordsExecutorError(t *testing.T) {
	q := queue.New[Job](queue.DefaultConfig())
	jobs := registry.New()
	exec := &fakeExecutor{run: func(req *request.Execute) (*request.ExecuteResponse, kv.Error) {
		return nil, kv.NewError("spawn failed")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := New(q, jobs, exec, 1, nullLogger{})
	pool.Start(ctx)

	id := jobs.Admit()
	p := q.Producer()
	defer p.Close()
	if err := p.Send(Job{ID: id, Req: &request.Execute{Language: "gcc"}}, "execute"); err != nil {
		t.Fatal(err)
	}

	state := awaitPhase(t, jobs, id, registry.PhaseError)
	if state.Reason != "spawn failed" {
		t.Fatalf("unexpected failure reason %q", state.Reason)
	}

	cancel()
	pool.Wait()
}

// TestPoolSurvivesPanic makes sure a panicking execution leaves a terminal
// Error state and the worker keeps draining later jobs
func TestPoolSurvivesPanic(t *testing.T) {
	q := queue.New[Job](queue.DefaultConfig())
	jobs := registry.New()
	exec := &fakeExecutor{run: func(req *request.Execute) (*request.ExecuteResponse, kv.Error) {
		if req.Language == "boom" {
			panic("hostile submission")
		}
		return &request.ExecuteResponse{Language: req.Language, Status: request.StatusSuccess}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := New(q, jobs, exec, 1, nullLogger{})
	pool.Start(ctx)

	p := q.Producer()
	defer p.Close()

	panicID := jobs.Admit()
	if err := p.Send(Job{ID: panicID, Req: &request.Execute{Language: "boom"}}, "execute"); err != nil {
		t.Fatal(err)
	}
	laterID := jobs.Admit()
	if err := p.Send(Job{ID: laterID, Req: &request.Execute{Language: "python3"}}, "execute"); err != nil {
		t.Fatal(err)
	}

	state := awaitPhase(t, jobs, panicID, registry.PhaseError)
	if len(state.Reason) == 0 {
		t.Fatal("panic reason not recorded")
	}
	awaitPhase(t, jobs, laterID, registry.PhaseCompleted)

	cancel()
	pool.Wait()
}

func TestPoolStopsOnQueueShutdown(t *testing.T) {
	q := queue.New[Job](queue.DefaultConfig())
	jobs := registry.New()
	exec := &fakeExecutor{run: func(req *request.Execute) (*request.ExecuteResponse, kv.Error) {
		return &request.ExecuteResponse{}, nil
	}}

	pool := New(q, jobs, exec, 2, nullLogger{})
	pool.Start(context.Background())

	q.Shutdown()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after queue shutdown")
	}
}

func TestWorkersDefault(t *testing.T) {
	if Workers(0) <= 0 {
		t.Fatal("zero request must map to the CPU count")
	}
	if Workers(3) != 3 {
		t.Fatal("explicit worker counts must be honored")
	}
}
