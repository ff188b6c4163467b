// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package scheduler

// This file contains the worker pool draining the submission queue.  Each
// worker owns an independent consumer handle, transitions the job record
// through its lifecycle, and guarantees a terminal registry state even when
// the execution engine panics on hostile input.

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/proctor-go-agent/internal/queue"
	"github.com/leaf-ai/proctor-go-agent/internal/registry"
	"github.com/leaf-ai/proctor-go-agent/internal/request"
)

// Job is the unit of work travelling through the queue
type Job struct {
	ID  uint64
	Req *request.Execute
}

// Executor runs one submission to a verdict, the runner package provides
// the production implementation
type Executor interface {
	Execute(ctx context.Context, req *request.Execute) (resp *request.ExecuteResponse, err kv.Error)
}

// Logger is the narrow logging surface the pool needs
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{}) error
}

// recvPatience bounds each queue wait so workers notice shutdown promptly
const recvPatience = time.Second

// Pool drains the queue with a fixed set of workers
type Pool struct {
	q        *queue.Queue[Job]
	jobs     *registry.Jobs
	exec     Executor
	logger   Logger
	workers  int
	observer func(job Job, state registry.Phase)

	wg sync.WaitGroup
}

// Workers normalises a worker count option, zero means one worker per CPU
func Workers(requested int) (count int) {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// New constructs a pool, Start must be called before work is drained
func New(q *queue.Queue[Job], jobs *registry.Jobs, exec Executor, workers int, logger Logger) (pool *Pool) {
	return &Pool{
		q:       q,
		jobs:    jobs,
		exec:    exec,
		logger:  logger,
		workers: Workers(workers),
	}
}

// Observe registers a callback invoked at every job state transition, used
// by the agent to feed prometheus
func (pool *Pool) Observe(observer func(job Job, state registry.Phase)) {
	pool.observer = observer
}

// Start launches the workers.  They exit when the context is cancelled or
// the queue reports shutdown, Wait blocks until the last one is gone.
func (pool *Pool) Start(ctx context.Context) {
	for k := 0; k < pool.workers; k++ {
		pool.wg.Add(1)
		go pool.worker(ctx, k)
	}
}

// Wait blocks until every worker has exited
func (pool *Pool) Wait() {
	pool.wg.Wait()
}

func (pool *Pool) worker(ctx context.Context, k int) {
	defer pool.wg.Done()

	// Pinning is best effort, a failure is logged and the worker carries on
	if errGo := pinWorker(k, pool.workers); errGo != nil {
		_ = pool.logger.Warn("worker pinning failed", "worker", k, "error", errGo.Error())
	}

	consumer := pool.q.Consumer()
	defer consumer.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := consumer.RecvTimeout(recvPatience)
		switch err {
		case nil:
		case queue.ErrTimeout:
			continue
		case queue.ErrShutdown:
			pool.logger.Debug("queue shutdown observed", "worker", k)
			return
		default:
			_ = pool.logger.Warn("queue receive failed", "worker", k, "error", err.Error())
			continue
		}

		pool.run(ctx, msg.Payload)
	}
}

// run takes a single job to a terminal registry state.  The recover makes
// the worker loop the panic boundary for the whole execution stack.
func (pool *Pool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			pool.fail(job, fmt.Sprintf("execution panic: %v", r))
		}
	}()

	pool.jobs.Running(job.ID)
	if pool.observer != nil {
		pool.observer(job, registry.PhaseRunning)
	}

	resp, err := pool.exec.Execute(ctx, job.Req)
	if err != nil {
		pool.fail(job, err.Error())
		return
	}

	pool.jobs.Complete(job.ID, resp)
	if pool.observer != nil {
		pool.observer(job, registry.PhaseCompleted)
	}
}

func (pool *Pool) fail(job Job, reason string) {
	pool.jobs.Fail(job.ID, reason)
	if pool.observer != nil {
		pool.observer(job, registry.PhaseError)
	}
	_ = pool.logger.Warn("job failed", "id", job.ID, "reason", reason)
}
