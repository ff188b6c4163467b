// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package queue

// Queue counters ride on relaxed atomics, operator dashboards only need
// eventual consistency so no ordering stronger than the atomic package
// default is taken.

import (
	uberatomic "go.uber.org/atomic"
)

// Metrics aggregates the queue activity counters and the live handle gauges
type Metrics struct {
	sent      uberatomic.Uint64
	received  uberatomic.Uint64
	failed    uberatomic.Uint64
	retried   uberatomic.Uint64
	producers uberatomic.Int64
	consumers uberatomic.Int64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot is a point in time copy of the queue counters
type Snapshot struct {
	Sent      uint64
	Received  uint64
	Failed    uint64
	Retried   uint64
	Producers int64
	Consumers int64
}

func (m *Metrics) snapshot() Snapshot {
	return Snapshot{
		Sent:      m.sent.Load(),
		Received:  m.received.Load(),
		Failed:    m.failed.Load(),
		Retried:   m.retried.Load(),
		Producers: m.producers.Load(),
		Consumers: m.consumers.Load(),
	}
}

// idSource returns a closure allocating queue local monotonic message ids
func idSource() func() uint64 {
	counter := uberatomic.NewUint64(0)
	return func() uint64 {
		return counter.Add(1)
	}
}
