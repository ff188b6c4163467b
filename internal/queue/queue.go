// Copyright 2023-2024 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package queue

// This file contains the implementation of the multi producer multi consumer
// job queue feeding the execution scheduler.  Four bounded bands, one per
// priority, are drained strictly highest first, poisoned messages move to an
// unbounded dead letter sideband once their retry budget is spent.

import (
	"sync"
	"time"

	"github.com/jjeffery/kv" // MIT License
)

// Priority selects the band a message is delivered through.  Ordering is
// total, a flood of Critical traffic is permitted to starve Low.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3

	bandCount = 4
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// pollInterval drives the priority re-scan inside blocking receives.  It is
// kept tight so a Critical arrival during a Low band wait is picked up next.
const pollInterval = 10 * time.Millisecond

var (
	// ErrFull is returned by non blocking sends hitting band capacity
	ErrFull = kv.NewError("queue is full")
	// ErrShutdown is returned by sends once Shutdown has been called, and by
	// receives once Shutdown has been called and no work remains
	ErrShutdown = kv.NewError("queue is shutdown")
	// ErrEmpty is returned by non blocking receives finding no work
	ErrEmpty = kv.NewError("queue is empty")
	// ErrTimeout is returned by bounded waits that expire
	ErrTimeout = kv.NewError("operation timed out")
	// ErrRetryRequired asks the caller to re-send a nacked message themselves
	ErrRetryRequired = kv.NewError("message retry required")
)

// Message wraps a payload with the queue metadata used for tracing and retry
// accounting
type Message[T any] struct {
	ID         uint64
	Payload    T
	Priority   Priority
	Timestamp  int64 // milliseconds since the epoch at construction
	RetryCount uint32
	Topic      string
}

// Config carries the queue construction parameters
type Config struct {
	Capacity      int    // Per band capacity shared by all four bands
	MaxRetries    uint32 // Nacks beyond this count move the message to the dead letter queue
	EnableMetrics bool
}

// DefaultConfig returns the configuration used by the agent when the
// operator does not override anything
func DefaultConfig() Config {
	return Config{
		Capacity:      10000,
		MaxRetries:    3,
		EnableMetrics: true,
	}
}

// Queue is the four band MPMC priority queue.  Handles produced by
// Producer() and Consumer() are the only way work enters and leaves.
type Queue[T any] struct {
	bands [bandCount]chan Message[T]

	deadMu  sync.Mutex
	dead    []Message[T]
	cfg     Config
	metrics *Metrics
	down    chan struct{}
	downOne sync.Once
	nextID  func() uint64
}

// New constructs a queue with the supplied configuration
func New[T any](cfg Config) (q *Queue[T]) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	q = &Queue[T]{
		cfg:     cfg,
		metrics: newMetrics(),
		down:    make(chan struct{}),
		nextID:  idSource(),
	}
	for i := range q.bands {
		q.bands[i] = make(chan Message[T], cfg.Capacity)
	}
	return q
}

// Metrics returns a point in time snapshot of the queue counters
func (q *Queue[T]) Metrics() Snapshot {
	return q.metrics.snapshot()
}

// Shutdown marks the queue as stopping.  The flag is sticky, later sends
// fail fast while messages already accepted remain drainable.
func (q *Queue[T]) Shutdown() {
	q.downOne.Do(func() { close(q.down) })
}

// IsShutdown reports whether Shutdown has been called
func (q *Queue[T]) IsShutdown() bool {
	select {
	case <-q.down:
		return true
	default:
		return false
	}
}

func (q *Queue[T]) newMessage(payload T, topic string, priority Priority) Message[T] {
	return Message[T]{
		ID:        q.nextID(),
		Payload:   payload,
		Priority:  priority,
		Timestamp: time.Now().UnixMilli(),
		Topic:     topic,
	}
}

func (q *Queue[T]) appendDead(msg Message[T]) {
	q.deadMu.Lock()
	defer q.deadMu.Unlock()
	q.dead = append(q.dead, msg)
}

// Producer creates a sending handle.  Close the handle when done so the
// live producer gauge stays honest.
func (q *Queue[T]) Producer() (p *Producer[T]) {
	if q.cfg.EnableMetrics {
		q.metrics.producers.Inc()
	}
	return &Producer[T]{q: q}
}

// Consumer creates a receiving handle.  Close the handle when done so the
// live consumer gauge stays honest.
func (q *Queue[T]) Consumer() (c *Consumer[T]) {
	if q.cfg.EnableMetrics {
		q.metrics.consumers.Inc()
	}
	return &Consumer[T]{q: q}
}

// DeadLetters returns the handle draining poisoned messages
func (q *Queue[T]) DeadLetters() (d *DeadLetters[T]) {
	return &DeadLetters[T]{q: q}
}

// Producer is the sending half of the queue
type Producer[T any] struct {
	q       *Queue[T]
	closeMu sync.Once
}

// Close releases the handle, decrementing the live producer gauge
func (p *Producer[T]) Close() {
	p.closeMu.Do(func() {
		if p.q.cfg.EnableMetrics {
			p.q.metrics.producers.Dec()
		}
	})
}

// Send inserts a message at Normal priority without blocking
func (p *Producer[T]) Send(payload T, topic string) (err kv.Error) {
	return p.SendWithPriority(payload, topic, PriorityNormal)
}

// SendWithPriority inserts a message into the band its priority selects
// without blocking.  A band at capacity yields ErrFull, the caller decides
// whether to drop or back off.
func (p *Producer[T]) SendWithPriority(payload T, topic string, priority Priority) (err kv.Error) {
	if p.q.IsShutdown() {
		return ErrShutdown
	}
	msg := p.q.newMessage(payload, topic, priority)
	select {
	case p.q.bands[priority] <- msg:
		if p.q.cfg.EnableMetrics {
			p.q.metrics.sent.Inc()
		}
		return nil
	default:
		return ErrFull
	}
}

// SendBlocking inserts a message, waiting for band capacity.  The wait is
// interrupted by Shutdown.
func (p *Producer[T]) SendBlocking(payload T, topic string, priority Priority) (err kv.Error) {
	if p.q.IsShutdown() {
		return ErrShutdown
	}
	msg := p.q.newMessage(payload, topic, priority)
	select {
	case p.q.bands[priority] <- msg:
		if p.q.cfg.EnableMetrics {
			p.q.metrics.sent.Inc()
		}
		return nil
	case <-p.q.down:
		return ErrShutdown
	}
}

// Consumer is the receiving half of the queue
type Consumer[T any] struct {
	q       *Queue[T]
	closeMu sync.Once
}

// Close releases the handle, decrementing the live consumer gauge
func (c *Consumer[T]) Close() {
	c.closeMu.Do(func() {
		if c.q.cfg.EnableMetrics {
			c.q.metrics.consumers.Dec()
		}
	})
}

// scan attempts each band highest priority first
func (c *Consumer[T]) scan() (msg Message[T], ok bool) {
	for band := bandCount - 1; band >= 0; band-- {
		select {
		case msg = <-c.q.bands[band]:
			if c.q.cfg.EnableMetrics {
				c.q.metrics.received.Inc()
			}
			return msg, true
		default:
		}
	}
	return msg, false
}

// TryRecv performs a non blocking priority scan, Critical first.  Once the
// queue is shutdown and fully drained ErrShutdown is surfaced.
func (c *Consumer[T]) TryRecv() (msg Message[T], err kv.Error) {
	if msg, ok := c.scan(); ok {
		return msg, nil
	}
	if c.q.IsShutdown() {
		return msg, ErrShutdown
	}
	return msg, ErrEmpty
}

// RecvTimeout waits up to d for any band to become ready, preserving
// priority order on each wake
func (c *Consumer[T]) RecvTimeout(d time.Duration) (msg Message[T], err kv.Error) {
	expired := time.NewTimer(d)
	defer expired.Stop()

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		if msg, ok := c.scan(); ok {
			return msg, nil
		}
		if c.q.IsShutdown() {
			return msg, ErrShutdown
		}
		select {
		case <-expired.C:
			return msg, ErrTimeout
		case <-c.q.down:
			// Allow one final drain pass before reporting shutdown
			if msg, ok := c.scan(); ok {
				return msg, nil
			}
			return msg, ErrShutdown
		case <-poll.C:
		}
	}
}

// Nack records a delivery failure.  The retry counter is incremented and
// once it exceeds the configured budget the message is moved to the dead
// letter queue, otherwise the caller is asked to re-send it via a producer
// handle, the queue never re-injects on its own.
func (c *Consumer[T]) Nack(msg Message[T]) (err kv.Error) {
	msg.RetryCount++
	if c.q.cfg.EnableMetrics {
		c.q.metrics.failed.Inc()
	}

	if msg.RetryCount > c.q.cfg.MaxRetries {
		c.q.appendDead(msg)
		return nil
	}
	if c.q.cfg.EnableMetrics {
		c.q.metrics.retried.Inc()
	}
	return ErrRetryRequired
}

// Resend places a previously nacked message back into its original band,
// preserving its id and retry count
func (p *Producer[T]) Resend(msg Message[T]) (err kv.Error) {
	if p.q.IsShutdown() {
		return ErrShutdown
	}
	select {
	case p.q.bands[msg.Priority] <- msg:
		if p.q.cfg.EnableMetrics {
			p.q.metrics.sent.Inc()
		}
		return nil
	default:
		return ErrFull
	}
}

// DeadLetters drains messages whose retries were exhausted.  The sideband
// is unbounded so appending never back-pressures a consumer.
type DeadLetters[T any] struct {
	q *Queue[T]
}

// TryRecv pops the oldest dead message when one exists
func (d *DeadLetters[T]) TryRecv() (msg Message[T], err kv.Error) {
	d.q.deadMu.Lock()
	defer d.q.deadMu.Unlock()
	if len(d.q.dead) == 0 {
		return msg, ErrEmpty
	}
	msg = d.q.dead[0]
	d.q.dead = d.q.dead[1:]
	return msg, nil
}

// Len reports the number of dead messages awaiting inspection
func (d *DeadLetters[T]) Len() int {
	d.q.deadMu.Lock()
	defer d.q.deadMu.Unlock()
	return len(d.q.dead)
}
