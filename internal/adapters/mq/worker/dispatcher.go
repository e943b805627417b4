// Package worker releases queued fetch tasks through an admission gate.
//
// A Dispatcher owns a bounded queue and a Gate. Its run loop takes one task
// off the queue per gate tick and starts it on its own goroutine, so the
// release rate is fixed while admitted tasks run with no concurrency cap.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/mq/queue"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

const (
	defaultInterval = 100 * time.Millisecond
	defaultCapacity = 10000
)

// Task is one unit of dispatched work. A submitted task is invoked exactly
// once. If its context ends before admission, or the dispatcher stops first,
// it is invoked with a done context and is expected to return promptly.
type Task func(ctx context.Context)

type job struct {
	ctx    context.Context
	run    Task
	queued time.Time
}

// Dispatcher releases submitted tasks at the gate's rate.
type Dispatcher struct {
	name     string
	interval time.Duration
	capacity int

	queue *queue.InMemoryQueue[job]
	gate  *Gate

	startOnce sync.Once
	stopOnce  sync.Once
	shutdown  chan struct{}
	done      chan struct{}
	inflight  sync.WaitGroup

	logger logger.Logger
}

// NewDispatcher creates a dispatcher. Call Start before relying on admission.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		name:     "dispatcher",
		interval: defaultInterval,
		capacity: defaultCapacity,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name != "dispatcher" {
		d.logger = d.logger.Named(d.name)
	}

	d.queue = queue.NewInMemoryQueue[job](queue.WithCapacity(d.capacity))
	d.gate = NewGate(d.interval)
	return d
}

// Interval returns the admission interval.
func (d *Dispatcher) Interval() time.Duration {
	return d.gate.Interval()
}

// Pending returns the number of tasks waiting for admission.
func (d *Dispatcher) Pending(ctx context.Context) int {
	return d.queue.Len(ctx)
}

// Start launches the admission loop. Subsequent calls are no-ops.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.logger.Info(ctx, "dispatcher started",
			logger.Duration("interval", d.interval),
			logger.Int("capacity", d.capacity),
		)
		go d.run(ctx)
	})
}

// Submit queues task for admission under ctx.
func (d *Dispatcher) Submit(ctx context.Context, task Task) error {
	if d.queue.IsClosed() {
		return ErrStopped
	}
	if !d.queue.Enqueue(ctx, job{ctx: ctx, run: task, queued: time.Now()}) {
		if d.queue.IsClosed() {
			return ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrQueueFull
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	defer d.abandon()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	items := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-items:
			if !ok {
				return
			}
			metrics.UpdateDispatchQueued(d.queue.Len(ctx))

			if j.ctx.Err() != nil {
				metrics.RecordErrorByComponent("dispatcher", "cancelled")
				d.launch(j)
				continue
			}
			if err := d.gate.Wait(ctx); err != nil {
				d.cancelled(j)
				return
			}
			metrics.RecordDispatchWait(time.Since(j.queued))
			d.launch(j)
		}
	}
}

// launch starts j on its own goroutine. Tasks whose dispatcher or own
// context has ended receive a done context.
func (d *Dispatcher) launch(j job) {
	d.inflight.Add(1)
	metrics.AddDispatchInflight(1)
	go func() {
		defer d.inflight.Done()
		defer metrics.AddDispatchInflight(-1)
		j.run(j.ctx)
	}()
}

// abandon hands every still-queued task a cancelled context.
func (d *Dispatcher) abandon() {
	_ = d.queue.Close()
	left := d.queue.Drain()
	if len(left) == 0 {
		return
	}
	d.logger.Warn(context.Background(), "abandoning queued tasks", logger.Int("count", len(left)))
	for _, j := range left {
		d.cancelled(j)
	}
}

func (d *Dispatcher) cancelled(j job) {
	ctx, cancel := context.WithCancel(j.ctx)
	cancel()
	j.ctx = ctx
	d.launch(j)
}

// Shutdown stops accepting tasks, releases what is already queued at the
// gate's rate, and waits for in-flight tasks. If ctx ends first the
// remaining queue is abandoned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	_ = d.queue.Close()
	d.startOnce.Do(func() {
		d.abandon()
		close(d.done)
	})

	select {
	case <-d.done:
	case <-ctx.Done():
		d.stop()
		d.logger.Warn(ctx, "shutdown timed out waiting for queue")
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}

	finished := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out waiting for tasks")
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) stop() {
	d.stopOnce.Do(func() { close(d.shutdown) })
}
