package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolClosed is returned when a task is submitted after Stop
var ErrPoolClosed = errors.New("worker pool is stopped")

// Config represents pool configuration
type Config struct {
	MaxWorkers  int           // maximum number of workers
	QueueSize   int           // task queue size
	TaskTimeout time.Duration // timeout for single task, 0 for none
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:  10,          // default 10 workers
		QueueSize:   1000,        // default queue size 1000
		TaskTimeout: time.Minute, // default timeout 1 minute
	}
}

// Validate validates configuration
func (cfg *Config) Validate() error {
	if cfg.MaxWorkers < 1 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.QueueSize < 1 {
		return errors.New("queue size must be greater than 0")
	}
	if cfg.TaskTimeout < 0 {
		return errors.New("task timeout must be greater than or equal to 0")
	}
	return nil
}

// Task is a unit of work. The context is cancelled when the task times
// out or the pool is stopped before it finishes.
type Task func(ctx context.Context) error

// Metrics tracks pool's operational metrics
type Metrics struct {
	ActiveWorkers  atomic.Int64
	PendingTasks   atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
	ProcessingTime atomic.Int64 // nanoseconds
}

// Pool represents a worker pool
type Pool struct {
	// Configuration
	maxWorkers  int
	taskTimeout time.Duration
	onError     func(error)

	// Runtime components
	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool

	// Metrics
	metrics *Metrics
}

// Option configures a Pool
type Option func(*Pool)

// WithErrorHandler sets a callback for task errors, timeouts and panics
func WithErrorHandler(fn func(error)) Option {
	return func(p *Pool) {
		p.onError = fn
	}
}

// NewPool creates a new worker pool
//
// Usage:
//
//	pool := worker.NewPool(&worker.Config{
//	    MaxWorkers:  8,
//	    QueueSize:   256,
//	    TaskTimeout: 10 * time.Second,
//	})
//	pool.Start()
//
//	for _, rec := range records {
//	    rec := rec
//	    if err := pool.Submit(ctx, func(ctx context.Context) error {
//	        return recompute(ctx, rec)
//	    }); err != nil {
//	        return err
//	    }
//	}
//
//	// Stop waits for queued tasks to finish
//	pool.Stop(ctx)
//	log.Printf("Pool metrics: %+v", pool.GetMetrics())
func NewPool(cfg *Config, opts ...Option) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		maxWorkers:  cfg.MaxWorkers,
		taskTimeout: cfg.TaskTimeout,
		tasks:       make(chan Task, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &Metrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop closes the queue and waits for queued tasks to finish. If ctx is
// done first, running tasks are cancelled and queued ones are skipped.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	// Wait for all workers to finish with timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.cancel()
		<-done
	}
	p.cancel()
}

// Submit queues a task, blocking while the queue is full
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolClosed
	}

	p.metrics.PendingTasks.Add(1)
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		p.metrics.PendingTasks.Add(-1)
		return ctx.Err()
	}
}

// worker represents a worker goroutine
func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		if p.ctx.Err() != nil {
			p.metrics.PendingTasks.Add(-1)
			p.metrics.FailedTasks.Add(1)
			p.report(p.ctx.Err())
			continue
		}
		p.processTask(task)
	}
}

// processTask runs a single task on the worker goroutine
func (p *Pool) processTask(task Task) {
	start := time.Now()
	p.metrics.ActiveWorkers.Add(1)
	p.metrics.PendingTasks.Add(-1)

	defer func() {
		p.metrics.ActiveWorkers.Add(-1)
		p.metrics.ProcessingTime.Add(time.Since(start).Nanoseconds())

		if r := recover(); r != nil {
			p.metrics.FailedTasks.Add(1)
			p.report(fmt.Errorf("task panic: %v", r))
		}
	}()

	// Create task context with timeout
	taskCtx, cancel := p.ctx, context.CancelFunc(func() {})
	if p.taskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(p.ctx, p.taskTimeout)
	}
	defer cancel()

	if err := task(taskCtx); err != nil {
		p.metrics.FailedTasks.Add(1)
		p.report(err)
		return
	}
	p.metrics.CompletedTasks.Add(1)
}

func (p *Pool) report(err error) {
	if p.onError != nil {
		p.onError(err)
	}
}

// GetMetrics returns the current metrics
func (p *Pool) GetMetrics() map[string]int64 {
	return map[string]int64{
		"active_workers":  p.metrics.ActiveWorkers.Load(),
		"pending_tasks":   p.metrics.PendingTasks.Load(),
		"completed_tasks": p.metrics.CompletedTasks.Load(),
		"failed_tasks":    p.metrics.FailedTasks.Load(),
		"processing_time": p.metrics.ProcessingTime.Load(),
	}
}
