package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	for _, cfg := range []*Config{
		{MaxWorkers: 0, QueueSize: 1},
		{MaxWorkers: 1, QueueSize: 0},
		{MaxWorkers: 1, QueueSize: 1, TaskTimeout: -1},
	} {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(%+v) should return error", cfg)
		}
	}
}

func TestPoolRunsAllTasks(t *testing.T) {
	pool, cleanup, err := ProvidePool(&Config{MaxWorkers: 4, QueueSize: 2, TaskTimeout: time.Second})
	if err != nil {
		t.Fatalf("ProvidePool() unexpected error: %v", err)
	}

	var count atomic.Int64
	for i := 0; i < 50; i++ {
		if err := pool.Submit(context.Background(), func(ctx context.Context) error {
			count.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Submit() unexpected error: %v", err)
		}
	}
	cleanup()

	if count.Load() != 50 {
		t.Errorf("ran %d tasks, want 50", count.Load())
	}
	metrics := pool.GetMetrics()
	if metrics["completed_tasks"] != 50 || metrics["pending_tasks"] != 0 {
		t.Errorf("metrics = %v", metrics)
	}
	if metrics["active_workers"] != 0 {
		t.Error("no worker should be active after Stop")
	}
	if err := pool.Submit(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() after Stop error = %v, want ErrPoolClosed", err)
	}
}

func TestPoolFailures(t *testing.T) {
	var mu sync.Mutex
	var reported []error

	pool := NewPool(&Config{MaxWorkers: 1, QueueSize: 4, TaskTimeout: 20 * time.Millisecond},
		WithErrorHandler(func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		}))
	pool.Start()

	boom := errors.New("boom")
	ctx := context.Background()
	_ = pool.Submit(ctx, func(context.Context) error { return boom })
	_ = pool.Submit(ctx, func(context.Context) error { panic("bad task") })
	_ = pool.Submit(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	_ = pool.Submit(ctx, func(context.Context) error { return nil })

	pool.Stop(ctx)

	metrics := pool.GetMetrics()
	if metrics["failed_tasks"] != 3 || metrics["completed_tasks"] != 1 {
		t.Errorf("metrics = %v", metrics)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 3 {
		t.Fatalf("reported %d errors, want 3", len(reported))
	}
	if !errors.Is(reported[0], boom) {
		t.Errorf("first error = %v, want boom", reported[0])
	}
	if !errors.Is(reported[2], context.DeadlineExceeded) {
		t.Errorf("third error = %v, want deadline exceeded", reported[2])
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	pool := NewPool(&Config{MaxWorkers: 1, QueueSize: 1})

	// Not started, so the queue only drains after Start
	if err := pool.Submit(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Submit(ctx, func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() on a full queue with cancelled context error = %v", err)
	}

	pool.Start()
	pool.Stop(context.Background())
	metrics := pool.GetMetrics()
	if metrics["completed_tasks"] != 1 || metrics["pending_tasks"] != 0 {
		t.Errorf("metrics = %v", metrics)
	}
}
