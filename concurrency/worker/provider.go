package worker

import (
	"context"
	"time"

	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the worker package.
//
// Usage:
//
//	wire.Build(
//	    worker.ProviderSet,
//	    // ... other providers
//	)
var ProviderSet = wire.NewSet(ProvidePool)

// StopTimeout bounds how long the cleanup of a provided pool waits for
// queued tasks.
var StopTimeout = 30 * time.Second

// ProvidePool validates cfg, then creates and starts a Pool. The cleanup
// function drains the queue and stops the workers.
//
// If cfg is nil, default configuration is used.
func ProvidePool(cfg *Config, opts ...Option) (*Pool, func(), error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	pool := NewPool(cfg, opts...)
	pool.Start()

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
		defer cancel()
		pool.Stop(ctx)
	}

	return pool, cleanup, nil
}
