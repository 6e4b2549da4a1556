package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ncobase/scoutcore/config"
	"github.com/ncobase/scoutcore/log"

	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the mongodb package.
//
// Usage:
//
//	wire.Build(
//	    config.ProviderSet,
//	    mongodb.ProviderSet,
//	)
var ProviderSet = wire.NewSet(ProvideManager, NewRepository)

// CloseTimeout bounds how long the cleanup of a provided manager waits for
// connections to close.
var CloseTimeout = 10 * time.Second

// ProvideManager connects to the configured database. The cleanup function
// disconnects every client.
func ProvideManager(ctx context.Context, conf *config.Data) (*Manager, func(), error) {
	if conf == nil || conf.MongoDB == nil {
		return nil, nil, errors.New("mongodb configuration is required")
	}

	m, err := NewManager(ctx, conf.MongoDB)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), CloseTimeout)
		defer cancel()
		if err := m.Close(ctx); err != nil {
			log.Warnf(ctx, "failed to close mongodb: %v", err)
		}
	}

	return m, cleanup, nil
}
