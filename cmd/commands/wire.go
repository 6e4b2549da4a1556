//go:build wireinject

package commands

import (
	"context"

	"github.com/ncobase/scoutcore/config"
	"github.com/ncobase/scoutcore/data/mongodb"

	"github.com/google/wire"
)

// initRepository connects to the database of the loaded configuration.
// The cleanup function disconnects it.
func initRepository(ctx context.Context) (*mongodb.Repository, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		mongodb.ProviderSet,
	))
}
