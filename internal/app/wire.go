//go:build wireinject

package app

import (
	"portsync/internal/config"

	"github.com/google/wire"
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	wire.Build(
		NewBuilder,
		provideAppFromBuilder,
	)
	return nil, nil
}
