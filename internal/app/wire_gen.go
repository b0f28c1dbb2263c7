//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"portsync/internal/config"
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	builder := NewBuilder(cfg)
	app, err := provideAppFromBuilder(builder)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func provideAppFromBuilder(b *Builder) (*App, error) {
	return b.Build()
}
