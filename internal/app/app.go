package app

import (
	"context"
	"fmt"

	"portsync/internal/config"
	"portsync/internal/logger"
	"portsync/internal/reconcile"
	"portsync/internal/store/barstore"
	"portsync/internal/store/gormstore"
	"portsync/internal/transport/http/syncapi"

	"golang.org/x/sync/errgroup"
)

// App owns the process lifecycle: stores, venue client, reconcilers, HTTP
// surface and the background scheduler.
type App struct {
	cfg          *config.Config
	store        *gormstore.Store
	bars         *barstore.Store
	orchestrator *reconcile.Orchestrator
	server       *syncapi.Server
	scheduler    *scheduler
}

// New builds the application from configuration without starting it.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg)
}

// Run starts the HTTP server and the periodic sync scheduler, blocking
// until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.server.Start(ctx)
	})
	group.Go(func() error {
		a.scheduler.run(ctx)
		return nil
	})

	err := group.Wait()
	a.Close()
	return err
}

// ApplyConfig picks up hot-reloadable settings from a fresh config.
func (a *App) ApplyConfig(cfg *config.Config) {
	if a == nil || cfg == nil {
		return
	}
	logger.SetLevel(cfg.App.LogLevel)
	a.scheduler.setInterval(cfg.Sync.AutoIntervalMin)
}

// Orchestrator exposes the reconcile entrypoint (for tests and one-shot
// invocations).
func (a *App) Orchestrator() *reconcile.Orchestrator {
	if a == nil {
		return nil
	}
	return a.orchestrator
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.bars != nil {
		a.bars.Close()
	}
}
