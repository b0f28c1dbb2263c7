package app

import (
	"fmt"

	"portsync/internal/config"
	"portsync/internal/gateway/binance"
	"portsync/internal/gateway/venue"
	"portsync/internal/reconcile"
	"portsync/internal/store/barstore"
	"portsync/internal/store/gormstore"
	"portsync/internal/transport/http/syncapi"

	"github.com/shopspring/decimal"
)

// Builder assembles the application graph from configuration. Every client
// is explicitly constructed here; nothing holds ambient global state.
type Builder struct {
	cfg *config.Config
}

func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

func (b *Builder) Build() (*App, error) {
	if b == nil || b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	store, err := gormstore.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger store: %w", err)
	}
	bars, err := barstore.New(cfg.Database.BarsPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening bar store: %w", err)
	}

	venueClient, err := venue.NewClient(cfg.Venue)
	if err != nil {
		store.Close()
		bars.Close()
		return nil, fmt.Errorf("building venue client: %w", err)
	}

	var secondary reconcile.BarSource
	if cfg.Binance.Enabled {
		secondary = binance.New(cfg.Binance)
	}

	tol := reconcile.Tolerances{
		Quantity: decimal.NewFromFloat(cfg.Sync.QuantityTolerance),
		Price:    decimal.NewFromFloat(cfg.Sync.PriceToleranceCent),
	}

	resolver := reconcile.NewResolver(venueClient, store, cfg.Sync.BackfillDays)
	barSyncer := reconcile.NewBarSyncer(resolver, bars, reconcile.VenueBars{Client: venueClient}, secondary)
	if cfg.Sync.BackfillOnCreate {
		resolver.SetBackfiller(barSyncer)
	}

	positions := reconcile.NewPositionReconciler(venueClient, store, resolver, tol)
	orders := reconcile.NewOrderReconciler(venueClient, store, resolver, tol)
	orchestrator := reconcile.NewOrchestrator(positions, orders, barSyncer)

	server, err := syncapi.NewServer(syncapi.ServerConfig{
		Addr:         cfg.App.HTTPAddr,
		Orchestrator: orchestrator,
		Holdings:     store,
		LookbackDays: cfg.Sync.OrderLookbackDays,
		BackfillDays: cfg.Sync.BackfillDays,
	})
	if err != nil {
		store.Close()
		bars.Close()
		return nil, fmt.Errorf("building http server: %w", err)
	}

	return &App{
		cfg:          cfg,
		store:        store,
		bars:         bars,
		orchestrator: orchestrator,
		server:       server,
		scheduler:    newScheduler(orchestrator, cfg.Sync),
	}, nil
}
