package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portsync/internal/ledger"
	"portsync/internal/logger"

	"golang.org/x/sync/singleflight"
)

// Resolver guarantees a locally-known instrument exists for a symbol,
// fetching and persisting venue metadata on first reference.
type Resolver struct {
	venue        VenueClient
	store        ledger.InstrumentStore
	backfiller   HistoryBackfiller
	backfillDays int

	group singleflight.Group
}

// NewResolver builds an instrument resolver. The backfiller is optional and
// attached later via SetBackfiller because it depends on the resolver
// itself.
func NewResolver(vc VenueClient, store ledger.InstrumentStore, backfillDays int) *Resolver {
	if backfillDays <= 0 {
		backfillDays = 365
	}
	return &Resolver{
		venue:        vc,
		store:        store,
		backfillDays: backfillDays,
	}
}

// SetBackfiller attaches the historical bar backfiller used for newly
// created instruments.
func (r *Resolver) SetBackfiller(b HistoryBackfiller) {
	r.backfiller = b
}

// Ensure returns the local instrument for symbol, creating it from venue
// metadata on first reference. When backfillHistory is set and the
// instrument was newly created, historical bars are seeded; backfill
// failures are logged, never propagated.
func (r *Resolver) Ensure(ctx context.Context, accountID int64, symbol string, backfillHistory bool) (ledger.Instrument, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ledger.Instrument{}, fmt.Errorf("symbol is required")
	}
	if ins, err := r.store.FindInstrumentBySymbol(ctx, symbol); err == nil {
		return ins, nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return ledger.Instrument{}, err
	}

	// Concurrent first references to the same symbol collapse onto one
	// venue fetch.
	v, err, _ := r.group.Do(symbol, func() (interface{}, error) {
		return r.createFromVenue(ctx, accountID, symbol, backfillHistory)
	})
	if err != nil {
		return ledger.Instrument{}, err
	}
	return v.(ledger.Instrument), nil
}

func (r *Resolver) createFromVenue(ctx context.Context, accountID int64, symbol string, backfillHistory bool) (ledger.Instrument, error) {
	meta, err := r.venue.GetInstrument(ctx, symbol)
	if err != nil {
		return ledger.Instrument{}, err
	}
	ins, created, err := r.store.CreateInstrumentIfAbsent(ctx, ledger.Instrument{
		Symbol:   meta.Symbol,
		Name:     meta.Name,
		Exchange: meta.Exchange,
		Active:   !strings.EqualFold(meta.Status, "inactive"),
	})
	if err != nil {
		return ledger.Instrument{}, err
	}
	// A lost duplicate-key race returns the winner's row; only the genuine
	// creator logs and seeds history.
	if created {
		logger.Infof("instrument %s not found locally, created from venue metadata", symbol)
		if backfillHistory && r.backfiller != nil {
			if _, err := r.backfiller.Backfill(ctx, accountID, ins.Symbol, r.backfillDays); err != nil {
				logger.Warnf("historical backfill for %s failed: %v", ins.Symbol, err)
			}
		}
	}
	return ins, nil
}
