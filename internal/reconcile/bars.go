package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portsync/internal/gateway/venue"
	"portsync/internal/ledger"
	"portsync/internal/logger"
)

// BarSyncer backfills daily price bars for an instrument, idempotent per
// (instrument, date). Equity symbols come from the venue data API; a
// secondary source (crypto) can claim symbols of its own.
type BarSyncer struct {
	resolver  *Resolver
	store     ledger.BarStore
	equities  BarSource
	secondary BarSource
}

var _ HistoryBackfiller = (*BarSyncer)(nil)

// NewBarSyncer builds the bar syncer. secondary may be nil.
func NewBarSyncer(resolver *Resolver, store ledger.BarStore, equities BarSource, secondary BarSource) *BarSyncer {
	return &BarSyncer{
		resolver:  resolver,
		store:     store,
		equities:  equities,
		secondary: secondary,
	}
}

// Backfill fetches daily bars for [now - days, now] and upserts them. A
// pre-existing bar for a date is reported unchanged; a persistence error
// fails that date only. Instrument resolution never recurses into another
// backfill.
func (b *BarSyncer) Backfill(ctx context.Context, accountID int64, symbol string, days int) ([]BarResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if days <= 0 {
		days = 365
	}
	ins, err := b.resolver.Ensure(ctx, accountID, symbol, false)
	if err != nil {
		return nil, fmt.Errorf("resolving instrument: %w", err)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	source := b.sourceFor(symbol)
	bars, err := source.GetDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s failed: %w", symbol, err)
	}
	if len(bars) == 0 {
		logger.Warnf("bar sync: no historical data for %s", symbol)
		return nil, nil
	}
	logger.Infof("bar sync: %d bars for %s over last %d days", len(bars), symbol, days)

	results := make([]BarResult, 0, len(bars))
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		date := bar.Timestamp.UTC().Format("2006-01-02")
		created, err := b.store.InsertDailyBar(ctx, ledger.DailyBar{
			InstrumentID: ins.ID,
			Date:         date,
			Open:         bar.Open,
			High:         bar.High,
			Low:          bar.Low,
			Close:        bar.Close,
			Volume:       bar.Volume,
		})
		if err != nil {
			logger.Warnf("bar sync: could not store %s bar for %s: %v", symbol, date, err)
			results = append(results, BarResult{Date: date, Action: ActionFailed, Error: err.Error()})
			continue
		}
		action := ActionUnchanged
		if created {
			action = ActionAdded
		}
		results = append(results, BarResult{Date: date, Action: action, Close: bar.Close})
	}
	return results, nil
}

func (b *BarSyncer) sourceFor(symbol string) BarSource {
	if b.secondary != nil && b.secondary.Handles(symbol) {
		return b.secondary
	}
	return b.equities
}

// VenueBars adapts the venue client into the default BarSource; it accepts
// every symbol not claimed by a secondary source.
type VenueBars struct {
	Client VenueClient
}

func (v VenueBars) Handles(string) bool { return true }

func (v VenueBars) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]venue.Bar, error) {
	return v.Client.GetDailyBars(ctx, symbol, start, end)
}
