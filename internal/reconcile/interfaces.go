package reconcile

import (
	"context"
	"time"

	"portsync/internal/gateway/venue"
)

// VenueClient is the capability boundary to the external trading venue.
// Implementations apply their own transient-failure retries; reconcilers
// treat a returned error as exhausted.
type VenueClient interface {
	GetPositions(ctx context.Context) ([]venue.Position, error)
	GetOrders(ctx context.Context, window venue.OrderWindow) ([]venue.Order, error)
	GetInstrument(ctx context.Context, symbol string) (venue.Instrument, error)
	GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]venue.Bar, error)
}

// BarSource serves daily bars for a subset of symbols (e.g. crypto pairs
// from a different upstream than equities).
type BarSource interface {
	Handles(symbol string) bool
	GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]venue.Bar, error)
}

// HistoryBackfiller seeds historical bars for a newly created instrument.
type HistoryBackfiller interface {
	Backfill(ctx context.Context, accountID int64, symbol string, days int) ([]BarResult, error)
}
