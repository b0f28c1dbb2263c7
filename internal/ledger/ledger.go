package ledger

import (
	"context"
	"errors"
)

// ErrNotFound marks a lookup miss. Callers branch on it with errors.Is
// instead of string matching.
var ErrNotFound = errors.New("ledger: not found")

// InstrumentStore manages the instrument catalogue.
type InstrumentStore interface {
	FindInstrumentBySymbol(ctx context.Context, symbol string) (Instrument, error)
	// CreateInstrumentIfAbsent inserts the instrument unless one with the
	// same symbol already exists; under a duplicate-key race it returns the
	// existing row rather than an error. The bool reports whether a new row
	// was created, so callers can scope first-reference work (history
	// backfill) to genuinely new instruments.
	CreateInstrumentIfAbsent(ctx context.Context, ins Instrument) (Instrument, bool, error)
}

// HoldingStore manages per-account holdings.
type HoldingStore interface {
	ListActiveHoldings(ctx context.Context, accountID int64) ([]Holding, error)
	CreateHolding(ctx context.Context, h Holding) (Holding, error)
	UpdateHolding(ctx context.Context, holdingID int64, h Holding) error
	// CloseHolding zeroes the quantities and tags the row closed.
	CloseHolding(ctx context.Context, holdingID int64) error
}

// OrderStore manages locally mirrored orders, keyed by venue order id.
type OrderStore interface {
	FindOrderByVenueID(ctx context.Context, venueOrderID string) (Order, error)
	CreateOrder(ctx context.Context, o Order) (Order, error)
	UpdateOrder(ctx context.Context, orderID int64, upd OrderUpdate) error
}

// TransactionStore records executed fills.
type TransactionStore interface {
	HasTransactionForOrder(ctx context.Context, orderID int64) (bool, error)
	// RecordTransaction inserts the transaction; a duplicate for the same
	// order returns the existing row. The orders.order_id unique index
	// backs the at-most-once invariant at the schema level.
	RecordTransaction(ctx context.Context, tx Transaction) (Transaction, error)
}

// Store is the full relational ledger consumed by the reconcilers.
type Store interface {
	InstrumentStore
	HoldingStore
	OrderStore
	TransactionStore
}

// BarStore persists daily price bars, idempotent per (instrument, date).
type BarStore interface {
	// InsertDailyBar inserts the bar and reports whether a new row was
	// created; an existing row for the same key is left untouched.
	InsertDailyBar(ctx context.Context, bar DailyBar) (bool, error)
	CountBars(ctx context.Context, instrumentID int64) (int64, error)
}
