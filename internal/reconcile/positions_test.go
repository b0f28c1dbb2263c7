package reconcile

import (
	"context"
	"errors"
	"testing"

	"portsync/internal/gateway/venue"
	"portsync/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newPositionFixture() (*PositionReconciler, *fakeVenue, *memStore) {
	vc := newFakeVenue()
	store := newMemStore()
	resolver := NewResolver(vc, store, 365)
	rec := NewPositionReconciler(vc, store, resolver, DefaultTolerances())
	return rec, vc, store
}

func TestPositionReconcileAddsNewHolding(t *testing.T) {
	rec, vc, store := newPositionFixture()
	vc.addInstrument("AAPL", "Apple Inc", "NASDAQ")
	vc.positions = []venue.Position{{Symbol: "AAPL", Qty: dec("10"), AvgEntryPrice: dec("150.25")}}

	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionAdded, results[0].Action)
	assert.Equal(t, "AAPL", results[0].Symbol)

	h, ok := store.holdingBySymbol("AAPL")
	require.True(t, ok)
	assert.True(t, h.Quantity.Equal(dec("10")))
	assert.True(t, h.AvgCost.Equal(dec("150.25")))
	assert.Equal(t, ledger.HoldingActive, h.Status)
}

func TestPositionReconcileSecondPassUnchanged(t *testing.T) {
	rec, vc, _ := newPositionFixture()
	vc.addInstrument("AAPL", "Apple Inc", "NASDAQ")
	vc.addInstrument("MSFT", "Microsoft Corp", "NASDAQ")
	vc.positions = []venue.Position{
		{Symbol: "AAPL", Qty: dec("10"), AvgEntryPrice: dec("150.25")},
		{Symbol: "MSFT", Qty: dec("5"), AvgEntryPrice: dec("420.10")},
	}

	_, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)

	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, ActionUnchanged, r.Action, "symbol %s", r.Symbol)
	}
}

func TestPositionReconcileToleranceBoundary(t *testing.T) {
	rec, vc, _ := newPositionFixture()
	vc.addInstrument("AAPL", "Apple Inc", "NASDAQ")
	vc.positions = []venue.Position{{Symbol: "AAPL", Qty: dec("100"), AvgEntryPrice: dec("100.00")}}
	_, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)

	// Within tolerance on both axes: no write.
	vc.positions = []venue.Position{{Symbol: "AAPL", Qty: dec("100.00004"), AvgEntryPrice: dec("100.005")}}
	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionUnchanged, results[0].Action)

	// Quantity drift past the tolerance triggers an update.
	vc.positions = []venue.Position{{Symbol: "AAPL", Qty: dec("100.01"), AvgEntryPrice: dec("100.00")}}
	results, err = rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionUpdated, results[0].Action)

	// Price drift past a cent likewise.
	vc.positions = []venue.Position{{Symbol: "AAPL", Qty: dec("100.01"), AvgEntryPrice: dec("100.02")}}
	results, err = rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionUpdated, results[0].Action)
}

func TestPositionReconcileClosesMissingHoldings(t *testing.T) {
	rec, vc, store := newPositionFixture()
	vc.addInstrument("AAPL", "Apple Inc", "NASDAQ")
	vc.addInstrument("TSLA", "Tesla Inc", "NASDAQ")
	vc.positions = []venue.Position{
		{Symbol: "AAPL", Qty: dec("10"), AvgEntryPrice: dec("150")},
		{Symbol: "TSLA", Qty: dec("3"), AvgEntryPrice: dec("250")},
	}
	_, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)

	// TSLA disappears from the venue snapshot.
	vc.positions = vc.positions[:1]
	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 2)

	actions := map[string]Action{}
	for _, r := range results {
		actions[r.Symbol] = r.Action
	}
	assert.Equal(t, ActionUnchanged, actions["AAPL"])
	assert.Equal(t, ActionClosed, actions["TSLA"])

	h, ok := store.holdingBySymbol("TSLA")
	require.True(t, ok)
	assert.Equal(t, ledger.HoldingClosed, h.Status)
	assert.True(t, h.Quantity.IsZero())
}

func TestPositionReconcileReopensClosedHolding(t *testing.T) {
	rec, vc, store := newPositionFixture()
	vc.addInstrument("TSLA", "Tesla Inc", "NASDAQ")
	vc.positions = []venue.Position{{Symbol: "TSLA", Qty: dec("3"), AvgEntryPrice: dec("250")}}
	_, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)

	// Position closed at the venue, then bought back later.
	vc.positions = nil
	_, err = rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	h, ok := store.holdingBySymbol("TSLA")
	require.True(t, ok)
	assert.Equal(t, ledger.HoldingClosed, h.Status)

	vc.positions = []venue.Position{{Symbol: "TSLA", Qty: dec("5"), AvgEntryPrice: dec("260")}}
	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionAdded, results[0].Action)

	h, ok = store.holdingBySymbol("TSLA")
	require.True(t, ok)
	assert.Equal(t, ledger.HoldingActive, h.Status)
	assert.True(t, h.Quantity.Equal(dec("5")))
	assert.True(t, h.AvgCost.Equal(dec("260")))

	// Convergence holds on the following pass.
	results, err = rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionUnchanged, results[0].Action)
}

func TestPositionReconcileIsolatesPerSymbolFailure(t *testing.T) {
	rec, vc, store := newPositionFixture()
	vc.addInstrument("AAPL", "Apple Inc", "NASDAQ")
	vc.addInstrument("MSFT", "Microsoft Corp", "NASDAQ")
	vc.addInstrument("TSLA", "Tesla Inc", "NASDAQ")
	vc.positions = []venue.Position{
		{Symbol: "AAPL", Qty: dec("1"), AvgEntryPrice: dec("10")},
		{Symbol: "MSFT", Qty: dec("2"), AvgEntryPrice: dec("20")},
		{Symbol: "TSLA", Qty: dec("3"), AvgEntryPrice: dec("30")},
	}
	store.failCreateHolding["MSFT"] = errors.New("database is locked")

	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 3)

	var failed int
	for _, r := range results {
		if r.Action == ActionFailed {
			failed++
			assert.Equal(t, "MSFT", r.Symbol)
			assert.Contains(t, r.Error, "database is locked")
		}
	}
	assert.Equal(t, 1, failed)

	_, ok := store.holdingBySymbol("AAPL")
	assert.True(t, ok)
	_, ok = store.holdingBySymbol("TSLA")
	assert.True(t, ok)
}

func TestPositionReconcileVenueFetchAborts(t *testing.T) {
	rec, vc, _ := newPositionFixture()
	vc.positionsErr = errors.New("venue unavailable")

	results, err := rec.Reconcile(context.Background(), 1)
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestPositionReconcileUnknownSymbolFails(t *testing.T) {
	rec, vc, _ := newPositionFixture()
	vc.positions = []venue.Position{{Symbol: "GHOST", Qty: dec("1"), AvgEntryPrice: dec("1")}}

	results, err := rec.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ActionFailed, results[0].Action)
}

func TestPositionReconcileRequiresAccount(t *testing.T) {
	rec, _, _ := newPositionFixture()
	_, err := rec.Reconcile(context.Background(), 0)
	assert.Error(t, err)
}
