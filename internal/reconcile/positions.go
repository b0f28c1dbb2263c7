package reconcile

import (
	"context"
	"fmt"
	"strings"

	"portsync/internal/ledger"
	"portsync/internal/logger"

	"github.com/shopspring/decimal"
)

// Tolerances bound the diff comparison: differences at or below the
// tolerance count as unchanged.
type Tolerances struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// DefaultTolerances matches portfolio accounting precision: 1e-4 for
// quantities, one cent for prices.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Quantity: decimal.NewFromFloat(1e-4),
		Price:    decimal.NewFromFloat(0.01),
	}
}

// PositionReconciler diffs venue positions against local holdings and
// applies the minimal set of mutations to converge.
type PositionReconciler struct {
	venue    VenueClient
	store    ledger.Store
	resolver *Resolver
	tol      Tolerances
}

func NewPositionReconciler(vc VenueClient, store ledger.Store, resolver *Resolver, tol Tolerances) *PositionReconciler {
	if tol.Quantity.IsZero() && tol.Price.IsZero() {
		tol = DefaultTolerances()
	}
	return &PositionReconciler{venue: vc, store: store, resolver: resolver, tol: tol}
}

// Reconcile converges local holdings for accountID onto the venue's
// current position set. A failed venue fetch aborts the pass; per-symbol
// failures are isolated into the result list.
func (p *PositionReconciler) Reconcile(ctx context.Context, accountID int64) ([]PositionResult, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("account id is required")
	}
	positions, err := p.venue.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing venue positions failed: %w", err)
	}
	logger.Infof("position sync: venue reports %d positions for account %d", len(positions), accountID)

	holdings, err := p.store.ListActiveHoldings(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing local holdings failed: %w", err)
	}
	bySymbol := make(map[string]ledger.Holding, len(holdings))
	for _, h := range holdings {
		bySymbol[strings.ToUpper(h.Symbol)] = h
	}

	results := make([]PositionResult, 0, len(positions))
	venueSymbols := make(map[string]struct{}, len(positions))

	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		symbol := strings.ToUpper(strings.TrimSpace(pos.Symbol))
		venueSymbols[symbol] = struct{}{}
		res, err := p.reconcileOne(ctx, accountID, symbol, pos.Qty, pos.AvgEntryPrice, bySymbol)
		if err != nil {
			logger.Errorf("position sync: %s failed: %v", symbol, err)
			results = append(results, PositionResult{Symbol: symbol, Action: ActionFailed, Error: err.Error()})
			continue
		}
		results = append(results, res)
	}

	// Holdings the venue no longer reports were closed there since the
	// last pass.
	for symbol, holding := range bySymbol {
		if _, open := venueSymbols[symbol]; open {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if err := p.store.CloseHolding(ctx, holding.ID); err != nil {
			logger.Errorf("position sync: closing %s failed: %v", symbol, err)
			results = append(results, PositionResult{Symbol: symbol, Action: ActionFailed, Error: err.Error()})
			continue
		}
		logger.Infof("position sync: %s closed at venue, holding zeroed", symbol)
		results = append(results, PositionResult{Symbol: symbol, Action: ActionClosed})
	}

	logger.Infof("position sync: account %d processed, %d items", accountID, len(results))
	return results, nil
}

func (p *PositionReconciler) reconcileOne(ctx context.Context, accountID int64, symbol string, qty, avgPrice decimal.Decimal, bySymbol map[string]ledger.Holding) (PositionResult, error) {
	ins, err := p.resolver.Ensure(ctx, accountID, symbol, true)
	if err != nil {
		return PositionResult{}, fmt.Errorf("resolving instrument: %w", err)
	}

	holding, exists := bySymbol[symbol]
	if !exists {
		_, err := p.store.CreateHolding(ctx, ledger.Holding{
			AccountID:    accountID,
			InstrumentID: ins.ID,
			Symbol:       symbol,
			Quantity:     qty,
			AvgCost:      avgPrice,
		})
		if err != nil {
			return PositionResult{}, fmt.Errorf("creating holding: %w", err)
		}
		logger.Infof("position sync: added %s qty=%s avg=%s", symbol, qty, avgPrice)
		return PositionResult{Symbol: symbol, Action: ActionAdded, Qty: qty, AvgPrice: avgPrice}, nil
	}

	qtyDiff := holding.Quantity.Sub(qty).Abs()
	priceDiff := holding.AvgCost.Sub(avgPrice).Abs()
	if qtyDiff.LessThanOrEqual(p.tol.Quantity) && priceDiff.LessThanOrEqual(p.tol.Price) {
		return PositionResult{Symbol: symbol, Action: ActionUnchanged, Qty: qty, AvgPrice: avgPrice}, nil
	}

	holding.Quantity = qty
	holding.AvgCost = avgPrice
	if err := p.store.UpdateHolding(ctx, holding.ID, holding); err != nil {
		return PositionResult{}, fmt.Errorf("updating holding: %w", err)
	}
	logger.Infof("position sync: updated %s qty=%s avg=%s", symbol, qty, avgPrice)
	return PositionResult{Symbol: symbol, Action: ActionUpdated, Qty: qty, AvgPrice: avgPrice}, nil
}
