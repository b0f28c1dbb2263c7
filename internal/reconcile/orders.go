package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portsync/internal/gateway/venue"
	"portsync/internal/ledger"
	"portsync/internal/logger"

	"github.com/shopspring/decimal"
)

// OrderReconciler diffs venue orders within a lookback window against local
// orders keyed by venue order id, applies the status state machine, and
// records a transaction exactly once per completed fill.
type OrderReconciler struct {
	venue    VenueClient
	store    ledger.Store
	resolver *Resolver
	tol      Tolerances
}

func NewOrderReconciler(vc VenueClient, store ledger.Store, resolver *Resolver, tol Tolerances) *OrderReconciler {
	if tol.Quantity.IsZero() && tol.Price.IsZero() {
		tol = DefaultTolerances()
	}
	return &OrderReconciler{venue: vc, store: store, resolver: resolver, tol: tol}
}

// Reconcile processes venue orders placed within the last lookbackDays.
// A failed venue fetch aborts the pass; per-order failures are isolated
// into the result list with enough context to retry that item.
func (o *OrderReconciler) Reconcile(ctx context.Context, accountID int64, lookbackDays int) ([]OrderResult, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("account id is required")
	}
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	until := time.Now().UTC()
	after := until.AddDate(0, 0, -lookbackDays)

	orders, err := o.venue.GetOrders(ctx, venue.OrderWindow{After: after, Until: until})
	if err != nil {
		return nil, fmt.Errorf("listing venue orders failed: %w", err)
	}
	logger.Infof("order sync: venue reports %d orders in last %d days for account %d", len(orders), lookbackDays, accountID)

	results := make([]OrderResult, 0, len(orders))
	for _, vo := range orders {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := o.reconcileOne(ctx, accountID, vo)
		if err != nil {
			logger.Errorf("order sync: %s (%s) failed: %v", vo.ID, vo.Symbol, err)
			results = append(results, OrderResult{
				Symbol:       strings.ToUpper(strings.TrimSpace(vo.Symbol)),
				VenueOrderID: vo.ID,
				Action:       ActionFailed,
				VenueStatus:  vo.Status,
				Error:        err.Error(),
			})
			continue
		}
		results = append(results, res)
	}
	logger.Infof("order sync: account %d processed %d orders", accountID, len(results))
	return results, nil
}

func (o *OrderReconciler) reconcileOne(ctx context.Context, accountID int64, vo venue.Order) (OrderResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(vo.Symbol))
	if vo.ID == "" {
		return OrderResult{}, fmt.Errorf("venue order without id for %s", symbol)
	}

	ins, err := o.resolver.Ensure(ctx, accountID, symbol, true)
	if err != nil {
		return OrderResult{}, fmt.Errorf("resolving instrument: %w", err)
	}

	status, mapped := MapVenueStatus(vo.Status)
	if !mapped {
		logger.Warnf("order sync: venue status %q on order %s has no local mapping, treating as new", vo.Status, vo.ID)
	}

	existing, err := o.store.FindOrderByVenueID(ctx, vo.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		return o.createOrder(ctx, accountID, ins, symbol, vo, status, mapped)
	}
	if err != nil {
		return OrderResult{}, fmt.Errorf("looking up order: %w", err)
	}
	return o.updateOrder(ctx, existing, vo, status, mapped)
}

func (o *OrderReconciler) createOrder(ctx context.Context, accountID int64, ins ledger.Instrument, symbol string, vo venue.Order, status ledger.OrderStatus, mapped bool) (OrderResult, error) {
	side := ledger.SideBuy
	if strings.EqualFold(vo.Side, "sell") {
		side = ledger.SideSell
	}
	created, err := o.store.CreateOrder(ctx, ledger.Order{
		VenueOrderID:   vo.ID,
		AccountID:      accountID,
		InstrumentID:   ins.ID,
		Symbol:         symbol,
		Side:           side,
		Quantity:       vo.Qty,
		FilledQuantity: vo.FilledQty,
		LimitPrice:     vo.LimitPrice,
		FilledAvgPrice: vo.FilledAvgPrice,
		Status:         status,
		SubmittedAt:    vo.SubmittedAt,
		FilledAt:       vo.FilledAt,
		Raw:            vo.Raw,
	})
	if err != nil {
		return OrderResult{}, fmt.Errorf("creating order: %w", err)
	}
	logger.Infof("order sync: added order %s for %s status=%s", vo.ID, symbol, status)

	if status.FillCompleted() && vo.FilledAvgPrice != nil {
		if err := o.recordFill(ctx, created, vo); err != nil {
			return OrderResult{}, fmt.Errorf("recording fill: %w", err)
		}
	}
	return OrderResult{
		Symbol:         symbol,
		VenueOrderID:   vo.ID,
		Action:         ActionAdded,
		Status:         status,
		VenueStatus:    vo.Status,
		UnmappedStatus: !mapped,
	}, nil
}

func (o *OrderReconciler) updateOrder(ctx context.Context, existing ledger.Order, vo venue.Order, status ledger.OrderStatus, mapped bool) (OrderResult, error) {
	symbol := existing.Symbol
	if symbol == "" {
		symbol = strings.ToUpper(strings.TrimSpace(vo.Symbol))
	}
	if !o.orderChanged(existing, vo, status) {
		return OrderResult{
			Symbol:         symbol,
			VenueOrderID:   vo.ID,
			Action:         ActionUnchanged,
			Status:         existing.Status,
			VenueStatus:    vo.Status,
			UnmappedStatus: !mapped,
		}, nil
	}

	// The venue is the source of truth; a terminal-to-live transition is
	// applied as reported but flagged for operators.
	if existing.Status.Terminal() && existing.Status != status {
		logger.Warnf("order sync: anomalous backward transition on %s: %s -> %s", vo.ID, existing.Status, status)
	}

	if err := o.store.UpdateOrder(ctx, existing.ID, ledger.OrderUpdate{
		Status:         status,
		FilledQuantity: vo.FilledQty,
		FilledAvgPrice: vo.FilledAvgPrice,
		FilledAt:       vo.FilledAt,
		Raw:            vo.Raw,
	}); err != nil {
		return OrderResult{}, fmt.Errorf("updating order: %w", err)
	}
	logger.Infof("order sync: updated order %s status=%s", vo.ID, status)

	if status.FillCompleted() && vo.FilledAvgPrice != nil {
		has, err := o.store.HasTransactionForOrder(ctx, existing.ID)
		if err != nil {
			return OrderResult{}, fmt.Errorf("checking fill transaction: %w", err)
		}
		if !has {
			if err := o.recordFill(ctx, existing, vo); err != nil {
				return OrderResult{}, fmt.Errorf("recording fill: %w", err)
			}
		}
	}
	return OrderResult{
		Symbol:         symbol,
		VenueOrderID:   vo.ID,
		Action:         ActionUpdated,
		Status:         status,
		VenueStatus:    vo.Status,
		UnmappedStatus: !mapped,
	}, nil
}

// orderChanged compares the mutable fields within tolerance.
func (o *OrderReconciler) orderChanged(existing ledger.Order, vo venue.Order, status ledger.OrderStatus) bool {
	if existing.Status != status {
		return true
	}
	if decimalChanged(existing.FilledQuantity, vo.FilledQty, o.tol.Quantity) {
		return true
	}
	if decimalChanged(existing.FilledAvgPrice, vo.FilledAvgPrice, o.tol.Price) {
		return true
	}
	return false
}

func decimalChanged(local, remote *decimal.Decimal, tol decimal.Decimal) bool {
	switch {
	case local == nil && remote == nil:
		return false
	case local == nil || remote == nil:
		return true
	default:
		return local.Sub(*remote).Abs().GreaterThan(tol)
	}
}

func (o *OrderReconciler) recordFill(ctx context.Context, order ledger.Order, vo venue.Order) error {
	qty := order.Quantity
	if vo.FilledQty != nil {
		qty = *vo.FilledQty
	}
	price := decimal.Zero
	if vo.FilledAvgPrice != nil {
		price = *vo.FilledAvgPrice
	}
	commission := decimal.Zero
	executedAt := time.Now().UTC()
	if vo.FilledAt != nil {
		executedAt = *vo.FilledAt
	}
	_, err := o.store.RecordTransaction(ctx, ledger.Transaction{
		OrderID:      order.ID,
		AccountID:    order.AccountID,
		InstrumentID: order.InstrumentID,
		Side:         order.Side,
		Quantity:     qty,
		Price:        price,
		Commission:   commission,
		TotalAmount:  qty.Mul(price).Add(commission),
		ExecutedAt:   executedAt,
	})
	if err != nil {
		return err
	}
	logger.Infof("order sync: recorded fill transaction for order %s qty=%s price=%s", vo.ID, qty, price)
	return nil
}
