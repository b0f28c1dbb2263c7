package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portsync/internal/logger"

	"github.com/google/uuid"
)

// Orchestrator sequences a full reconciliation pass per account. Passes for
// the same account are serialized so two concurrent runs cannot both record
// the same fill; different accounts run independently.
type Orchestrator struct {
	positions *PositionReconciler
	orders    *OrderReconciler
	bars      *BarSyncer

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewOrchestrator(positions *PositionReconciler, orders *OrderReconciler, bars *BarSyncer) *Orchestrator {
	return &Orchestrator{
		positions: positions,
		orders:    orders,
		bars:      bars,
		locks:     make(map[int64]*sync.Mutex),
	}
}

func (o *Orchestrator) accountLock(accountID int64) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[accountID] = l
	}
	return l
}

// FullSync runs the positions phase then the orders phase for accountID.
// A phase-level fetch failure is surfaced in the report while the other
// phase still runs; per-item failures never abort a phase.
func (o *Orchestrator) FullSync(ctx context.Context, accountID int64, orderLookbackDays int) (Report, error) {
	if accountID <= 0 {
		return Report{}, fmt.Errorf("account id is required")
	}
	lock := o.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	report := Report{
		RunID:     uuid.NewString(),
		AccountID: accountID,
		StartedAt: time.Now().UTC(),
	}
	log := logger.With("run", report.RunID, "account", accountID)
	log.Info("full sync started")

	positions, err := o.positions.Reconcile(ctx, accountID)
	report.Positions = positions
	if err != nil {
		report.PosError = err.Error()
		log.Error("positions phase failed", "err", err)
	}

	if err := ctx.Err(); err != nil {
		report.FinishedAt = time.Now().UTC()
		return report, err
	}

	orders, err := o.orders.Reconcile(ctx, accountID, orderLookbackDays)
	report.Orders = orders
	if err != nil {
		report.OrderError = err.Error()
		log.Error("orders phase failed", "err", err)
	}

	report.FinishedAt = time.Now().UTC()
	log.Info("full sync finished",
		"positions", len(report.Positions), "orders", len(report.Orders))
	return report, nil
}

// ReconcilePositions runs the positions phase alone, under the account lock.
func (o *Orchestrator) ReconcilePositions(ctx context.Context, accountID int64) ([]PositionResult, error) {
	lock := o.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()
	return o.positions.Reconcile(ctx, accountID)
}

// ReconcileOrders runs the orders phase alone, under the account lock.
func (o *Orchestrator) ReconcileOrders(ctx context.Context, accountID int64, lookbackDays int) ([]OrderResult, error) {
	lock := o.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()
	return o.orders.Reconcile(ctx, accountID, lookbackDays)
}

// BackfillHistory seeds daily bars for one symbol.
func (o *Orchestrator) BackfillHistory(ctx context.Context, accountID int64, symbol string, days int) ([]BarResult, error) {
	return o.bars.Backfill(ctx, accountID, symbol, days)
}
