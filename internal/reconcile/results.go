package reconcile

import (
	"time"

	"portsync/internal/ledger"

	"github.com/shopspring/decimal"
)

// Action tags what a reconcile pass did to one item.
type Action string

const (
	ActionAdded     Action = "added"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionClosed    Action = "closed"
	ActionFailed    Action = "failed"
)

// PositionResult is the outcome for one holding touched by a position pass.
type PositionResult struct {
	Symbol   string          `json:"symbol"`
	Action   Action          `json:"action"`
	Qty      decimal.Decimal `json:"qty"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	Error    string          `json:"error,omitempty"`
}

// OrderResult is the outcome for one venue order processed by an order pass.
// UnmappedStatus marks orders whose venue status had no local equivalent and
// fell back to "new".
type OrderResult struct {
	Symbol         string             `json:"symbol"`
	VenueOrderID   string             `json:"venue_order_id"`
	Action         Action             `json:"action"`
	Status         ledger.OrderStatus `json:"status,omitempty"`
	VenueStatus    string             `json:"venue_status,omitempty"`
	UnmappedStatus bool               `json:"unmapped_status,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// BarResult is the outcome for one (instrument, date) bar upsert.
type BarResult struct {
	Date   string  `json:"date"`
	Action Action  `json:"action"`
	Close  float64 `json:"close,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Report aggregates one full reconciliation pass. A phase error means that
// phase's top-level venue fetch failed; the other phase still runs.
type Report struct {
	RunID      string           `json:"run_id"`
	AccountID  int64            `json:"account_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Positions  []PositionResult `json:"positions"`
	Orders     []OrderResult    `json:"orders"`
	PosError   string           `json:"positions_error,omitempty"`
	OrderError string           `json:"orders_error,omitempty"`
}
