package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the local order lifecycle enumeration. The venue vocabulary
// is mapped onto this closed set by the reconcile package.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusExpired         OrderStatus = "expired"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusReplaced        OrderStatus = "replaced"
)

// Terminal reports whether no further transitions are expected.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusExpired, OrderStatusRejected:
		return true
	}
	return false
}

// FillCompleted reports whether the status represents a completed fill, the
// transition that produces a Transaction.
func (s OrderStatus) FillCompleted() bool {
	return s == OrderStatusFilled
}

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

type HoldingStatus string

const (
	HoldingActive HoldingStatus = "active"
	HoldingClosed HoldingStatus = "closed"
)

// Instrument is a locally tracked tradable symbol. Instruments are never
// deleted, only deactivated.
type Instrument struct {
	ID        int64
	Symbol    string
	Name      string
	Exchange  string
	Active    bool
	CreatedAt time.Time
}

// Holding is the quantity and cost basis for one instrument in one account.
// At most one active holding exists per (account, instrument).
type Holding struct {
	ID           int64
	AccountID    int64
	InstrumentID int64
	Symbol       string
	Quantity     decimal.Decimal
	AvgCost      decimal.Decimal
	Status       HoldingStatus
	UpdatedAt    time.Time
}

// Order mirrors a venue order. VenueOrderID is unique and immutable once
// set; all later syncs touch mutable fields only.
type Order struct {
	ID             int64
	VenueOrderID   string
	AccountID      int64
	InstrumentID   int64
	Symbol         string
	Side           OrderSide
	Quantity       decimal.Decimal
	FilledQuantity *decimal.Decimal
	LimitPrice     *decimal.Decimal
	FilledAvgPrice *decimal.Decimal
	Status         OrderStatus
	SubmittedAt    time.Time
	FilledAt       *time.Time
	Raw            []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderUpdate carries the mutable order fields for a reconcile pass.
type OrderUpdate struct {
	Status         OrderStatus
	FilledQuantity *decimal.Decimal
	FilledAvgPrice *decimal.Decimal
	FilledAt       *time.Time
	Raw            []byte
}

// Transaction is an immutable record of an executed fill. At most one
// transaction exists per order.
type Transaction struct {
	ID           int64
	Reference    string
	OrderID      int64
	AccountID    int64
	InstrumentID int64
	Side         OrderSide
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Commission   decimal.Decimal
	TotalAmount  decimal.Decimal
	ExecutedAt   time.Time
}

// DailyBar is one OHLCV bar, unique per (instrument, date).
type DailyBar struct {
	InstrumentID int64
	Date         string // YYYY-MM-DD
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
}
