package venue

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one open position as reported by the venue. Numeric fields
// arrive as JSON strings and decode into decimals.
type Position struct {
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	Side          string          `json:"side"`
}

// Order is one order as reported by the venue. Status carries the venue's
// own vocabulary; mapping to the local state machine happens in reconcile.
type Order struct {
	ID             string           `json:"id"`
	ClientOrderID  string           `json:"client_order_id"`
	Symbol         string           `json:"symbol"`
	Side           string           `json:"side"`
	Status         string           `json:"status"`
	Qty            decimal.Decimal  `json:"qty"`
	FilledQty      *decimal.Decimal `json:"filled_qty"`
	LimitPrice     *decimal.Decimal `json:"limit_price"`
	StopPrice      *decimal.Decimal `json:"stop_price"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	FilledAt       *time.Time       `json:"filled_at"`
	Raw            []byte           `json:"-"`
}

// Instrument is venue metadata for a tradable symbol.
type Instrument struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Status   string `json:"status"`
	Tradable bool   `json:"tradable"`
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    int64     `json:"v"`
}

// Account is the venue-side account snapshot.
type Account struct {
	ID          string          `json:"id"`
	Number      string          `json:"account_number"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Cash        decimal.Decimal `json:"cash"`
	Equity      decimal.Decimal `json:"equity"`
	BuyingPower decimal.Decimal `json:"buying_power"`
}

// OrderWindow bounds the order listing lookback.
type OrderWindow struct {
	After time.Time
	Until time.Time
}
