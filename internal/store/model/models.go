package model

import (
	"time"

	"gorm.io/datatypes"
)

type InstrumentModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Symbol    string    `gorm:"column:symbol;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Exchange  string    `gorm:"column:exchange"`
	Active    bool      `gorm:"column:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (InstrumentModel) TableName() string { return "instruments" }

type HoldingModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	AccountID    int64     `gorm:"column:account_id;uniqueIndex:idx_holding_account_instrument,priority:1"`
	InstrumentID int64     `gorm:"column:instrument_id;uniqueIndex:idx_holding_account_instrument,priority:2"`
	Quantity     float64   `gorm:"column:quantity"`
	AvgCost      float64   `gorm:"column:avg_cost"`
	Status       string    `gorm:"column:status;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (HoldingModel) TableName() string { return "holdings" }

type OrderModel struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	VenueOrderID   string         `gorm:"column:venue_order_id;uniqueIndex"`
	AccountID      int64          `gorm:"column:account_id;index"`
	InstrumentID   int64          `gorm:"column:instrument_id"`
	Side           string         `gorm:"column:side"`
	Quantity       float64        `gorm:"column:quantity"`
	FilledQuantity *float64       `gorm:"column:filled_quantity"`
	LimitPrice     *float64       `gorm:"column:limit_price"`
	FilledAvgPrice *float64       `gorm:"column:filled_avg_price"`
	Status         string         `gorm:"column:status;index"`
	SubmittedAt    time.Time      `gorm:"column:submitted_at"`
	FilledAt       *time.Time     `gorm:"column:filled_at"`
	Raw            datatypes.JSON `gorm:"column:raw;type:TEXT"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (OrderModel) TableName() string { return "orders" }

type TransactionModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Reference    string    `gorm:"column:reference;uniqueIndex"`
	OrderID      int64     `gorm:"column:order_id;uniqueIndex"`
	AccountID    int64     `gorm:"column:account_id;index"`
	InstrumentID int64     `gorm:"column:instrument_id"`
	Side         string    `gorm:"column:side"`
	Quantity     float64   `gorm:"column:quantity"`
	Price        float64   `gorm:"column:price"`
	Commission   float64   `gorm:"column:commission"`
	TotalAmount  float64   `gorm:"column:total_amount"`
	ExecutedAt   time.Time `gorm:"column:executed_at"`
}

func (TransactionModel) TableName() string { return "transactions" }
