package gormstore

import (
	"portsync/internal/ledger"
	"portsync/internal/store/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func decPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func f64Ptr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := f64(*d)
	return &f
}

func instrumentToRecord(m model.InstrumentModel) ledger.Instrument {
	return ledger.Instrument{
		ID:        m.ID,
		Symbol:    m.Symbol,
		Name:      m.Name,
		Exchange:  m.Exchange,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}

func holdingToRecord(m model.HoldingModel, symbol string) ledger.Holding {
	return ledger.Holding{
		ID:           m.ID,
		AccountID:    m.AccountID,
		InstrumentID: m.InstrumentID,
		Symbol:       symbol,
		Quantity:     dec(m.Quantity),
		AvgCost:      dec(m.AvgCost),
		Status:       ledger.HoldingStatus(m.Status),
		UpdatedAt:    m.UpdatedAt,
	}
}

func orderToRecord(m model.OrderModel, symbol string) ledger.Order {
	return ledger.Order{
		ID:             m.ID,
		VenueOrderID:   m.VenueOrderID,
		AccountID:      m.AccountID,
		InstrumentID:   m.InstrumentID,
		Symbol:         symbol,
		Side:           ledger.OrderSide(m.Side),
		Quantity:       dec(m.Quantity),
		FilledQuantity: decPtr(m.FilledQuantity),
		LimitPrice:     decPtr(m.LimitPrice),
		FilledAvgPrice: decPtr(m.FilledAvgPrice),
		Status:         ledger.OrderStatus(m.Status),
		SubmittedAt:    m.SubmittedAt,
		FilledAt:       m.FilledAt,
		Raw:            []byte(m.Raw),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func orderToModel(o ledger.Order) model.OrderModel {
	return model.OrderModel{
		ID:             o.ID,
		VenueOrderID:   o.VenueOrderID,
		AccountID:      o.AccountID,
		InstrumentID:   o.InstrumentID,
		Side:           string(o.Side),
		Quantity:       f64(o.Quantity),
		FilledQuantity: f64Ptr(o.FilledQuantity),
		LimitPrice:     f64Ptr(o.LimitPrice),
		FilledAvgPrice: f64Ptr(o.FilledAvgPrice),
		Status:         string(o.Status),
		SubmittedAt:    o.SubmittedAt,
		FilledAt:       o.FilledAt,
		Raw:            datatypes.JSON(o.Raw),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func transactionToRecord(m model.TransactionModel) ledger.Transaction {
	return ledger.Transaction{
		ID:           m.ID,
		Reference:    m.Reference,
		OrderID:      m.OrderID,
		AccountID:    m.AccountID,
		InstrumentID: m.InstrumentID,
		Side:         ledger.OrderSide(m.Side),
		Quantity:     dec(m.Quantity),
		Price:        dec(m.Price),
		Commission:   dec(m.Commission),
		TotalAmount:  dec(m.TotalAmount),
		ExecutedAt:   m.ExecutedAt,
	}
}
