package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portsync/internal/ledger"
	"portsync/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Store) FindOrderByVenueID(ctx context.Context, venueOrderID string) (ledger.Order, error) {
	venueOrderID = strings.TrimSpace(venueOrderID)
	if venueOrderID == "" {
		return ledger.Order{}, fmt.Errorf("venue order id is required")
	}
	var m model.OrderModel
	err := s.db.WithContext(ctx).Where("venue_order_id = ?", venueOrderID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Order{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Order{}, err
	}
	symbols, err := s.symbolsByInstrumentID(ctx, []int64{m.InstrumentID})
	if err != nil {
		return ledger.Order{}, err
	}
	return orderToRecord(m, symbols[m.InstrumentID]), nil
}

func (s *Store) CreateOrder(ctx context.Context, o ledger.Order) (ledger.Order, error) {
	if strings.TrimSpace(o.VenueOrderID) == "" {
		return ledger.Order{}, fmt.Errorf("venue order id is required")
	}
	if o.AccountID <= 0 || o.InstrumentID <= 0 {
		return ledger.Order{}, fmt.Errorf("order requires account and instrument ids")
	}
	m := orderToModel(o)
	m.ID = 0
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ledger.Order{}, err
	}
	return orderToRecord(m, o.Symbol), nil
}

func (s *Store) UpdateOrder(ctx context.Context, orderID int64, upd ledger.OrderUpdate) error {
	if orderID <= 0 {
		return fmt.Errorf("order id is required")
	}
	fields := map[string]interface{}{
		"status":     string(upd.Status),
		"updated_at": time.Now().UTC(),
	}
	if upd.FilledQuantity != nil {
		fields["filled_quantity"] = f64(*upd.FilledQuantity)
	}
	if upd.FilledAvgPrice != nil {
		fields["filled_avg_price"] = f64(*upd.FilledAvgPrice)
	}
	if upd.FilledAt != nil {
		fields["filled_at"] = *upd.FilledAt
	}
	if len(upd.Raw) > 0 {
		fields["raw"] = datatypes.JSON(upd.Raw)
	}
	res := s.db.WithContext(ctx).
		Model(&model.OrderModel{}).
		Where("id = ?", orderID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
