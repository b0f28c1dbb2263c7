package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portsync/internal/ledger"
	"portsync/internal/store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) HasTransactionForOrder(ctx context.Context, orderID int64) (bool, error) {
	if orderID <= 0 {
		return false, fmt.Errorf("order id is required")
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RecordTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.OrderID <= 0 {
		return ledger.Transaction{}, fmt.Errorf("transaction requires an order id")
	}
	if tx.AccountID <= 0 || tx.InstrumentID <= 0 {
		return ledger.Transaction{}, fmt.Errorf("transaction requires account and instrument ids")
	}
	reference := strings.TrimSpace(tx.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}
	executedAt := tx.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}
	m := model.TransactionModel{
		Reference:    reference,
		OrderID:      tx.OrderID,
		AccountID:    tx.AccountID,
		InstrumentID: tx.InstrumentID,
		Side:         string(tx.Side),
		Quantity:     f64(tx.Quantity),
		Price:        f64(tx.Price),
		Commission:   f64(tx.Commission),
		TotalAmount:  f64(tx.TotalAmount),
		ExecutedAt:   executedAt,
	}
	// The unique index on order_id enforces at-most-once even if two passes
	// race past HasTransactionForOrder; the loser lands on DoNothing and
	// re-reads the winner's row.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(&m).Error
	if err != nil {
		return ledger.Transaction{}, err
	}
	var existing model.TransactionModel
	err = s.db.WithContext(ctx).Where("order_id = ?", tx.OrderID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	return transactionToRecord(existing), nil
}
