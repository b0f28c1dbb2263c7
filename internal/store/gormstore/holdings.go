package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portsync/internal/ledger"
	"portsync/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) ListActiveHoldings(ctx context.Context, accountID int64) ([]ledger.Holding, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("account id is required")
	}
	var models []model.HoldingModel
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, string(ledger.HoldingActive)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	symbols, err := s.symbolsByInstrumentID(ctx, instrumentIDs(models))
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Holding, 0, len(models))
	for _, m := range models {
		out = append(out, holdingToRecord(m, symbols[m.InstrumentID]))
	}
	return out, nil
}

func (s *Store) CreateHolding(ctx context.Context, h ledger.Holding) (ledger.Holding, error) {
	if h.AccountID <= 0 || h.InstrumentID <= 0 {
		return ledger.Holding{}, fmt.Errorf("holding requires account and instrument ids")
	}
	m := model.HoldingModel{
		AccountID:    h.AccountID,
		InstrumentID: h.InstrumentID,
		Quantity:     f64(h.Quantity),
		AvgCost:      f64(h.AvgCost),
		Status:       string(ledger.HoldingActive),
		UpdatedAt:    time.Now().UTC(),
	}
	// The (account, instrument) unique index covers closed rows too, so a
	// position reopened at the venue lands on the conflict clause and
	// reactivates its old row instead of failing the insert.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "instrument_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   m.Quantity,
				"avg_cost":   m.AvgCost,
				"status":     string(ledger.HoldingActive),
				"updated_at": m.UpdatedAt,
			}),
		}).
		Create(&m).Error
	if err != nil {
		return ledger.Holding{}, err
	}
	var existing model.HoldingModel
	err = s.db.WithContext(ctx).
		Where("account_id = ? AND instrument_id = ?", h.AccountID, h.InstrumentID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Holding{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Holding{}, err
	}
	return holdingToRecord(existing, h.Symbol), nil
}

func (s *Store) UpdateHolding(ctx context.Context, holdingID int64, h ledger.Holding) error {
	if holdingID <= 0 {
		return fmt.Errorf("holding id is required")
	}
	res := s.db.WithContext(ctx).
		Model(&model.HoldingModel{}).
		Where("id = ?", holdingID).
		Updates(map[string]interface{}{
			"quantity":   f64(h.Quantity),
			"avg_cost":   f64(h.AvgCost),
			"status":     string(ledger.HoldingActive),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// CloseHolding zeroes the quantities and tags the row closed. The explicit
// status tag keeps "closed" distinct from a zero-but-open position.
func (s *Store) CloseHolding(ctx context.Context, holdingID int64) error {
	if holdingID <= 0 {
		return fmt.Errorf("holding id is required")
	}
	res := s.db.WithContext(ctx).
		Model(&model.HoldingModel{}).
		Where("id = ?", holdingID).
		Updates(map[string]interface{}{
			"quantity":   0.0,
			"avg_cost":   0.0,
			"status":     string(ledger.HoldingClosed),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func instrumentIDs(models []model.HoldingModel) []int64 {
	seen := make(map[int64]struct{}, len(models))
	ids := make([]int64, 0, len(models))
	for _, m := range models {
		if _, ok := seen[m.InstrumentID]; ok {
			continue
		}
		seen[m.InstrumentID] = struct{}{}
		ids = append(ids, m.InstrumentID)
	}
	return ids
}

// symbolsByInstrumentID batches symbol lookup to avoid N+1 queries on list
// endpoints.
func (s *Store) symbolsByInstrumentID(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []model.InstrumentModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.ID] = m.Symbol
	}
	return out, nil
}
