package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portsync/internal/ledger"
	"portsync/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) FindInstrumentBySymbol(ctx context.Context, symbol string) (ledger.Instrument, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ledger.Instrument{}, fmt.Errorf("symbol is required")
	}
	var m model.InstrumentModel
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Instrument{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Instrument{}, err
	}
	return instrumentToRecord(m), nil
}

func (s *Store) CreateInstrumentIfAbsent(ctx context.Context, ins ledger.Instrument) (ledger.Instrument, bool, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ins.Symbol))
	if symbol == "" {
		return ledger.Instrument{}, false, fmt.Errorf("symbol is required")
	}
	m := model.InstrumentModel{
		Symbol:    symbol,
		Name:      ins.Name,
		Exchange:  ins.Exchange,
		Active:    ins.Active,
		CreatedAt: time.Now().UTC(),
	}
	// DoNothing on the symbol unique index makes concurrent first-reference
	// creates converge on a single row; RowsAffected tells the loser apart
	// from the winner.
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoNothing: true,
		}).
		Create(&m)
	if res.Error != nil {
		return ledger.Instrument{}, false, res.Error
	}
	found, err := s.FindInstrumentBySymbol(ctx, symbol)
	if err != nil {
		return ledger.Instrument{}, false, err
	}
	return found, res.RowsAffected > 0, nil
}
