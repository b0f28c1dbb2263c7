package barstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"portsync/internal/ledger"

	_ "modernc.org/sqlite"
)

// Store persists daily OHLCV bars in a dedicated SQLite file. Bars are
// append-heavy market data, kept out of the relational ledger and written
// through plain SQL.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ ledger.BarStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS daily_bars (
    instrument_id INTEGER NOT NULL,
    date          TEXT    NOT NULL,
    open          REAL    NOT NULL,
    high          REAL    NOT NULL,
    low           REAL    NOT NULL,
    close         REAL    NOT NULL,
    volume        INTEGER NOT NULL,
    PRIMARY KEY (instrument_id, date)
);
`

// New opens (or creates) the bar database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("bar store: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertDailyBar inserts the bar and reports whether a new row was created.
// A pre-existing row for the same (instrument, date) is left untouched.
func (s *Store) InsertDailyBar(ctx context.Context, bar ledger.DailyBar) (bool, error) {
	if bar.InstrumentID <= 0 {
		return false, fmt.Errorf("bar requires an instrument id")
	}
	if strings.TrimSpace(bar.Date) == "" {
		return false, fmt.Errorf("bar requires a date")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_bars
		 (instrument_id, date, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bar.InstrumentID, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CountBars(ctx context.Context, instrumentID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_bars WHERE instrument_id = ?`, instrumentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
