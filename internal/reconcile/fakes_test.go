package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"portsync/internal/gateway/venue"
	"portsync/internal/ledger"

	"github.com/shopspring/decimal"
)

// fakeVenue is a scriptable VenueClient.
type fakeVenue struct {
	positions    []venue.Position
	positionsErr error
	orders       []venue.Order
	ordersErr    error
	instruments  map[string]venue.Instrument
	bars         []venue.Bar
	barsErr      error
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{instruments: make(map[string]venue.Instrument)}
}

func (f *fakeVenue) addInstrument(symbol, name, exchange string) {
	symbol = strings.ToUpper(symbol)
	f.instruments[symbol] = venue.Instrument{
		ID: "ext-" + symbol, Symbol: symbol, Name: name, Exchange: exchange, Status: "active", Tradable: true,
	}
}

func (f *fakeVenue) GetPositions(ctx context.Context) ([]venue.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeVenue) GetOrders(ctx context.Context, window venue.OrderWindow) ([]venue.Order, error) {
	return f.orders, f.ordersErr
}

func (f *fakeVenue) GetInstrument(ctx context.Context, symbol string) (venue.Instrument, error) {
	ins, ok := f.instruments[strings.ToUpper(symbol)]
	if !ok {
		return venue.Instrument{}, fmt.Errorf("%w: %s", venue.ErrSymbolNotFound, symbol)
	}
	return ins, nil
}

func (f *fakeVenue) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]venue.Bar, error) {
	return f.bars, f.barsErr
}

// memStore is an in-memory ledger.Store with per-method error injection.
type memStore struct {
	mu sync.Mutex

	nextID       int64
	instruments  map[string]ledger.Instrument
	holdings     map[int64]ledger.Holding
	orders       map[string]ledger.Order
	transactions map[int64]ledger.Transaction

	failCreateHolding map[string]error
	failUpdateOrder   map[string]error
	failCreateOrder   map[string]error
	missFindOnce      map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		instruments:       make(map[string]ledger.Instrument),
		holdings:          make(map[int64]ledger.Holding),
		orders:            make(map[string]ledger.Order),
		transactions:      make(map[int64]ledger.Transaction),
		failCreateHolding: make(map[string]error),
		failUpdateOrder:   make(map[string]error),
		failCreateOrder:   make(map[string]error),
		missFindOnce:      make(map[string]bool),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) FindInstrumentBySymbol(ctx context.Context, symbol string) (ledger.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(symbol)
	if m.missFindOnce[key] {
		// Simulates a concurrent creator winning between the lookup and the
		// create, the duplicate-key race the store contract covers.
		delete(m.missFindOnce, key)
		return ledger.Instrument{}, ledger.ErrNotFound
	}
	ins, ok := m.instruments[key]
	if !ok {
		return ledger.Instrument{}, ledger.ErrNotFound
	}
	return ins, nil
}

func (m *memStore) CreateInstrumentIfAbsent(ctx context.Context, ins ledger.Instrument) (ledger.Instrument, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(ins.Symbol)
	if existing, ok := m.instruments[key]; ok {
		return existing, false, nil
	}
	ins.ID = m.id()
	ins.Symbol = key
	ins.CreatedAt = time.Now()
	m.instruments[key] = ins
	return ins, true, nil
}

func (m *memStore) ListActiveHoldings(ctx context.Context, accountID int64) ([]ledger.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Holding
	for _, h := range m.holdings {
		if h.AccountID == accountID && h.Status == ledger.HoldingActive {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) CreateHolding(ctx context.Context, h ledger.Holding) (ledger.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failCreateHolding[strings.ToUpper(h.Symbol)]; err != nil {
		return ledger.Holding{}, err
	}
	// The store keys holdings on (account, instrument) regardless of status;
	// a closed row is reactivated in place, never duplicated.
	for id, existing := range m.holdings {
		if existing.AccountID == h.AccountID && existing.InstrumentID == h.InstrumentID {
			existing.Quantity = h.Quantity
			existing.AvgCost = h.AvgCost
			existing.Status = ledger.HoldingActive
			existing.UpdatedAt = time.Now()
			m.holdings[id] = existing
			return existing, nil
		}
	}
	h.ID = m.id()
	h.Status = ledger.HoldingActive
	h.UpdatedAt = time.Now()
	m.holdings[h.ID] = h
	return h, nil
}

func (m *memStore) UpdateHolding(ctx context.Context, holdingID int64, h ledger.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.holdings[holdingID]
	if !ok {
		return ledger.ErrNotFound
	}
	existing.Quantity = h.Quantity
	existing.AvgCost = h.AvgCost
	existing.Status = ledger.HoldingActive
	existing.UpdatedAt = time.Now()
	m.holdings[holdingID] = existing
	return nil
}

func (m *memStore) CloseHolding(ctx context.Context, holdingID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.holdings[holdingID]
	if !ok {
		return ledger.ErrNotFound
	}
	existing.Quantity = decimal.Zero
	existing.AvgCost = decimal.Zero
	existing.Status = ledger.HoldingClosed
	m.holdings[holdingID] = existing
	return nil
}

func (m *memStore) FindOrderByVenueID(ctx context.Context, venueOrderID string) (ledger.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[venueOrderID]
	if !ok {
		return ledger.Order{}, ledger.ErrNotFound
	}
	return o, nil
}

func (m *memStore) CreateOrder(ctx context.Context, o ledger.Order) (ledger.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failCreateOrder[o.VenueOrderID]; err != nil {
		return ledger.Order{}, err
	}
	o.ID = m.id()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.VenueOrderID] = o
	return o, nil
}

func (m *memStore) UpdateOrder(ctx context.Context, orderID int64, upd ledger.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, o := range m.orders {
		if o.ID != orderID {
			continue
		}
		if err := m.failUpdateOrder[key]; err != nil {
			return err
		}
		o.Status = upd.Status
		if upd.FilledQuantity != nil {
			o.FilledQuantity = upd.FilledQuantity
		}
		if upd.FilledAvgPrice != nil {
			o.FilledAvgPrice = upd.FilledAvgPrice
		}
		if upd.FilledAt != nil {
			o.FilledAt = upd.FilledAt
		}
		o.UpdatedAt = time.Now()
		m.orders[key] = o
		return nil
	}
	return ledger.ErrNotFound
}

func (m *memStore) HasTransactionForOrder(ctx context.Context, orderID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.transactions[orderID]
	return ok, nil
}

func (m *memStore) RecordTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.transactions[tx.OrderID]; ok {
		return existing, nil
	}
	tx.ID = m.id()
	m.transactions[tx.OrderID] = tx
	return tx, nil
}

func (m *memStore) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *memStore) holdingBySymbol(symbol string) (ledger.Holding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holdings {
		if strings.EqualFold(h.Symbol, symbol) {
			return h, true
		}
	}
	return ledger.Holding{}, false
}

// memBarStore is an in-memory ledger.BarStore.
type memBarStore struct {
	mu       sync.Mutex
	bars     map[string]ledger.DailyBar
	failDate string
}

func newMemBarStore() *memBarStore {
	return &memBarStore{bars: make(map[string]ledger.DailyBar)}
}

func (m *memBarStore) InsertDailyBar(ctx context.Context, bar ledger.DailyBar) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDate != "" && bar.Date == m.failDate {
		return false, fmt.Errorf("disk full")
	}
	key := fmt.Sprintf("%d/%s", bar.InstrumentID, bar.Date)
	if _, ok := m.bars[key]; ok {
		return false, nil
	}
	m.bars[key] = bar
	return true, nil
}

func (m *memBarStore) CountBars(ctx context.Context, instrumentID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bars {
		if b.InstrumentID == instrumentID {
			n++
		}
	}
	return n, nil
}
