package syncapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"portsync/internal/gateway/venue"
	"portsync/internal/reconcile"
	"portsync/internal/store/barstore"
	"portsync/internal/store/gormstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// stubVenue serves a fixed snapshot for handler tests.
type stubVenue struct {
	positions []venue.Position
	orders    []venue.Order
}

func (s *stubVenue) GetPositions(ctx context.Context) ([]venue.Position, error) {
	return s.positions, nil
}

func (s *stubVenue) GetOrders(ctx context.Context, window venue.OrderWindow) ([]venue.Order, error) {
	return s.orders, nil
}

func (s *stubVenue) GetInstrument(ctx context.Context, symbol string) (venue.Instrument, error) {
	return venue.Instrument{Symbol: symbol, Name: symbol + " Co", Exchange: "NASDAQ", Status: "active"}, nil
}

func (s *stubVenue) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]venue.Bar, error) {
	return []venue.Bar{{Timestamp: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000}}, nil
}

func newTestServer(t *testing.T, vc reconcile.VenueClient) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := gormstore.New(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	bars, err := barstore.New(filepath.Join(dir, "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bars.Close() })

	resolver := reconcile.NewResolver(vc, store, 30)
	tol := reconcile.DefaultTolerances()
	syncer := reconcile.NewBarSyncer(resolver, bars, reconcile.VenueBars{Client: vc}, nil)
	orch := reconcile.NewOrchestrator(
		reconcile.NewPositionReconciler(vc, store, resolver, tol),
		reconcile.NewOrderReconciler(vc, store, resolver, tol),
		syncer,
	)
	srv, err := NewServer(ServerConfig{
		Addr:         ":0",
		Orchestrator: orch,
		Holdings:     store,
		LookbackDays: 7,
		BackfillDays: 30,
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubVenue{})
	rec := do(t, srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestFullSyncEndpoint(t *testing.T) {
	vc := &stubVenue{
		positions: []venue.Position{{Symbol: "AAPL", Qty: decimal.NewFromInt(10), AvgEntryPrice: decimal.NewFromFloat(150.25)}},
		orders: []venue.Order{{
			ID: "ord-1", Symbol: "AAPL", Side: "buy", Status: "accepted",
			Qty: decimal.NewFromInt(10), SubmittedAt: time.Now().UTC(),
		}},
	}
	srv := newTestServer(t, vc)

	rec := do(t, srv, http.MethodPost, "/api/sync/full/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotEmpty(t, gjson.Get(body, "run_id").String())
	assert.EqualValues(t, 1, gjson.Get(body, "account_id").Int())
	assert.Len(t, gjson.Get(body, "positions").Array(), 1)
	assert.Len(t, gjson.Get(body, "orders").Array(), 1)
	assert.Equal(t, "added", gjson.Get(body, "positions.0.action").String())
}

func TestSyncEndpointsRejectBadAccount(t *testing.T) {
	srv := newTestServer(t, &stubVenue{})
	for _, path := range []string{
		"/api/sync/full/abc",
		"/api/sync/positions/0",
		"/api/sync/orders/-1",
		"/api/sync/history/abc/AAPL",
	} {
		rec := do(t, srv, http.MethodPost, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "path %s", path)
	}
	rec := do(t, srv, http.MethodGet, "/api/portfolio/abc/holdings")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHoldingsEndpoint(t *testing.T) {
	vc := &stubVenue{
		positions: []venue.Position{{Symbol: "AAPL", Qty: decimal.NewFromInt(10), AvgEntryPrice: decimal.NewFromFloat(150.25)}},
	}
	srv := newTestServer(t, vc)

	rec := do(t, srv, http.MethodPost, "/api/sync/positions/1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/portfolio/1/holdings")
	require.Equal(t, http.StatusOK, rec.Code)
	holdings := gjson.Get(rec.Body.String(), "holdings").Array()
	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Get("Symbol").String())
}

func TestBackfillHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubVenue{})

	rec := do(t, srv, http.MethodPost, "/api/sync/history/1/AAPL?days=10")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "AAPL", gjson.Get(body, "symbol").String())
	assert.EqualValues(t, 10, gjson.Get(body, "days").Int())
	assert.Len(t, gjson.Get(body, "bars").Array(), 1)
}

func TestNewServerRequiresOrchestrator(t *testing.T) {
	_, err := NewServer(ServerConfig{Addr: ":0"})
	assert.Error(t, err)
}
