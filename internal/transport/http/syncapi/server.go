package syncapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"portsync/internal/ledger"
	"portsync/internal/logger"
	"portsync/internal/reconcile"

	"github.com/gin-gonic/gin"
)

// Server exposes the reconciliation triggers over HTTP. Per-item failures
// come back inside the report with status 200; only transport or
// phase-level failures become error responses.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the server dependencies.
type ServerConfig struct {
	Addr         string
	Orchestrator *reconcile.Orchestrator
	Holdings     ledger.HoldingStore
	LookbackDays int
	BackfillDays int
}

// NewServer builds the sync HTTP server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("sync http server requires an orchestrator")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{
		orchestrator: cfg.Orchestrator,
		holdings:     cfg.Holdings,
		lookbackDays: cfg.LookbackDays,
		backfillDays: cfg.BackfillDays,
	}
	api := router.Group("/api")
	{
		api.POST("/sync/full/:account", h.fullSync)
		api.POST("/sync/positions/:account", h.syncPositions)
		api.POST("/sync/orders/:account", h.syncOrders)
		api.POST("/sync/history/:account/:symbol", h.backfillHistory)
		api.GET("/portfolio/:account/holdings", h.listHoldings)
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("sync http server listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("http %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
