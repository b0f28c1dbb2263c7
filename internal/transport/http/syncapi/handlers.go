package syncapi

import (
	"net/http"
	"strconv"
	"strings"

	"portsync/internal/ledger"
	"portsync/internal/reconcile"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	orchestrator *reconcile.Orchestrator
	holdings     ledger.HoldingStore
	lookbackDays int
	backfillDays int
}

func (h *handlers) accountParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("account"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return 0, false
	}
	return id, true
}

func (h *handlers) daysQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}

func (h *handlers) fullSync(c *gin.Context) {
	accountID, ok := h.accountParam(c)
	if !ok {
		return
	}
	days := h.daysQuery(c, "days", h.lookbackDays)
	report, err := h.orchestrator.FullSync(c.Request.Context(), accountID, days)
	if err != nil {
		// Cancellation mid-run still returns whatever was applied.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) syncPositions(c *gin.Context) {
	accountID, ok := h.accountParam(c)
	if !ok {
		return
	}
	results, err := h.orchestrator.ReconcilePositions(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": results})
}

func (h *handlers) syncOrders(c *gin.Context) {
	accountID, ok := h.accountParam(c)
	if !ok {
		return
	}
	days := h.daysQuery(c, "days", h.lookbackDays)
	results, err := h.orchestrator.ReconcileOrders(c.Request.Context(), accountID, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": results})
}

func (h *handlers) backfillHistory(c *gin.Context) {
	accountID, ok := h.accountParam(c)
	if !ok {
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	days := h.daysQuery(c, "days", h.backfillDays)
	results, err := h.orchestrator.BackfillHistory(c.Request.Context(), accountID, symbol, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "days": days, "bars": results})
}

func (h *handlers) listHoldings(c *gin.Context) {
	accountID, ok := h.accountParam(c)
	if !ok {
		return
	}
	if h.holdings == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "holdings store unavailable"})
		return
	}
	holdings, err := h.holdings.ListActiveHoldings(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}
