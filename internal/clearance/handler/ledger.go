package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/ledger"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
)

// LedgerHandler serves read-only views of the trade ledger.
type LedgerHandler struct {
	led    ledger.Ledger
	engine *risk.Engine
	logger *zap.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(led ledger.Ledger, engine *risk.Engine, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{led: led, engine: engine, logger: logger}
}

// Register registers ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/ledger", h.Overview)
	rg.GET("/ledger/:fingerprint", h.GetRecord)
}

// Overview handles GET /ledger.
func (h *LedgerHandler) Overview(c *gin.Context) {
	total, err := h.led.Len(c.Request.Context())
	if err != nil {
		h.logger.Error("ledger overview", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":        total,
		"risk_threshold": h.engine.Threshold(),
	})
}

// GetRecord handles GET /ledger/:fingerprint, returning the raw ledger
// record without resolving or fetching the document bytes.
func (h *LedgerHandler) GetRecord(c *gin.Context) {
	fp, err := fingerprint.Parse(c.Param("fingerprint"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fingerprint: " + err.Error()})
		return
	}

	rec, ok, err := h.led.Lookup(c.Request.Context(), fp)
	if err != nil {
		h.logger.Error("ledger lookup", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger unreachable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "fingerprint not anchored"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
