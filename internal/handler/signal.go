package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxCandleLimit = 500

// GetSignal godoc
// @Summary      Latest trading signal
// @Description  Returns the cached analysis, or a fresh one with refresh=true
// @Tags         signals
// @Produce      json
// @Param        refresh  query  bool  false  "Bypass the result cache"
// @Success      200  {object}  domain.Analysis
// @Failure      500  {object}  map[string]string
// @Router       /api/signal [get]
func (h *Handler) GetSignal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()

	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	span.SetAttributes(attribute.Bool("refresh", refresh))

	analyze := h.signals.Latest
	if refresh {
		analyze = h.signals.Analyze
	}
	a, err := analyze(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, a)
}

// GetCandles godoc
// @Summary      Candle window
// @Description  Returns the normalized candle window the analysis runs on, oldest first
// @Tags         signals
// @Produce      json
// @Param        limit  query  int  false  "Return only the newest N candles (max 500)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/candles [get]
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > maxCandleLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	candles, err := h.signals.Candles(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	m := h.signals.Market()
	c.JSON(http.StatusOK, gin.H{
		"symbol":   m.Symbol,
		"interval": m.Interval,
		"count":    len(candles),
		"candles":  candles,
	})
}
