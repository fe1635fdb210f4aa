package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and the market being analyzed
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	m := h.signals.Market()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"symbol":   m.Symbol,
		"interval": m.Interval,
	})
}
