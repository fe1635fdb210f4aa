package handler

import (
	"context"
	"net/http"

	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/metrics"
	"github.com/BallDevTools/telegram-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type SignalService interface {
	Latest(ctx context.Context) (domain.Analysis, error)
	Analyze(ctx context.Context) (domain.Analysis, error)
	Candles(ctx context.Context) ([]domain.Candle, error)
	Market() service.Market
}

type Handler struct {
	tracer  trace.Tracer
	signals SignalService
}

func New(tracer trace.Tracer, signals SignalService) *Handler {
	return &Handler{
		tracer:  tracer,
		signals: signals,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/api/signal", h.GetSignal)
	r.GET("/api/candles", h.GetCandles)
}

// RegisterMCP mounts an MCP streamable HTTP handler at /mcp behind
// APIKeyAuth.
func RegisterMCP(r *gin.Engine, mcpHandler http.Handler, apiKey string) {
	r.Any("/mcp", APIKeyAuth(apiKey), gin.WrapH(mcpHandler))
}
