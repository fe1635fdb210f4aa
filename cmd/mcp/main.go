// Command mcp serves the get_signal tool over stdio for MCP clients.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BallDevTools/telegram-bot/internal/app"
	"github.com/BallDevTools/telegram-bot/internal/config"
	"github.com/BallDevTools/telegram-bot/internal/logger"
	"github.com/BallDevTools/telegram-bot/internal/mcpserver"
	"github.com/BallDevTools/telegram-bot/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	loadEnvFunc            = godotenv.Load
	initLoggerFunc         = logger.Init
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newAnalysisServiceFunc = app.NewAnalysisService
	runServerFunc          = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
)

func main() {
	loadEnvFunc()

	// zap writes to stderr; stdout carries the protocol.
	syncLogger := initLoggerFunc(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer syncLogger()

	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		zap.S().Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zap.S().Errorf("error shutting down tracer provider: %v", err)
		}
	}()

	svc, closeStores := newAnalysisServiceFunc(ctx, cfg, tracer)
	defer closeStores()

	if err := runServerFunc(ctx, mcpserver.NewServer(tracer, svc)); err != nil && ctx.Err() == nil {
		zap.S().Errorf("MCP server stopped: %v", err)
	}
}
