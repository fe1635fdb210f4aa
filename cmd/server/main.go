package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/advisor"
	"github.com/BallDevTools/telegram-bot/internal/app"
	"github.com/BallDevTools/telegram-bot/internal/bot"
	"github.com/BallDevTools/telegram-bot/internal/config"
	"github.com/BallDevTools/telegram-bot/internal/handler"
	"github.com/BallDevTools/telegram-bot/internal/job"
	"github.com/BallDevTools/telegram-bot/internal/logger"
	"github.com/BallDevTools/telegram-bot/internal/mcpserver"
	"github.com/BallDevTools/telegram-bot/internal/metrics"
	"github.com/BallDevTools/telegram-bot/internal/notify"
	"github.com/BallDevTools/telegram-bot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

var (
	loadEnvFunc            = godotenv.Load
	initLoggerFunc         = logger.Init
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newAnalysisServiceFunc = app.NewAnalysisService
	newOpenAIClientFunc    = advisor.NewOpenAIClient
	newTelegramBotFunc     = bot.NewTelegramBot
	startTelegramBotFunc   = bot.StartTelegramBot
	newKafkaWriterFunc     = notify.NewKafkaWriter
	startPollerFunc        = func(p *job.AnalysisPoller, ctx context.Context) { go p.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	syncLogger := initLoggerFunc(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer syncLogger()

	cfg := loadConfigFunc()
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		zap.S().Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			zap.S().Errorf("error shutting down tracer provider: %v", err)
		}
	}()

	svc, closeStores := newAnalysisServiceFunc(ctx, cfg, tracer)
	defer closeStores()

	var explainer bot.Explainer
	if cfg.OpenAIAPIKey != "" {
		explainer = advisor.NewAdvisorService(tracer, newOpenAIClientFunc(cfg.OpenAIAPIKey), cfg.OpenAIModel)
		zap.S().Infof("Advisor enabled (model %s)", cfg.OpenAIModel)
	}

	var sinks notify.MultiSink

	b, err := newTelegramBotFunc(cfg.TelegramBotToken)
	if err != nil {
		zap.S().Errorf("Telegram bot disabled: %v", err)
	}
	if b != nil {
		startTelegramBotFunc(b, bot.NewHandlers(svc, explainer))
		if cfg.TelegramChatID != 0 {
			sinks = append(sinks, notify.NewTelegramSink(b, cfg.TelegramChatID))
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		w := newKafkaWriterFunc(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := w.Close(); err != nil {
				zap.S().Warnf("closing kafka writer: %v", err)
			}
		}()
		sinks = append(sinks, notify.NewKafkaSink(w))
		zap.S().Infof("Publishing signals to kafka topic %s", cfg.KafkaTopic)
	}

	var publisher job.Publisher
	if len(sinks) > 0 {
		publisher = sinks
	}
	poller := job.NewAnalysisPoller(tracer, svc, publisher, cfg.AnalysisPollSecs, job.NotifyPolicy{
		MinConfidence: cfg.NotifyMinConfidence,
		OnChangeOnly:  cfg.NotifyOnChangeOnly,
	})
	startPollerFunc(poller, ctx)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("signalbot"))
	handler.New(tracer, svc).RegisterRoutes(r)
	if cfg.MCPHTTPEnabled {
		handler.RegisterMCP(r, mcpserver.NewHTTPHandler(mcpserver.NewServer(tracer, svc)), cfg.MCPAuthToken)
		zap.S().Info("MCP endpoint enabled at /mcp")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		zap.S().Infof("HTTP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	zap.S().Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		zap.S().Errorf("Server forced to shutdown: %v", err)
	}

	zap.S().Info("Server exiting")
}
