// Package app wires the analysis pipeline shared by the binaries.
package app

import (
	"context"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/cache"
	"github.com/BallDevTools/telegram-bot/internal/config"
	"github.com/BallDevTools/telegram-bot/internal/db"
	"github.com/BallDevTools/telegram-bot/internal/provider"
	"github.com/BallDevTools/telegram-bot/internal/repository"
	"github.com/BallDevTools/telegram-bot/internal/service"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	newProviderFunc  = func(tracer trace.Tracer) service.CandleProvider {
		return provider.NewCoinGeckoProvider(tracer)
	}
)

// NewAnalysisService connects the optional stores and builds the service.
// Postgres and Redis failures degrade the service instead of stopping it:
// without Postgres candles are fetched live only, without Redis results are
// cached in process. The returned func releases the connections.
func NewAnalysisService(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (*service.AnalysisService, func()) {
	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		zap.S().Warnf("Postgres unavailable, candles will not be persisted: %v", err)
	}

	var repo service.CandleRepository
	if db.Pool != nil {
		repo = repository.NewCandleRepository(db.Pool, tracer)
	}

	ttl := time.Duration(cfg.ResultCacheTTLSecs) * time.Second
	var resultCache cache.ResultCache
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		zap.S().Warnf("Redis unavailable, caching results in memory: %v", err)
		resultCache = cache.NewMemoryResultCache(ttl)
	} else {
		resultCache = cache.NewRedisResultCache(cache.Client, cfg.Symbol, cfg.Interval, ttl)
	}

	svc := service.NewAnalysisService(
		tracer,
		newProviderFunc(tracer),
		repo,
		resultCache,
		cfg.Analysis,
		service.Market{Symbol: cfg.Symbol, Interval: cfg.Interval, Limit: cfg.CandleLimit},
	)

	closeFn := func() {
		db.Close()
		if cache.Client != nil {
			if err := cache.Client.Close(); err != nil {
				zap.S().Warnf("closing redis: %v", err)
			}
		}
	}
	return svc, closeFn
}
