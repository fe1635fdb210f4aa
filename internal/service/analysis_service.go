package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/analysis"
	"github.com/BallDevTools/telegram-bot/internal/cache"
	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CandleProvider interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

type CandleRepository interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
	UpsertCandles(ctx context.Context, candles []*domain.Candle) error
}

type Market struct {
	Symbol   string
	Interval string
	Limit    int
}

// AnalysisService runs the analysis pipeline for one market: fetch candles,
// analyze them, and remember the result.
type AnalysisService struct {
	tracer   trace.Tracer
	provider CandleProvider
	repo     CandleRepository
	cache    cache.ResultCache
	analyzer *analysis.Analyzer
	market   Market

	now   func() time.Time
	newID func() string
}

// NewAnalysisService wires the pipeline. repo and resultCache may be nil.
func NewAnalysisService(
	tracer trace.Tracer,
	provider CandleProvider,
	repo CandleRepository,
	resultCache cache.ResultCache,
	params analysis.Params,
	market Market,
) *AnalysisService {
	return &AnalysisService{
		tracer:   tracer,
		provider: provider,
		repo:     repo,
		cache:    resultCache,
		analyzer: analysis.NewAnalyzer(params),
		market:   market,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

func (s *AnalysisService) Market() Market {
	return s.market
}

// Analyze produces a fresh analysis and stores it in the result cache.
func (s *AnalysisService) Analyze(ctx context.Context) (domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze", trace.WithAttributes(
		attribute.String("symbol", s.market.Symbol),
		attribute.String("interval", s.market.Interval),
	))
	defer span.End()

	start := s.now()
	window, err := s.window(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no candles")
		return domain.Analysis{}, err
	}

	result := domain.Analysis{
		ID:          s.newID(),
		Symbol:      s.market.Symbol,
		Interval:    s.market.Interval,
		CandleCount: len(window),
		GeneratedAt: s.now().UTC(),
		Signal:      s.analyzer.Analyze(window),
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, result); err != nil {
			zap.S().Warnw("result cache write failed", "error", err)
		}
	}

	metrics.AnalysisRuns.WithLabelValues(result.Symbol, result.Signal.Classification.String()).Inc()
	metrics.AnalysisDuration.Observe(s.now().Sub(start).Seconds())
	metrics.LastConfidence.WithLabelValues(result.Symbol).Set(float64(result.Signal.Confidence))

	span.SetAttributes(
		attribute.String("classification", result.Signal.Classification.String()),
		attribute.Int("confidence", result.Signal.Confidence),
	)
	zap.S().Infow("analysis complete",
		"symbol", result.Symbol,
		"interval", result.Interval,
		"candles", result.CandleCount,
		"classification", result.Signal.Classification.String(),
		"confidence", result.Signal.Confidence,
	)
	return result, nil
}

// Latest returns the cached analysis when one is fresh, otherwise runs
// Analyze.
func (s *AnalysisService) Latest(ctx context.Context) (domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.latest")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Load(ctx)
		if err != nil {
			zap.S().Warnw("result cache read failed", "error", err)
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return *cached, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))
	return s.Analyze(ctx)
}

// Candles returns the normalized window the next analysis would see.
func (s *AnalysisService) Candles(ctx context.Context) ([]domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.candles")
	defer span.End()

	return s.window(ctx)
}

// window fetches from the provider and falls back to stored candles when
// the provider fails. Fresh candles are persisted best effort.
func (s *AnalysisService) window(ctx context.Context) ([]domain.Candle, error) {
	m := s.market
	raw, err := s.provider.FetchCandles(ctx, m.Symbol, m.Interval, m.Limit)
	if err == nil {
		if s.repo != nil {
			if upErr := s.repo.UpsertCandles(ctx, raw); upErr != nil {
				zap.S().Warnw("candle upsert failed", "symbol", m.Symbol, "error", upErr)
			}
		}
		return domain.NormalizeWindow(raw), nil
	}

	metrics.CandleFetchFailures.WithLabelValues("provider").Inc()
	if s.repo == nil {
		return nil, fmt.Errorf("fetch candles for %s/%s: %w", m.Symbol, m.Interval, err)
	}

	zap.S().Warnw("provider failed, using stored candles", "symbol", m.Symbol, "error", err)
	stored, repoErr := s.repo.GetCandles(ctx, m.Symbol, m.Interval, m.Limit)
	if repoErr != nil {
		metrics.CandleFetchFailures.WithLabelValues("repository").Inc()
		return nil, fmt.Errorf("fetch candles for %s/%s: %w", m.Symbol, m.Interval, errors.Join(err, repoErr))
	}
	return domain.NormalizeWindow(stored), nil
}
