package job

import (
	"context"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Analyzer interface {
	Analyze(ctx context.Context) (domain.Analysis, error)
}

type Publisher interface {
	Publish(ctx context.Context, a domain.Analysis) error
}

// NotifyPolicy decides which analyses are worth pushing.
type NotifyPolicy struct {
	MinConfidence int
	OnChangeOnly  bool
}

// AnalysisPoller runs the analysis on a fixed interval and publishes the
// results that pass its policy.
type AnalysisPoller struct {
	tracer       trace.Tracer
	analyzer     Analyzer
	publisher    Publisher
	pollInterval time.Duration
	policy       NotifyPolicy

	lastPublished *domain.Classification
}

// NewAnalysisPoller builds a poller. publisher may be nil, in which case
// results are only computed and cached.
func NewAnalysisPoller(tracer trace.Tracer, analyzer Analyzer, publisher Publisher, pollIntervalSecs int, policy NotifyPolicy) *AnalysisPoller {
	return &AnalysisPoller{
		tracer:       tracer,
		analyzer:     analyzer,
		publisher:    publisher,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		policy:       policy,
	}
}

// Start runs once immediately and then on every tick. Blocks until ctx is
// cancelled.
func (p *AnalysisPoller) Start(ctx context.Context) {
	zap.S().Infof("Analysis poller starting (every %s)", p.pollInterval)

	p.runOnce(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("Analysis poller stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *AnalysisPoller) runOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "analysis-poller.run")
	defer span.End()

	a, err := p.analyzer.Analyze(ctx)
	if err != nil {
		span.RecordError(err)
		zap.S().Errorw("scheduled analysis failed", "error", err)
		return
	}

	publish := p.shouldPublish(a)
	span.SetAttributes(attribute.Bool("publish", publish))
	if !publish {
		return
	}
	if err := p.publisher.Publish(ctx, a); err != nil {
		span.RecordError(err)
		zap.S().Warnw("signal delivery failed", "id", a.ID, "error", err)
		return
	}
	c := a.Signal.Classification
	p.lastPublished = &c
}

func (p *AnalysisPoller) shouldPublish(a domain.Analysis) bool {
	if p.publisher == nil {
		return false
	}
	sig := a.Signal
	if sig.Classification == domain.NoData {
		return false
	}
	if sig.Confidence < p.policy.MinConfidence {
		return false
	}
	if p.policy.OnChangeOnly && p.lastPublished != nil && *p.lastPublished == sig.Classification {
		return false
	}
	return true
}
