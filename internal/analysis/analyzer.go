package analysis

import "github.com/BallDevTools/telegram-bot/internal/domain"

// Analyzer runs the indicator engine, the pattern detector and the
// synthesizer over one candle window.
type Analyzer struct {
	engine   *IndicatorEngine
	detector *PatternDetector
}

func NewAnalyzer(params Params) *Analyzer {
	return &Analyzer{
		engine:   NewIndicatorEngine(params),
		detector: NewPatternDetector(),
	}
}

// Analyze expects candles oldest first. An empty window yields NO_DATA.
func (a *Analyzer) Analyze(candles []domain.Candle) domain.Signal {
	if len(candles) == 0 {
		return noDataSignal(domain.IndicatorSet{}, 0)
	}
	indicators := a.engine.Compute(candles)
	patterns := a.detector.Detect(candles)
	return Synthesize(indicators, patterns, candles[len(candles)-1].Close)
}
