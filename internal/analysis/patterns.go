package analysis

import (
	"fmt"
	"math"

	"github.com/BallDevTools/telegram-bot/internal/domain"
)

const (
	patternWindow     = 20
	patternTolerance  = 0.01
	patternConfidence = 75
)

// PatternDetector looks for double tops and double bottoms in the most
// recent candles.
type PatternDetector struct{}

func NewPatternDetector() *PatternDetector {
	return &PatternDetector{}
}

// Detect returns patterns in detection order: a double top (if any) before a
// double bottom (if any).
func (d *PatternDetector) Detect(candles []domain.Candle) []domain.Pattern {
	if len(candles) < patternWindow {
		return nil
	}
	window := candles[len(candles)-patternWindow:]

	var highs, lows []float64
	for i := 1; i < len(window)-1; i++ {
		prev, cur, next := window[i-1], window[i], window[i+1]
		if cur.High > prev.High && cur.High > next.High {
			highs = append(highs, cur.High)
		}
		if cur.Low < prev.Low && cur.Low < next.Low {
			lows = append(lows, cur.Low)
		}
	}

	var patterns []domain.Pattern
	if level, ok := matchingPair(highs); ok {
		patterns = append(patterns, domain.Pattern{
			Type:        domain.PatternDoubleTop,
			Confidence:  patternConfidence,
			Description: fmt.Sprintf("Double top near resistance %.2f", level),
			Level:       level,
		})
	}
	if level, ok := matchingPair(lows); ok {
		patterns = append(patterns, domain.Pattern{
			Type:        domain.PatternDoubleBottom,
			Confidence:  patternConfidence,
			Description: fmt.Sprintf("Double bottom near support %.2f", level),
			Level:       level,
		})
	}
	return patterns
}

// matchingPair compares the two most recent extremes and returns their
// average when they sit within patternTolerance of each other.
func matchingPair(extremes []float64) (float64, bool) {
	if len(extremes) < 2 {
		return 0, false
	}
	a := extremes[len(extremes)-2]
	b := extremes[len(extremes)-1]
	avg := (a + b) / 2
	if avg == 0 {
		return 0, false
	}
	if math.Abs(a-b)/avg >= patternTolerance {
		return 0, false
	}
	return avg, true
}
