package analysis

import (
	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/ta"
)

// IndicatorEngine computes the indicator set for a candle window.
type IndicatorEngine struct {
	params Params
}

func NewIndicatorEngine(params Params) *IndicatorEngine {
	return &IndicatorEngine{params: params}
}

// Compute fills every indicator the window is long enough for and leaves the
// rest nil.
func (e *IndicatorEngine) Compute(candles []domain.Candle) domain.IndicatorSet {
	closes := domain.Closes(candles)
	set := domain.IndicatorSet{
		SMAShortPeriod: e.params.SMAShortPeriod,
		SMALongPeriod:  e.params.SMALongPeriod,
		EMAPeriod:      e.params.EMAPeriod,
		RSIPeriod:      e.params.RSIPeriod,
		BBPeriod:       e.params.BBPeriod,
	}

	set.SMAShort = optional(ta.SMA(closes, e.params.SMAShortPeriod))
	set.SMALong = optional(ta.SMA(closes, e.params.SMALongPeriod))
	set.EMA = optional(ta.EMA(closes, e.params.EMAPeriod))
	set.RSI = optional(ta.RSI(closes, e.params.RSIPeriod))

	if b, ok := ta.Bollinger(closes, e.params.BBPeriod, e.params.BBMultiplier); ok {
		set.Bands = &domain.Bands{
			Upper:  b.Upper,
			Middle: b.Middle,
			Lower:  b.Lower,
			Width:  b.Width,
		}
	}
	return set
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
