package analysis

import (
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"
)

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func makeCandles(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, domain.Candle{
			Symbol:   "BTC",
			Interval: "1h",
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     c,
			High:     c + 0.5,
			Low:      c - 0.5,
			Close:    c,
			Volume:   1000,
		})
	}
	return out
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// shapedCandles builds a window whose highs and lows default to 100 and 90
// with the given overrides by index.
func shapedCandles(n int, highs, lows map[int]float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		h, l := 100.0, 90.0
		if v, ok := highs[i]; ok {
			h = v
		}
		if v, ok := lows[i]; ok {
			l = v
		}
		out[i] = domain.Candle{
			Symbol:   "BTC",
			Interval: "1h",
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     95,
			High:     h,
			Low:      l,
			Close:    95,
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
