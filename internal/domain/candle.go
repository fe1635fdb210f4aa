package domain

import (
	"math"
	"sort"
	"time"
)

// Candle represents a single OHLCV candle for an asset at a given interval.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// CoinGeckoID maps internal symbols to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
}

// SupportedIntervals defines the candle intervals the provider can build.
var SupportedIntervals = []string{"5m", "15m", "1h", "4h", "1d"}

func IsSupportedInterval(interval string) bool {
	for _, si := range SupportedIntervals {
		if si == interval {
			return true
		}
	}
	return false
}

// NormalizeWindow turns raw candles into an analysis window: oldest first,
// one candle per open time, finite closes only.
func NormalizeWindow(in []*Candle) []Candle {
	out := make([]Candle, 0, len(in))
	for _, c := range in {
		if c == nil || math.IsNaN(c.Close) || math.IsInf(c.Close, 0) {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})

	deduped := out[:0]
	for _, c := range out {
		if n := len(deduped); n > 0 && deduped[n-1].OpenTime.Equal(c.OpenTime) {
			deduped[n-1] = c
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped
}

// Closes extracts closing prices in window order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
