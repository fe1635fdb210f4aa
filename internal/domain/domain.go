package domain

import (
	"fmt"
	"strings"
	"time"
)

// Bias is the directional family of a classification.
type Bias int

const (
	BiasNoData Bias = iota
	BiasHold
	BiasBuy
	BiasSell
)

// Classification is a recommendation family plus a strength flag.
// The zero value is NO_DATA.
type Classification struct {
	Bias   Bias
	Strong bool
}

var (
	NoData     = Classification{Bias: BiasNoData}
	Hold       = Classification{Bias: BiasHold}
	Buy        = Classification{Bias: BiasBuy}
	StrongBuy  = Classification{Bias: BiasBuy, Strong: true}
	Sell       = Classification{Bias: BiasSell}
	StrongSell = Classification{Bias: BiasSell, Strong: true}
)

func (c Classification) IsBuy() bool  { return c.Bias == BiasBuy }
func (c Classification) IsSell() bool { return c.Bias == BiasSell }

func (c Classification) String() string {
	switch c.Bias {
	case BiasHold:
		return "HOLD"
	case BiasBuy:
		if c.Strong {
			return "STRONG_BUY"
		}
		return "BUY"
	case BiasSell:
		if c.Strong {
			return "STRONG_SELL"
		}
		return "SELL"
	default:
		return "NO_DATA"
	}
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseClassification(s string) (Classification, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO_DATA":
		return NoData, nil
	case "HOLD":
		return Hold, nil
	case "BUY":
		return Buy, nil
	case "STRONG_BUY":
		return StrongBuy, nil
	case "SELL":
		return Sell, nil
	case "STRONG_SELL":
		return StrongSell, nil
	}
	return NoData, fmt.Errorf("unknown classification: %q", s)
}

// Bands is a volatility envelope around a moving average. Width is the
// band width as a percentage of Middle.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Width  float64 `json:"width"`
}

// IndicatorSet holds one batch of indicator values. A nil field means the
// window was too short for that indicator.
type IndicatorSet struct {
	SMAShort *float64 `json:"sma_short,omitempty"`
	SMALong  *float64 `json:"sma_long,omitempty"`
	EMA      *float64 `json:"ema,omitempty"`
	RSI      *float64 `json:"rsi,omitempty"`
	Bands    *Bands   `json:"bands,omitempty"`

	SMAShortPeriod int `json:"sma_short_period"`
	SMALongPeriod  int `json:"sma_long_period"`
	EMAPeriod      int `json:"ema_period"`
	RSIPeriod      int `json:"rsi_period"`
	BBPeriod       int `json:"bb_period"`
}

type PatternType string

const (
	PatternDoubleTop    PatternType = "DOUBLE_TOP"
	PatternDoubleBottom PatternType = "DOUBLE_BOTTOM"
)

// Pattern is a detected reversal shape. Level is the resistance (tops) or
// support (bottoms) price.
type Pattern struct {
	Type        PatternType `json:"type"`
	Confidence  int         `json:"confidence"`
	Description string      `json:"description"`
	Level       float64     `json:"level"`
}

// Signal is the synthesized recommendation for one batch of candles.
type Signal struct {
	Classification Classification `json:"classification"`
	Confidence     int            `json:"confidence"`
	Reasons        []string       `json:"reasons"`
	Price          float64        `json:"price"`
	Indicators     IndicatorSet   `json:"indicators"`
	Patterns       []Pattern      `json:"patterns"`
}

// Analysis wraps a Signal with the identity of the run that produced it.
type Analysis struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Interval    string    `json:"interval"`
	CandleCount int       `json:"candle_count"`
	GeneratedAt time.Time `json:"generated_at"`
	Signal      Signal    `json:"signal"`
}
