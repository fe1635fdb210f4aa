// Package analysis turns a window of candles into a trading recommendation.
//
// The three stages run in a fixed order on every batch: the indicator engine
// and the pattern detector read the candles independently, and the
// synthesizer folds their outputs into a single Signal. Nothing here keeps
// state between calls.
package analysis

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Params are the indicator periods used by the engine and the synthesizer.
type Params struct {
	SMAShortPeriod int     `default:"20" validate:"gte=1"`
	SMALongPeriod  int     `default:"50" validate:"gte=1"`
	EMAPeriod      int     `default:"12" validate:"gte=1"`
	RSIPeriod      int     `default:"14" validate:"gte=1"`
	BBPeriod       int     `default:"20" validate:"gte=1"`
	BBMultiplier   float64 `default:"2" validate:"gt=0"`
}

var validate = validator.New()

// DefaultParams returns the standard periods: SMA 20/50, EMA 12, RSI 14,
// Bollinger 20/2.
func DefaultParams() Params {
	var p Params
	if err := defaults.Set(&p); err != nil {
		panic(fmt.Sprintf("analysis: default params: %v", err))
	}
	return p
}

func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid analysis params: %w", err)
	}
	return nil
}
