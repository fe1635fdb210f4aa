package analysis

import (
	"fmt"

	"github.com/BallDevTools/telegram-bot/internal/domain"
)

const (
	maxConfidence = 95
	maxPatterns   = 3
)

// ruleState is what the rules have accumulated so far.
type ruleState struct {
	classification domain.Classification
	confidence     int
	reasons        []string
}

type ruleInput struct {
	indicators domain.IndicatorSet
	price      float64
}

// ruleOutcome is one rule's contribution. A nil override keeps the current
// classification.
type ruleOutcome struct {
	override *domain.Classification
	delta    int
	reason   string
}

type rule func(state ruleState, in ruleInput) ruleOutcome

// rules run in this order; later rules see the classification chosen by
// earlier ones.
var rules = []rule{
	momentumRule,
	trendRule,
	bandRule,
}

// Synthesize folds the rule chain over one batch of indicators. It is a pure
// function of its arguments.
func Synthesize(ind domain.IndicatorSet, patterns []domain.Pattern, price float64) domain.Signal {
	if ind.RSI == nil {
		return noDataSignal(ind, price)
	}

	state := ruleState{classification: domain.Hold}
	in := ruleInput{indicators: ind, price: price}
	for _, r := range rules {
		state = apply(state, r(state, in))
	}

	if state.confidence > maxConfidence {
		state.confidence = maxConfidence
	}
	if state.reasons == nil {
		state.reasons = []string{}
	}

	return domain.Signal{
		Classification: state.classification,
		Confidence:     state.confidence,
		Reasons:        state.reasons,
		Price:          price,
		Indicators:     ind,
		Patterns:       leadingPatterns(patterns),
	}
}

func apply(state ruleState, out ruleOutcome) ruleState {
	next := ruleState{
		classification: state.classification,
		confidence:     state.confidence + out.delta,
		reasons:        state.reasons,
	}
	if out.override != nil {
		next.classification = *out.override
	}
	if out.reason != "" {
		next.reasons = append(append([]string(nil), state.reasons...), out.reason)
	}
	return next
}

func momentumRule(_ ruleState, in ruleInput) ruleOutcome {
	rsi := *in.indicators.RSI
	switch {
	case rsi < 25:
		return classify(domain.StrongBuy, 40, fmt.Sprintf("RSI oversold (%.1f)", rsi))
	case rsi < 35:
		return classify(domain.Buy, 25, fmt.Sprintf("RSI approaching oversold (%.1f)", rsi))
	case rsi > 75:
		return classify(domain.StrongSell, 40, fmt.Sprintf("RSI overbought (%.1f)", rsi))
	case rsi > 65:
		return classify(domain.Sell, 25, fmt.Sprintf("RSI approaching overbought (%.1f)", rsi))
	}
	return ruleOutcome{}
}

func trendRule(state ruleState, in ruleInput) ruleOutcome {
	short, long := in.indicators.SMAShort, in.indicators.SMALong
	if short == nil || long == nil {
		return ruleOutcome{}
	}
	price := in.price
	switch {
	case price > *short && *short > *long && state.classification.IsBuy():
		return ruleOutcome{delta: 15, reason: fmt.Sprintf("Price above SMA%d and SMA%d (bullish trend)",
			in.indicators.SMAShortPeriod, in.indicators.SMALongPeriod)}
	case price < *short && *short < *long && state.classification.IsSell():
		return ruleOutcome{delta: 15, reason: fmt.Sprintf("Price below SMA%d and SMA%d (bearish trend)",
			in.indicators.SMAShortPeriod, in.indicators.SMALongPeriod)}
	}
	return ruleOutcome{}
}

func bandRule(state ruleState, in ruleInput) ruleOutcome {
	bands := in.indicators.Bands
	if bands == nil {
		return ruleOutcome{}
	}
	switch {
	case in.price < bands.Lower && state.classification.IsBuy():
		return ruleOutcome{delta: 15, reason: "Price below lower Bollinger Band"}
	case in.price > bands.Upper && state.classification.IsSell():
		return ruleOutcome{delta: 15, reason: "Price above upper Bollinger Band"}
	}
	return ruleOutcome{}
}

func classify(c domain.Classification, delta int, reason string) ruleOutcome {
	return ruleOutcome{override: &c, delta: delta, reason: reason}
}

func leadingPatterns(patterns []domain.Pattern) []domain.Pattern {
	n := len(patterns)
	if n > maxPatterns {
		n = maxPatterns
	}
	out := make([]domain.Pattern, n)
	copy(out, patterns[:n])
	return out
}

func noDataSignal(ind domain.IndicatorSet, price float64) domain.Signal {
	return domain.Signal{
		Classification: domain.NoData,
		Confidence:     0,
		Reasons:        []string{},
		Price:          price,
		Indicators:     ind,
		Patterns:       []domain.Pattern{},
	}
}
