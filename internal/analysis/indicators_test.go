package analysis

import (
	"math"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.SMAShortPeriod != 20 || p.SMALongPeriod != 50 || p.EMAPeriod != 12 ||
		p.RSIPeriod != 14 || p.BBPeriod != 20 || p.BBMultiplier != 2 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.RSIPeriod = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for zero RSI period")
	}

	p = DefaultParams()
	p.BBMultiplier = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for zero band multiplier")
	}
}

func TestIndicatorEngineAbsentBelowThreshold(t *testing.T) {
	engine := NewIndicatorEngine(DefaultParams())

	for n := 0; n <= 60; n++ {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 100 + math.Sin(float64(i))*5
		}
		set := engine.Compute(makeCandles(closes...))

		if (set.SMAShort != nil) != (n >= 20) {
			t.Fatalf("n=%d: SMA20 presence mismatch", n)
		}
		if (set.SMALong != nil) != (n >= 50) {
			t.Fatalf("n=%d: SMA50 presence mismatch", n)
		}
		if (set.EMA != nil) != (n >= 12) {
			t.Fatalf("n=%d: EMA presence mismatch", n)
		}
		if (set.RSI != nil) != (n >= 15) {
			t.Fatalf("n=%d: RSI presence mismatch", n)
		}
		if (set.Bands != nil) != (n >= 20) {
			t.Fatalf("n=%d: bands presence mismatch", n)
		}

		if set.RSI != nil && (*set.RSI < 0 || *set.RSI > 100) {
			t.Fatalf("n=%d: RSI out of range: %f", n, *set.RSI)
		}
		if b := set.Bands; b != nil {
			if !(b.Lower <= b.Middle && b.Middle <= b.Upper) || b.Width < 0 {
				t.Fatalf("n=%d: band invariant violated: %+v", n, *b)
			}
		}
	}
}

func TestIndicatorEngineRecordsPeriods(t *testing.T) {
	params := Params{SMAShortPeriod: 3, SMALongPeriod: 5, EMAPeriod: 2, RSIPeriod: 2, BBPeriod: 3, BBMultiplier: 1}
	set := NewIndicatorEngine(params).Compute(makeCandles(1, 2, 3, 4, 5))

	if set.SMAShortPeriod != 3 || set.SMALongPeriod != 5 || set.BBPeriod != 3 {
		t.Fatalf("periods not recorded: %+v", set)
	}
	if set.SMAShort == nil || *set.SMAShort != 4 {
		t.Fatalf("expected SMA3 = 4, got %v", set.SMAShort)
	}
	if set.SMALong == nil || *set.SMALong != 3 {
		t.Fatalf("expected SMA5 = 3, got %v", set.SMALong)
	}
	if set.RSI == nil || *set.RSI != 100 {
		t.Fatalf("expected RSI 100 on rising closes, got %v", set.RSI)
	}
}
