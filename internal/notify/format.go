// Package notify renders analyses for people and delivers them to sinks.
package notify

import (
	"fmt"
	"strings"

	"github.com/BallDevTools/telegram-bot/internal/domain"
)

func marker(c domain.Classification) string {
	switch {
	case c.IsBuy() && c.Strong:
		return "🟢🟢"
	case c.IsBuy():
		return "🟢"
	case c.IsSell() && c.Strong:
		return "🔴🔴"
	case c.IsSell():
		return "🔴"
	case c == domain.Hold:
		return "⚪"
	}
	return "⏳"
}

// Label is the human form of a classification, e.g. "STRONG BUY".
func Label(c domain.Classification) string {
	return strings.ReplaceAll(c.String(), "_", " ")
}

// Format renders a plain-text message for chat and terminal output.
func Format(a domain.Analysis) string {
	var b strings.Builder
	sig := a.Signal

	fmt.Fprintf(&b, "📊 %s %s\n", a.Symbol, a.Interval)
	if sig.Classification == domain.NoData {
		fmt.Fprintf(&b, "%s Not enough data for a signal yet (%d candles).\n", marker(sig.Classification), a.CandleCount)
		if sig.Price > 0 {
			fmt.Fprintf(&b, "Price: $%s\n", money(sig.Price))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "Price: $%s\n", money(sig.Price))
	fmt.Fprintf(&b, "Signal: %s %s (%d%%)\n", marker(sig.Classification), Label(sig.Classification), sig.Confidence)

	if len(sig.Reasons) > 0 {
		b.WriteString("\nReasons:\n")
		for _, r := range sig.Reasons {
			fmt.Fprintf(&b, "• %s\n", r)
		}
	}
	if len(sig.Patterns) > 0 {
		b.WriteString("\nPatterns:\n")
		for _, p := range sig.Patterns {
			fmt.Fprintf(&b, "• %s (%d%%)\n", p.Description, p.Confidence)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", IndicatorLine(sig.Indicators))
	if !a.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "%s UTC", a.GeneratedAt.UTC().Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// IndicatorLine summarizes every indicator, "n/a" for absent ones.
func IndicatorLine(ind domain.IndicatorSet) string {
	parts := []string{
		"RSI " + optional(ind.RSI, 1),
		fmt.Sprintf("SMA%d %s", ind.SMAShortPeriod, optional(ind.SMAShort, 2)),
		fmt.Sprintf("SMA%d %s", ind.SMALongPeriod, optional(ind.SMALong, 2)),
		fmt.Sprintf("EMA%d %s", ind.EMAPeriod, optional(ind.EMA, 2)),
	}
	if ind.Bands != nil {
		parts = append(parts, fmt.Sprintf("BB %.2f/%.2f (width %.1f%%)", ind.Bands.Lower, ind.Bands.Upper, ind.Bands.Width))
	} else {
		parts = append(parts, "BB n/a")
	}
	return strings.Join(parts, " | ")
}

func optional(v *float64, decimals int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

// money formats with thousands separators and two decimals.
func money(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var out strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	res := out.String() + "." + frac
	if neg {
		res = "-" + res
	}
	return res
}
