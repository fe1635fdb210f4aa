package advisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"
)

const advisorRole = `You are a crypto market assistant. You interpret a rule-based technical analysis signal for one instrument. You do NOT generate signals yourself and you never change the classification you are given.

How the signal is built:
- RSI below 25 is STRONG BUY, below 35 BUY, above 75 STRONG SELL, above 65 SELL, otherwise HOLD.
- A trend that agrees with the direction (price and short SMA on the same side of the long SMA) adds confidence.
- Price outside the Bollinger Band on the matching side adds confidence.
- Double tops and bottoms are reported as context only.

Rules:
- Reference the numbers you are given. Never invent data.
- If an indicator is n/a, say it is not available yet.
- Mention when indicators disagree.
- Keep it short. The reader is on Telegram.
- No financial advice disclaimers.`

func BuildSystemPrompt(analysisContext string) string {
	var sb strings.Builder
	sb.WriteString(advisorRole)
	sb.WriteString("\n\n--- CURRENT ANALYSIS ---\n")
	sb.WriteString(analysisContext)
	return sb.String()
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

// FormatAnalysisContext lays the analysis out as key: value lines for the
// model.
func FormatAnalysisContext(a domain.Analysis) string {
	sig := a.Signal
	ind := sig.Indicators

	var sb strings.Builder
	fmt.Fprintf(&sb, "Instrument: %s, interval %s, %d candles\n", a.Symbol, a.Interval, a.CandleCount)
	if !a.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "Generated: %s\n", a.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "Price: %.4f\n", sig.Price)
	fmt.Fprintf(&sb, "Classification: %s\n", sig.Classification)
	fmt.Fprintf(&sb, "Confidence: %d/95\n", sig.Confidence)

	fmt.Fprintf(&sb, "RSI(%d): %s\n", ind.RSIPeriod, num(ind.RSI))
	fmt.Fprintf(&sb, "SMA(%d): %s\n", ind.SMAShortPeriod, num(ind.SMAShort))
	fmt.Fprintf(&sb, "SMA(%d): %s\n", ind.SMALongPeriod, num(ind.SMALong))
	fmt.Fprintf(&sb, "EMA(%d): %s\n", ind.EMAPeriod, num(ind.EMA))
	if b := ind.Bands; b != nil {
		fmt.Fprintf(&sb, "Bollinger(%d): upper %.4f, middle %.4f, lower %.4f, width %.2f%%\n",
			ind.BBPeriod, b.Upper, b.Middle, b.Lower, b.Width)
	} else {
		fmt.Fprintf(&sb, "Bollinger(%d): n/a\n", ind.BBPeriod)
	}

	if len(sig.Reasons) == 0 {
		sb.WriteString("Reasons: none\n")
	} else {
		sb.WriteString("Reasons:\n")
		for _, r := range sig.Reasons {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	if len(sig.Patterns) > 0 {
		sb.WriteString("Patterns:\n")
		for _, p := range sig.Patterns {
			fmt.Fprintf(&sb, "- %s at %.4f (%d%%)\n", p.Type, p.Level, p.Confidence)
		}
	}
	return sb.String()
}
