package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider builds OHLCV candles from the CoinGecko market_chart
// endpoint of the free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider limited to 8 requests per minute
// (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchCandles returns up to limit of the most recent candles for symbol,
// oldest first. The newest bucket is usually still forming.
func (p *CoinGeckoProvider) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-candles", trace.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	))
	defer span.End()

	cgID, ok := domain.CoinGeckoID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if !domain.IsSupportedInterval(interval) {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		p.baseURL, cgID, daysForWindow(interval, limit))

	body, err := p.doRequest(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "market chart request failed")
		return nil, fmt.Errorf("fetch market chart for %s: %w", symbol, err)
	}

	// CoinGecko sends [ts, null] for gaps, so points decode as pointers.
	var raw struct {
		Prices       [][]*float64 `json:"prices"`
		TotalVolumes [][]*float64 `json:"total_volumes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse market chart for %s: %w", symbol, err)
	}

	candles := buildCandlesFromMarketChart(symbol, interval, points(raw.Prices), points(raw.TotalVolumes))
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	span.SetAttributes(attribute.Int("candles", len(candles)))
	return candles, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// points drops null and malformed [ts, value] pairs.
func points(raw [][]*float64) [][2]float64 {
	out := make([][2]float64, 0, len(raw))
	for _, pt := range raw {
		if len(pt) < 2 || pt[0] == nil || pt[1] == nil {
			continue
		}
		if math.IsNaN(*pt[1]) || math.IsInf(*pt[1], 0) {
			continue
		}
		out = append(out, [2]float64{*pt[0], *pt[1]})
	}
	return out
}

// daysForWindow picks the market_chart range. CoinGecko serves 5 minute
// points for 1 day, hourly points up to 90 days and daily points beyond.
func daysForWindow(interval string, limit int) int {
	if limit <= 0 {
		limit = 100
	}
	span := intervalToDuration(interval) * time.Duration(limit)
	switch interval {
	case "5m", "15m":
		return 1
	case "1d":
		return clamp(int(span/(24*time.Hour))+1, 2, 365)
	default:
		return clamp(int(math.Ceil(span.Hours()/24))+1, 2, 90)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type volumePoint struct {
	ts  int64
	vol float64
}

// buildCandlesFromMarketChart buckets price points into candles of the given
// interval. Volume comes from the volume point closest to each bucket's end.
func buildCandlesFromMarketChart(symbol, interval string, prices, volumes [][2]float64) []*domain.Candle {
	if len(prices) == 0 {
		return nil
	}

	intervalDuration := intervalToDuration(interval)
	if intervalDuration == 0 {
		return nil
	}

	volPoints := make([]volumePoint, 0, len(volumes))
	for _, v := range volumes {
		volPoints = append(volPoints, volumePoint{ts: int64(v[0]), vol: v[1]})
	}

	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i][0] < prices[j][0]
	})

	type bucket struct {
		open, high, low, close float64
		openTime               time.Time
	}
	buckets := make(map[int64]*bucket)
	keys := make([]int64, 0)

	for _, pt := range prices {
		price := pt[1]
		bucketTS := time.UnixMilli(int64(pt[0])).Truncate(intervalDuration).UnixMilli()

		b, exists := buckets[bucketTS]
		if !exists {
			buckets[bucketTS] = &bucket{
				open: price, high: price, low: price, close: price,
				openTime: time.UnixMilli(bucketTS),
			}
			keys = append(keys, bucketTS)
			continue
		}
		b.high = math.Max(b.high, price)
		b.low = math.Min(b.low, price)
		b.close = price
	}

	candles := make([]*domain.Candle, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		candles = append(candles, &domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: b.openTime.UTC(),
			Open:     b.open,
			High:     b.high,
			Low:      b.low,
			Close:    b.close,
			Volume:   findClosestVolume(volPoints, k+intervalDuration.Milliseconds()),
		})
	}
	return candles
}

func findClosestVolume(volumes []volumePoint, targetMs int64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	closest := volumes[0]
	minDiff := int64(math.MaxInt64)
	for _, v := range volumes {
		diff := v.ts - targetMs
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff = diff
			closest = v
		}
	}
	return closest.vol
}

func intervalToDuration(interval string) time.Duration {
	switch interval {
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 0
	}
}
