package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func pt(ts time.Time, v float64) [2]float64 {
	return [2]float64{float64(ts.UnixMilli()), v}
}

func TestBuildCandlesFromMarketChart(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := [][2]float64{
		pt(base.Add(6*time.Minute), 8),
		pt(base, 10),
		pt(base.Add(2*time.Minute), 12),
		pt(base.Add(8*time.Minute), 9),
	}
	volumes := [][2]float64{
		pt(base.Add(5*time.Minute), 100),
		pt(base.Add(10*time.Minute), 200),
	}

	candles := buildCandlesFromMarketChart("BTC", "5m", prices, volumes)
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}

	first := candles[0]
	if first.Open != 10 || first.High != 12 || first.Low != 10 || first.Close != 12 {
		t.Fatalf("unexpected first candle: %+v", first)
	}
	if first.Volume != 100 {
		t.Fatalf("expected volume 100, got %f", first.Volume)
	}

	second := candles[1]
	if !second.OpenTime.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("unexpected open time: %v", second.OpenTime)
	}
	if second.Open != 8 || second.Close != 9 || second.Volume != 200 {
		t.Fatalf("unexpected second candle: %+v", second)
	}
}

func TestPointsSkipsNulls(t *testing.T) {
	v := 5.0
	ts := 1000.0
	got := points([][]*float64{
		{&ts, &v},
		{&ts, nil},
		{nil, &v},
		{&ts},
	})
	if len(got) != 1 || got[0][1] != 5 {
		t.Fatalf("expected one valid point, got %v", got)
	}
}

func TestDaysForWindow(t *testing.T) {
	tests := []struct {
		interval string
		limit    int
		want     int
	}{
		{"5m", 100, 1},
		{"15m", 100, 1},
		{"1h", 100, 6},
		{"1h", 10, 2},
		{"4h", 100, 18},
		{"4h", 1000, 90},
		{"1d", 100, 101},
		{"1d", 1000, 365},
		{"1h", 0, 6},
	}
	for _, tc := range tests {
		if got := daysForWindow(tc.interval, tc.limit); got != tc.want {
			t.Fatalf("%s/%d: expected %d days, got %d", tc.interval, tc.limit, tc.want, got)
		}
	}
}

func TestFindClosestVolume(t *testing.T) {
	volumes := []volumePoint{
		{ts: 1000, vol: 1},
		{ts: 1500, vol: 5},
		{ts: 2000, vol: 10},
	}
	if vol := findClosestVolume(volumes, 1600); vol != 5 {
		t.Fatalf("expected volume 5, got %f", vol)
	}
	if vol := findClosestVolume(nil, 1600); vol != 0 {
		t.Fatalf("expected 0 without volumes, got %f", vol)
	}
}

func TestIntervalToDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"5m":  5 * time.Minute,
		"15m": 15 * time.Minute,
		"1h":  time.Hour,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"bad": 0,
	}
	for interval, expected := range tests {
		if got := intervalToDuration(interval); got != expected {
			t.Fatalf("%s expected %v, got %v", interval, expected, got)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testProvider(t *testing.T, status int, body string, check func(*http.Request)) *CoinGeckoProvider {
	t.Helper()
	provider := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	provider.baseURL = "http://example"
	provider.limiter = NewRateLimiter(10, time.Millisecond)
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if check != nil {
				check(req)
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewReader([]byte(body))),
				Header:     make(http.Header),
			}, nil
		}),
	}
	return provider
}

func TestCoinGeckoProviderFetchCandles(t *testing.T) {
	t.Parallel()

	body := `{
		"prices": [[1735689600000, 100], [1735693200000, null], [1735696800000, 102], [1735700400000, 101]],
		"total_volumes": [[1735693200000, 5000], [1735700400000, 7000]]
	}`
	provider := testProvider(t, http.StatusOK, body, func(req *http.Request) {
		if !strings.Contains(req.URL.Path, "/coins/ethereum/market_chart") {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("days") != "2" {
			t.Errorf("unexpected days: %s", req.URL.RawQuery)
		}
	})

	candles, err := provider.FetchCandles(context.Background(), "ETH", "1h", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected candles trimmed to limit 2, got %d", len(candles))
	}
	if candles[0].Close != 102 || candles[1].Close != 101 {
		t.Fatalf("expected the two most recent candles, got %+v %+v", candles[0], candles[1])
	}
	if candles[0].Symbol != "ETH" || candles[0].Interval != "1h" {
		t.Fatalf("unexpected candle identity: %+v", candles[0])
	}
}

func TestCoinGeckoProviderFetchCandlesErrors(t *testing.T) {
	t.Parallel()

	provider := testProvider(t, http.StatusTooManyRequests, `{"error":"rate limited"}`, nil)
	if _, err := provider.FetchCandles(context.Background(), "BTC", "1h", 10); err == nil ||
		!strings.Contains(err.Error(), "429") {
		t.Fatalf("expected API error, got %v", err)
	}

	if _, err := provider.FetchCandles(context.Background(), "FAKE", "1h", 10); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if _, err := provider.FetchCandles(context.Background(), "BTC", "2h", 10); err == nil {
		t.Fatal("expected unsupported interval error")
	}

	bad := testProvider(t, http.StatusOK, `{"prices": "nope"}`, nil)
	if _, err := bad.FetchCandles(context.Background(), "BTC", "1h", 10); err == nil {
		t.Fatal("expected parse error")
	}
}
