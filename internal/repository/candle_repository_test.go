package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestUpsertCandlesQueuesOnePerCandle(t *testing.T) {
	pool := &fakePool{results: &fakeBatchResults{}}
	repo := NewCandleRepository(pool, testTracer)

	candles := []*domain.Candle{
		{Symbol: "BTC", Interval: "1h", Close: 1},
		nil,
		{Symbol: "BTC", Interval: "1h", Close: 2},
	}
	if err := repo.UpsertCandles(context.Background(), candles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batch == nil || pool.batch.Len() != 2 {
		t.Fatalf("expected 2 queued statements, got %+v", pool.batch)
	}
	if pool.results.execs != 2 || !pool.results.closed {
		t.Fatalf("expected 2 execs and a closed batch, got %d/%v", pool.results.execs, pool.results.closed)
	}
}

func TestUpsertCandlesEmptyIsNoop(t *testing.T) {
	pool := &fakePool{}
	if err := NewCandleRepository(pool, testTracer).UpsertCandles(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batch != nil {
		t.Fatal("no batch should be sent")
	}
}

func TestUpsertCandlesReportsExecError(t *testing.T) {
	pool := &fakePool{results: &fakeBatchResults{err: errors.New("constraint")}}
	err := NewCandleRepository(pool, testTracer).UpsertCandles(context.Background(), []*domain.Candle{{Symbol: "BTC"}})
	if err == nil {
		t.Fatal("expected exec error")
	}
}

func TestGetCandlesScansRows(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: &fakeRows{data: []domain.Candle{
		{Symbol: "BTC", Interval: "1h", OpenTime: ts.Add(time.Hour), Close: 2},
		{Symbol: "BTC", Interval: "1h", OpenTime: ts, Close: 1},
	}}}
	repo := NewCandleRepository(pool, testTracer)

	got, err := repo.GetCandles(context.Background(), "BTC", "1h", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Close != 2 || !got[1].OpenTime.Equal(ts) {
		t.Fatalf("unexpected candles: %+v", got)
	}
	if pool.queryArgs[0] != "BTC" || pool.queryArgs[1] != "1h" || pool.queryArgs[2] != 5 {
		t.Fatalf("unexpected query args: %v", pool.queryArgs)
	}
}

func TestGetCandlesQueryError(t *testing.T) {
	pool := &fakePool{queryErr: errors.New("down")}
	if _, err := NewCandleRepository(pool, testTracer).GetCandles(context.Background(), "BTC", "1h", 5); err == nil {
		t.Fatal("expected query error")
	}
}

type fakePool struct {
	batch     *pgx.Batch
	results   *fakeBatchResults
	rows      *fakeRows
	queryErr  error
	queryArgs []any
}

func (p *fakePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	p.batch = b
	return p.results
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.queryArgs = args
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return p.rows, nil
}

type fakeBatchResults struct {
	pgx.BatchResults
	err    error
	execs  int
	closed bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	b.execs++
	return pgconn.CommandTag{}, b.err
}

func (b *fakeBatchResults) Close() error {
	b.closed = true
	return nil
}

type fakeRows struct {
	pgx.Rows
	data []domain.Candle
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	c := r.data[r.pos-1]
	*(dest[0].(*string)) = c.Symbol
	*(dest[1].(*string)) = c.Interval
	*(dest[2].(*time.Time)) = c.OpenTime
	*(dest[3].(*float64)) = c.Open
	*(dest[4].(*float64)) = c.High
	*(dest[5].(*float64)) = c.Low
	*(dest[6].(*float64)) = c.Close
	*(dest[7].(*float64)) = c.Volume
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}
