// Package db owns the Postgres pool and the schema migrations.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pool is nil until InitPostgres succeeds.
var Pool *pgxpool.Pool

var (
	newPool = pgxpool.New
	pingDB  = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
)

// InitPostgres connects Pool. An empty dsn leaves Pool nil and is not an
// error: candles are then fetched live on every run.
func InitPostgres(ctx context.Context, dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		zap.S().Warn("DATABASE_URL empty, skipping Postgres")
		return nil
	}

	p, err := newPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pingDB(ctx, p); err != nil {
		p.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	Pool = p
	zap.S().Info("Connected to Postgres")
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
