package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BallDevTools/telegram-bot/internal/db"
	"github.com/BallDevTools/telegram-bot/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	cmdUp      = "up"
	cmdDown    = "down"
	cmdVersion = "version"
	usage      = "usage: go run ./cmd/migrate [up|down|version] [steps]"
)

var (
	loadEnvFunc = godotenv.Load
	openPool    = pgxpool.New
)

type migrator interface {
	Up(ctx context.Context) (int, error)
	Down(ctx context.Context, steps int) (int, error)
	Version(ctx context.Context) (int64, string, error)
}

func main() {
	loadEnvFunc()

	syncLogger := logger.Init(os.Getenv("LOG_LEVEL"), "console")
	defer syncLogger()

	command, steps, err := parseArgs(os.Args[1:])
	if err != nil {
		zap.S().Fatal(err)
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		zap.S().Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := openPool(ctx, dsn)
	if err != nil {
		zap.S().Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrations(db.MigrationsFS)
	if err != nil {
		zap.S().Fatalf("load migrations: %v", err)
	}

	msg, err := run(ctx, db.NewMigrator(pool, migrations), command, steps)
	if err != nil {
		zap.S().Fatal(err)
	}
	zap.S().Info(msg)
}

func parseArgs(args []string) (string, int, error) {
	if len(args) < 1 {
		return "", 0, errors.New(usage)
	}
	switch args[0] {
	case cmdUp, cmdVersion:
		return args[0], 0, nil
	case cmdDown:
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return "", 0, fmt.Errorf("invalid down steps: %q", args[1])
			}
			steps = n
		}
		return cmdDown, steps, nil
	default:
		return "", 0, fmt.Errorf("unknown command %q. %s", args[0], usage)
	}
}

func run(ctx context.Context, m migrator, command string, steps int) (string, error) {
	switch command {
	case cmdUp:
		applied, err := m.Up(ctx)
		if err != nil {
			return "", fmt.Errorf("apply migrations up: %w", err)
		}
		return fmt.Sprintf("migrations up complete (%d applied)", applied), nil
	case cmdDown:
		rolledBack, err := m.Down(ctx, steps)
		if err != nil {
			return "", fmt.Errorf("apply migrations down: %w", err)
		}
		return fmt.Sprintf("migrations down complete (%d rolled back)", rolledBack), nil
	case cmdVersion:
		version, name, err := m.Version(ctx)
		if err != nil {
			return "", fmt.Errorf("read current version: %w", err)
		}
		if version == 0 {
			return "no migrations applied", nil
		}
		return fmt.Sprintf("current version: %d (%s)", version, name), nil
	}
	return "", fmt.Errorf("unknown command %q", command)
}
