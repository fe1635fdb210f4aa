package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL", "REDIS_URL",
		"SYMBOL", "INTERVAL", "CANDLE_LIMIT", "ANALYSIS_POLL_SECS", "RESULT_CACHE_TTL_SECS",
		"NOTIFY_MIN_CONFIDENCE", "NOTIFY_ON_CHANGE_ONLY", "KAFKA_BROKERS", "KAFKA_TOPIC",
		"OPENAI_API_KEY", "OPENAI_MODEL", "HTTP_PORT", "MCP_HTTP_ENABLED", "MCP_AUTH_TOKEN",
		"SSH_PORT", "SSH_HOST_KEY_PATH", "SSH_AUTHORIZED_FINGERPRINTS", "LOG_LEVEL", "LOG_FORMAT",
		"SMA_SHORT_PERIOD", "SMA_LONG_PERIOD", "EMA_PERIOD", "RSI_PERIOD", "BB_PERIOD",
		"BB_MULTIPLIER", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.Symbol != "BTC" || cfg.Interval != "1h" || cfg.CandleLimit != 100 {
		t.Fatalf("unexpected market defaults: %+v", cfg)
	}
	if cfg.AnalysisPollSecs != 300 || cfg.ResultCacheTTLSecs != 900 {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if cfg.KafkaTopic != "signals" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("unexpected kafka defaults: %v %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" || cfg.HTTPPort != 8080 || cfg.SSHPort != 23234 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.NotifyOnChangeOnly || cfg.MCPHTTPEnabled {
		t.Fatal("boolean flags should default to false")
	}
	if cfg.Analysis.SMAShortPeriod != 20 || cfg.Analysis.RSIPeriod != 14 || cfg.Analysis.BBMultiplier != 2 {
		t.Fatalf("unexpected analysis params: %+v", cfg.Analysis)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("SYMBOL", "eth")
	t.Setenv("INTERVAL", "4h")
	t.Setenv("CANDLE_LIMIT", "250")
	t.Setenv("NOTIFY_MIN_CONFIDENCE", "40")
	t.Setenv("NOTIFY_ON_CHANGE_ONLY", "TRUE")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SSH_AUTHORIZED_FINGERPRINTS", "SHA256:abc,SHA256:def")
	t.Setenv("RSI_PERIOD", "7")
	t.Setenv("BB_MULTIPLIER", "2.5")

	cfg := Load()
	if cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.TelegramChatID != -100123 {
		t.Fatalf("expected chat id -100123, got %d", cfg.TelegramChatID)
	}
	if cfg.Symbol != "ETH" || cfg.Interval != "4h" || cfg.CandleLimit != 250 {
		t.Fatalf("unexpected market config: %+v", cfg)
	}
	if cfg.NotifyMinConfidence != 40 || !cfg.NotifyOnChangeOnly {
		t.Fatalf("unexpected notify config: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if len(cfg.SSHAuthorizedFingerprints) != 2 {
		t.Fatalf("unexpected fingerprints: %v", cfg.SSHAuthorizedFingerprints)
	}
	if cfg.Analysis.RSIPeriod != 7 || cfg.Analysis.BBMultiplier != 2.5 {
		t.Fatalf("unexpected analysis params: %+v", cfg.Analysis)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOL", "NOPE")
	t.Setenv("INTERVAL", "7m")
	t.Setenv("CANDLE_LIMIT", "bad")
	t.Setenv("ANALYSIS_POLL_SECS", "-5")
	t.Setenv("NOTIFY_MIN_CONFIDENCE", "150")
	t.Setenv("TELEGRAM_CHAT_ID", "chat")
	t.Setenv("BB_MULTIPLIER", "0")
	t.Setenv("EMA_PERIOD", "zero")

	cfg := Load()
	if cfg.Symbol != "BTC" || cfg.Interval != "1h" {
		t.Fatalf("expected market fallbacks, got %s %s", cfg.Symbol, cfg.Interval)
	}
	if cfg.CandleLimit != 100 || cfg.AnalysisPollSecs != 300 {
		t.Fatalf("expected numeric fallbacks, got %d %d", cfg.CandleLimit, cfg.AnalysisPollSecs)
	}
	if cfg.NotifyMinConfidence != 0 || cfg.TelegramChatID != 0 {
		t.Fatalf("expected notify fallbacks, got %d %d", cfg.NotifyMinConfidence, cfg.TelegramChatID)
	}
	if cfg.Analysis.BBMultiplier != 2 || cfg.Analysis.EMAPeriod != 12 {
		t.Fatalf("expected param fallbacks, got %+v", cfg.Analysis)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bot.yaml")
	if err := os.WriteFile(path, []byte("SYMBOL: sol\nCANDLE_LIMIT: 60\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CANDLE_LIMIT", "80")

	cfg := Load()
	if cfg.Symbol != "SOL" {
		t.Fatalf("expected symbol from file, got %s", cfg.Symbol)
	}
	if cfg.CandleLimit != 80 {
		t.Fatalf("environment should win over the file, got %d", cfg.CandleLimit)
	}
}
