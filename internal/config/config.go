package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BallDevTools/telegram-bot/internal/analysis"
	"github.com/BallDevTools/telegram-bot/internal/domain"
)

type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	DatabaseURL      string
	RedisURL         string

	Symbol              string
	Interval            string
	CandleLimit         int
	AnalysisPollSecs    int
	ResultCacheTTLSecs  int
	NotifyMinConfidence int
	NotifyOnChangeOnly  bool

	KafkaBrokers []string
	KafkaTopic   string

	OpenAIAPIKey string
	OpenAIModel  string

	HTTPPort       int
	MCPHTTPEnabled bool
	MCPAuthToken   string

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string

	LogLevel  string
	LogFormat string

	Analysis analysis.Params
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("SYMBOL", "BTC")
	v.SetDefault("INTERVAL", "1h")
	v.SetDefault("CANDLE_LIMIT", 100)
	v.SetDefault("ANALYSIS_POLL_SECS", 300)
	v.SetDefault("RESULT_CACHE_TTL_SECS", 900)
	v.SetDefault("NOTIFY_MIN_CONFIDENCE", 0)
	v.SetDefault("NOTIFY_ON_CHANGE_ONLY", false)
	v.SetDefault("KAFKA_TOPIC", "signals")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("MCP_HTTP_ENABLED", false)
	v.SetDefault("SSH_PORT", 23234)
	v.SetDefault("SSH_HOST_KEY_PATH", ".ssh/id_ed25519")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	p := analysis.DefaultParams()
	v.SetDefault("SMA_SHORT_PERIOD", p.SMAShortPeriod)
	v.SetDefault("SMA_LONG_PERIOD", p.SMALongPeriod)
	v.SetDefault("EMA_PERIOD", p.EMAPeriod)
	v.SetDefault("RSI_PERIOD", p.RSIPeriod)
	v.SetDefault("BB_PERIOD", p.BBPeriod)
	v.SetDefault("BB_MULTIPLIER", p.BBMultiplier)
}

// Load reads the environment, and CONFIG_FILE when set. Invalid values are
// logged and replaced by their defaults.
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			zap.S().Warnf("config file %s not loaded: %v", path, err)
		}
	}

	cfg := &Config{
		TelegramBotToken: strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		DatabaseURL:      strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:         strings.TrimSpace(v.GetString("REDIS_URL")),
		KafkaTopic:       strings.TrimSpace(v.GetString("KAFKA_TOPIC")),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		OpenAIAPIKey:     strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIModel:      strings.TrimSpace(v.GetString("OPENAI_MODEL")),
		MCPAuthToken:     strings.TrimSpace(v.GetString("MCP_AUTH_TOKEN")),
		SSHHostKeyPath:   strings.TrimSpace(v.GetString("SSH_HOST_KEY_PATH")),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),

		SSHAuthorizedFingerprints: splitList(v.GetString("SSH_AUTHORIZED_FINGERPRINTS")),
	}

	if cfg.TelegramBotToken == "" {
		zap.S().Warn("TELEGRAM_BOT_TOKEN not set, bot and telegram notifications disabled")
	}
	if cfg.DatabaseURL == "" {
		zap.S().Warn("DATABASE_URL not set, candles will not be persisted")
	}
	if cfg.RedisURL == "" {
		zap.S().Warn("REDIS_URL empty, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.OpenAIAPIKey == "" {
		zap.S().Warn("OPENAI_API_KEY not set, /explain will be disabled")
	}

	if raw := strings.TrimSpace(v.GetString("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			zap.S().Warnf("invalid TELEGRAM_CHAT_ID=%q, telegram notifications disabled", raw)
		} else {
			cfg.TelegramChatID = id
		}
	}

	cfg.Symbol = strings.ToUpper(strings.TrimSpace(v.GetString("SYMBOL")))
	if _, ok := domain.CoinGeckoID[cfg.Symbol]; !ok {
		zap.S().Warnf("unsupported SYMBOL=%q, defaulting to BTC", cfg.Symbol)
		cfg.Symbol = "BTC"
	}
	cfg.Interval = strings.TrimSpace(v.GetString("INTERVAL"))
	if !domain.IsSupportedInterval(cfg.Interval) {
		zap.S().Warnf("unsupported INTERVAL=%q, defaulting to 1h", cfg.Interval)
		cfg.Interval = "1h"
	}

	cfg.CandleLimit = positiveInt(v, "CANDLE_LIMIT", 100)
	cfg.AnalysisPollSecs = positiveInt(v, "ANALYSIS_POLL_SECS", 300)
	cfg.ResultCacheTTLSecs = positiveInt(v, "RESULT_CACHE_TTL_SECS", 900)
	cfg.HTTPPort = positiveInt(v, "HTTP_PORT", 8080)
	cfg.SSHPort = positiveInt(v, "SSH_PORT", 23234)

	cfg.NotifyMinConfidence = 0
	if raw := strings.TrimSpace(v.GetString("NOTIFY_MIN_CONFIDENCE")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 100 {
			cfg.NotifyMinConfidence = n
		} else {
			zap.S().Warnf("invalid NOTIFY_MIN_CONFIDENCE=%q, defaulting to 0", raw)
		}
	}
	cfg.NotifyOnChangeOnly = boolValue(v, "NOTIFY_ON_CHANGE_ONLY")
	cfg.MCPHTTPEnabled = boolValue(v, "MCP_HTTP_ENABLED")

	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "signals"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	cfg.Analysis = loadParams(v)
	return cfg
}

func loadParams(v *viper.Viper) analysis.Params {
	def := analysis.DefaultParams()
	p := analysis.Params{
		SMAShortPeriod: positiveInt(v, "SMA_SHORT_PERIOD", def.SMAShortPeriod),
		SMALongPeriod:  positiveInt(v, "SMA_LONG_PERIOD", def.SMALongPeriod),
		EMAPeriod:      positiveInt(v, "EMA_PERIOD", def.EMAPeriod),
		RSIPeriod:      positiveInt(v, "RSI_PERIOD", def.RSIPeriod),
		BBPeriod:       positiveInt(v, "BB_PERIOD", def.BBPeriod),
		BBMultiplier:   def.BBMultiplier,
	}
	if raw := strings.TrimSpace(v.GetString("BB_MULTIPLIER")); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			p.BBMultiplier = f
		} else {
			zap.S().Warnf("invalid BB_MULTIPLIER=%q, defaulting to %g", raw, def.BBMultiplier)
		}
	}
	if err := p.Validate(); err != nil {
		zap.S().Warnf("%v, using defaults", err)
		return def
	}
	return p
}

func positiveInt(v *viper.Viper, key string, def int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		zap.S().Warnf("invalid %s=%q, defaulting to %d", key, raw, def)
		return def
	}
	return n
}

func boolValue(v *viper.Viper, key string) bool {
	return strings.EqualFold(strings.TrimSpace(v.GetString(key)), "true")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
