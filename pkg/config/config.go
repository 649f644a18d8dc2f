package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the signal engine.
type Config struct {
	Port string

	// Database
	DBPath string

	// Auth
	JWTSecret string

	// Market data
	UseMockMarket    bool
	CoinGeckoBaseURL string
	CalibrationPair  string // pair whose history seeds the startup calibration
	HistoryDays      int

	// Evaluator variant used for signal generation (trend, meanrev, contrarian).
	EvaluatorVariant string

	// Strategy presets
	PresetsPath string

	// Demo account bootstrap
	DemoUsername   string
	DemoEmail      string
	DefaultBalance float64
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	// Database path: prefer DB_PATH, then DATABASE_PATH for backward compatibility.
	dbPath := getEnv("DB_PATH", "")
	if dbPath == "" {
		dbPath = getEnv("DATABASE_PATH", "./data/signalbot.db")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           dbPath,
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		UseMockMarket:    getEnv("USE_MOCK_MARKET", "true") == "true",
		CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CalibrationPair:  getEnv("CALIBRATION_PAIR", "BTC/USDT"),
		HistoryDays:      getEnvInt("HISTORY_DAYS", 365),
		EvaluatorVariant: getEnv("EVALUATOR_VARIANT", "trend"),
		PresetsPath:      getEnv("PRESETS_PATH", "strategies.yaml"),
		DemoUsername:     getEnv("DEMO_USERNAME", "Trader_01"),
		DemoEmail:        getEnv("DEMO_EMAIL", "demo@signalbot.ai"),
		DefaultBalance:   getEnvFloat("DEFAULT_BALANCE", 100.0),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
