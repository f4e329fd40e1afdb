package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	MySQL     MySQLConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type MySQLConfig struct {
	DSN             string // empty selects the in-memory store
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables redis
	Password string
	DB       int
}

type LLMConfig struct {
	BaseURL     string
	APIKey      string // empty disables the model levels of the fallback chain
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type AnalyticsConfig struct {
	LowStockThreshold      int
	CriticalStockThreshold int
	StuckPendingCount      int
	PendingMaxAge          time.Duration
	MinFulfillmentRate     float64
	FulfillmentMinSample   int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "development"),
			HTTPPort: getEnv("HTTP_PORT", ":8080"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOG_LEVEL", "info"),
			Encoding:          getEnv("LOG_ENCODING", "console"),
			DisableCaller:     getBool("LOG_DISABLE_CALLER", false),
			DisableStacktrace: getBool("LOG_DISABLE_STACKTRACE", false),
		},
		MySQL: MySQLConfig{
			DSN:             getEnv("MYSQL_DSN", ""),
			MaxOpenConns:    getInt("MYSQL_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getInt("MYSQL_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o"),
			Temperature: getFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getInt("LLM_MAX_TOKENS", 4000),
			Timeout:     getDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Analytics: AnalyticsConfig{
			LowStockThreshold:      getInt("ANALYTICS_LOW_STOCK", 100),
			CriticalStockThreshold: getInt("ANALYTICS_CRITICAL_STOCK", 10),
			StuckPendingCount:      getInt("ANALYTICS_STUCK_PENDING", 5),
			PendingMaxAge:          getDuration("ANALYTICS_PENDING_MAX_AGE", 48*time.Hour),
			MinFulfillmentRate:     getFloat("ANALYTICS_MIN_FULFILLMENT", 0.8),
			FulfillmentMinSample:   getInt("ANALYTICS_FULFILLMENT_MIN_SAMPLE", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
