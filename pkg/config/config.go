package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backtest service
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig

	// External APIs
	KIS      KISConfig
	Naver    NaverConfig
	Telegram TelegramConfig

	// Backtest
	Backtest BacktestConfig
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// KISConfig holds KIS (한국투자증권) API configuration
type KISConfig struct {
	AppKey    string
	AppSecret string
	BaseURL   string
	RateLimit int // 초당 요청 수
}

// NaverConfig holds Naver Finance endpoints
type NaverConfig struct {
	BaseURL  string
	ChartURL string
}

// TelegramConfig holds the run-summary notifier settings
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Enabled reports whether both token and chat are set
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// BacktestConfig holds prediction evaluation parameters
type BacktestConfig struct {
	Timezone       string  // 판정 기준 시간대
	CutoffHour     int     // today 카테고리 판정 가능 시각 (장 마감 후)
	HitThreshold   float64 // 대장주 절대 수익률 기준 (%)
	ShortTermDays  int     // short_term 성숙 영업일
	LongTermDays   int     // long_term 성숙 영업일
	ShortWindow    int     // short_term 수익률 조회 달력일
	LongWindow     int     // long_term 수익률 조회 달력일
	DailyLookback  int     // today 수익률 조회 시 과거 달력일
	IndexCode      string  // KOSPI = 0001
	HolidayFile    string  // 추가 휴장일 YAML (선택)
	Source         string  // kis, naver
	SeriesCacheTTL time.Duration
}

// ScheduleConfig holds the sweep schedule
type ScheduleConfig struct {
	SweepSpec string // cron (초 포함)
}

// Location resolves the evaluation timezone, falling back to a fixed KST offset
func (b BacktestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			BaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
			RateLimit: getEnvAsInt("KIS_RATE_LIMIT", 15),
		},

		Naver: NaverConfig{
			BaseURL:  getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL: getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},

		Backtest: BacktestConfig{
			Timezone:       getEnv("BACKTEST_TIMEZONE", "Asia/Seoul"),
			CutoffHour:     getEnvAsInt("BACKTEST_CUTOFF_HOUR", 18),
			HitThreshold:   getEnvAsFloat("BACKTEST_HIT_THRESHOLD", 2.0),
			ShortTermDays:  getEnvAsInt("BACKTEST_SHORT_TERM_DAYS", 7),
			LongTermDays:   getEnvAsInt("BACKTEST_LONG_TERM_DAYS", 30),
			ShortWindow:    getEnvAsInt("BACKTEST_SHORT_WINDOW", 12),
			LongWindow:     getEnvAsInt("BACKTEST_LONG_WINDOW", 45),
			DailyLookback:  getEnvAsInt("BACKTEST_DAILY_LOOKBACK", 10),
			IndexCode:      getEnv("BACKTEST_INDEX_CODE", "0001"),
			HolidayFile:    getEnv("BACKTEST_HOLIDAY_FILE", ""),
			Source:         getEnv("MARKET_DATA_SOURCE", "kis"),
			SeriesCacheTTL: getEnvAsDuration("SERIES_CACHE_TTL", "24h"),
		},

		Schedule: ScheduleConfig{
			SweepSpec: getEnv("BACKTEST_SWEEP_SPEC", "0 30 18 * * MON-FRI"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Backtest.Source != "kis" && c.Backtest.Source != "naver" {
		return fmt.Errorf("MARKET_DATA_SOURCE must be one of: kis, naver")
	}

	if c.Backtest.Source == "kis" && (c.KIS.AppKey == "" || c.KIS.AppSecret == "") {
		return fmt.Errorf("KIS_APP_KEY and KIS_APP_SECRET are required for the kis source")
	}

	if c.Backtest.CutoffHour < 0 || c.Backtest.CutoffHour > 23 {
		return fmt.Errorf("BACKTEST_CUTOFF_HOUR must be within 0-23")
	}

	if c.Backtest.ShortTermDays <= 0 || c.Backtest.LongTermDays <= 0 {
		return fmt.Errorf("maturity trading days must be positive")
	}

	if c.Backtest.ShortWindow <= 0 || c.Backtest.LongWindow <= 0 || c.Backtest.DailyLookback <= 0 {
		return fmt.Errorf("fetch windows must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
