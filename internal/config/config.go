package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Provider（上流スコアAPI）
	ProviderBaseURL  string
	ProviderAPIToken string
	ProviderTimeout  time.Duration

	// Polling
	PollInterval         time.Duration
	ScheduleSyncInterval time.Duration

	// Cache TTL
	LiveStateTTL     time.Duration // ライブ中の状態キー
	FinishedStateTTL time.Duration // 終了後も結果を参照できるようにする長めのTTL
	EventLogTTL      time.Duration
	EventLogCapacity int
	ActiveIndexTTL   time.Duration

	// View window
	ViewLookback  time.Duration
	ViewLookahead time.Duration

	// News
	NewsFeedURLs     []string
	NewsSyncInterval time.Duration
	NewsFetchTimeout time.Duration
	NewsFetchMaxSize int64

	// Mail
	ResendAPIKey string
	MailFrom     string

	// Server
	ServerPort        string
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}

	cfg.ProviderAPIToken = os.Getenv("PROVIDER_API_TOKEN")
	if cfg.ProviderAPIToken == "" {
		missing = append(missing, "PROVIDER_API_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ProviderBaseURL = getEnvString("PROVIDER_BASE_URL", "https://cricket.sportmonks.com/api/v2.0")
	cfg.ProviderTimeout = getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second)
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 15*time.Second)
	cfg.ScheduleSyncInterval = getEnvDuration("SCHEDULE_SYNC_INTERVAL", 1*time.Hour)
	cfg.LiveStateTTL = getEnvDuration("LIVE_STATE_TTL", 10*time.Minute)
	cfg.FinishedStateTTL = getEnvDuration("FINISHED_STATE_TTL", 24*time.Hour)
	cfg.EventLogTTL = getEnvDuration("EVENT_LOG_TTL", 5*time.Minute)
	cfg.EventLogCapacity = getEnvInt("EVENT_LOG_CAPACITY", 50)
	cfg.ActiveIndexTTL = getEnvDuration("ACTIVE_INDEX_TTL", 60*time.Second)
	cfg.ViewLookback = getEnvDuration("VIEW_LOOKBACK", 24*time.Hour)
	cfg.ViewLookahead = getEnvDuration("VIEW_LOOKAHEAD", 36*time.Hour)
	cfg.NewsFeedURLs = getEnvList("NEWS_FEED_URLS")
	cfg.NewsSyncInterval = getEnvDuration("NEWS_SYNC_INTERVAL", 30*time.Minute)
	cfg.NewsFetchTimeout = getEnvDuration("NEWS_FETCH_TIMEOUT", 10*time.Second)
	cfg.NewsFetchMaxSize = getEnvInt64("NEWS_FETCH_MAX_SIZE", 5242880)
	cfg.ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	cfg.MailFrom = getEnvString("MAIL_FROM", "Stryker <onboarding@resend.dev>")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を文字列スライスに分解する。
// 空要素は取り除く。未設定の場合は空スライスを返す。
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
