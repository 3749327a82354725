package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Rules         RulesConfig
	Notifications NotificationsConfig
	SuspensionTTL time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RulesConfig carries the tunable penalty parameters for the enrollment engine.
// A suspension duration of zero disables that penalty entirely.
type RulesConfig struct {
	NoticeThreshold       time.Duration
	LateCancelSuspension  time.Duration
	ShortNoticeSuspension time.Duration
	NoShowSuspension      time.Duration
	LockTimeout           time.Duration
}

// NotificationsConfig tunes the async intent dispatcher.
type NotificationsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Rules = RulesConfig{
		NoticeThreshold:       parseDuration(v.GetString("RULES_NOTICE_THRESHOLD"), 4*time.Hour),
		LateCancelSuspension:  parseDuration(v.GetString("RULES_LATE_CANCEL_SUSPENSION"), 14*24*time.Hour),
		ShortNoticeSuspension: parseDuration(v.GetString("RULES_SHORT_NOTICE_SUSPENSION"), 21*24*time.Hour),
		NoShowSuspension:      parseDuration(v.GetString("RULES_NO_SHOW_SUSPENSION"), 28*24*time.Hour),
		LockTimeout:           parseDuration(v.GetString("RULES_LOCK_TIMEOUT"), 3*time.Second),
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), time.Second),
	}

	cfg.SuspensionTTL = parseDuration(v.GetString("SUSPENSION_CACHE_TTL"), time.Minute)

	return cfg, nil
}

// Validate rejects negative rule parameters at startup. Running with a broken
// penalty table is a misconfiguration, not something to discover per request.
func (r RulesConfig) Validate() error {
	if r.NoticeThreshold < 0 {
		return fmt.Errorf("RULES_NOTICE_THRESHOLD must not be negative")
	}
	if r.LateCancelSuspension < 0 || r.ShortNoticeSuspension < 0 || r.NoShowSuspension < 0 {
		return fmt.Errorf("suspension durations must not be negative")
	}
	if r.LockTimeout <= 0 {
		return fmt.Errorf("RULES_LOCK_TIMEOUT must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "classreg")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RULES_NOTICE_THRESHOLD", "4h")
	v.SetDefault("RULES_LATE_CANCEL_SUSPENSION", "336h")
	v.SetDefault("RULES_SHORT_NOTICE_SUSPENSION", "504h")
	v.SetDefault("RULES_NO_SHOW_SUSPENSION", "672h")
	v.SetDefault("RULES_LOCK_TIMEOUT", "3s")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "1s")

	v.SetDefault("SUSPENSION_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
