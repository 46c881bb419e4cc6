package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
)

// ストレージのバックエンド
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Env     string
	Storage StorageConfig
	DB      database.Config
	Redis   RedisConfig
	Queue   struct {
		URL  string
		Name string
	}
	SFN struct {
		TaskToken string
	}
	NotificationLog string
	EnableTracing   bool
}

// StorageConfig は各コレクションの保存先です
// file の場合はファイルパス、それ以外はキー（ロケーション名）として扱います
type StorageConfig struct {
	Backend              string
	DataDir              string
	HotelsLocation       string
	CustomersLocation    string
	ReservationsLocation string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// IsLocal はローカル実行かどうかを返します
func (c *Config) IsLocal() bool {
	return IsLocalEnv(c.Env)
}

// IsLocalEnv は ENV の値がローカル実行を表すかを返します
// 未設定は LoadConfig の既定値と同じく LOCAL として扱います
func IsLocalEnv(env string) bool {
	env = strings.TrimSpace(env)
	return env == "" || strings.EqualFold(env, "LOCAL")
}

// LoadConfig は設定を読み込みます
func LoadConfig(taskToken string) (*Config, error) {
	cfg := &Config{
		Env: getEnvOrDefault("ENV", "LOCAL"),
		DB: database.Config{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvAsIntOrDefault("DB_PORT", 5432),
			UserName: getEnvOrDefault("DB_USERNAME", "sbcntrapp"),
			Password: getEnvOrDefault("DB_PASSWORD", "password"),
			DBName:   getEnvOrDefault("DB_NAME", "sbcntrapp"),
			SSLMode:  os.Getenv("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			Prefix:   getEnvOrDefault("REDIS_PREFIX", "sbcntr-hotel"),
		},
		EnableTracing: false,
	}
	cfg.SFN.TaskToken = taskToken

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}
	cfg.Storage = storage
	cfg.NotificationLog = getEnvOrDefault("NOTIFICATION_LOG", filepath.Join(storage.DataDir, "notifications.log"))

	// RABBITMQ_URL が未設定の場合はイベントを送信しない
	cfg.Queue.URL = os.Getenv("RABBITMQ_URL")
	cfg.Queue.Name = getEnvOrDefault("RABBITMQ_QUEUE", "hotel.reservation.events")

	// 環境変数[SBCNTR_ENABLE_TRACING]を見てトレースを有効にする。対応しているTracingはAWS_XRAYのみ。
	// 環境変数[AWS_XRAY_SDK_DISABLED]がtrueの場合は必ずトレースを無効にする。
	enableKey := os.Getenv("SBCNTR_ENABLE_TRACING")
	if !sdkDisabled() && (strings.ToLower(enableKey) == "true" || enableKey == "1") {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "FALSE")
		cfg.EnableTracing = true
	} else {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "TRUE")
		cfg.EnableTracing = false
	}

	return cfg, nil
}

func loadStorageConfig() (StorageConfig, error) {
	sc := StorageConfig{
		Backend: strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendFile)),
		DataDir: getEnvOrDefault("DATA_DIR", "data"),
	}

	location := func(name string) string {
		if sc.Backend == BackendFile {
			return filepath.Join(sc.DataDir, name+".json")
		}
		return name
	}

	switch sc.Backend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		return StorageConfig{}, fmt.Errorf("unsupported STORAGE_BACKEND %q (expected %s, %s or %s)",
			sc.Backend, BackendFile, BackendPostgres, BackendRedis)
	}

	sc.HotelsLocation = getEnvOrDefault("HOTELS_LOCATION", location("hotels"))
	sc.CustomersLocation = getEnvOrDefault("CUSTOMERS_LOCATION", location("customers"))
	sc.ReservationsLocation = getEnvOrDefault("RESERVATIONS_LOCATION", location("reservations"))
	return sc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	slog.Debug("environment variable is not set, using default value", slog.String("key", key))
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		slog.Warn("environment variable is not an integer, using default value",
			slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	slog.Debug("environment variable is not set, using default value", slog.String("key", key))
	return defaultValue
}

// Check if SDK is disabled
func sdkDisabled() bool {
	disableKey := os.Getenv("AWS_XRAY_SDK_DISABLED")
	return strings.ToLower(disableKey) == "true"
}
