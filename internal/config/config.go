// Package config loads the bot configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	BotToken string
	OwnerID  string // single user allowed to run /owner, empty disables it

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageDriver string // "sqlite" | "redis"
	DatabasePath  string

	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisPrefix         string
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration

	StoreRetryAttempts int           // attempts per durable write
	StoreRetryDelay    time.Duration // fixed wait between attempts

	SendLimit  int           // outbound messages allowed per SendWindow
	SendWindow time.Duration // rolling window for SendLimit

	OpsAddr         string        // health and metrics listener, empty disables it
	ShutdownTimeout time.Duration // grace period for the ops server

	StatusInterval  time.Duration // presence rotation period
	SettingsTimeout time.Duration // idle time before a /settings menu is disabled

	FixCommandEvery time.Duration // per-user cooldown of /fix and the context menu
	FixCommandBurst int
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		OwnerID:  os.Getenv("OWNER_ID"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: getenvBool("PRETTY_LOG", false),

		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", DriverSQLite)),
		DatabasePath:  getenv("DATABASE_PATH", "fixembed_data.db"),

		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		RedisUser:           os.Getenv("REDIS_USERNAME"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getenvInt("REDIS_DB", 0),
		RedisPrefix:         getenv("REDIS_PREFIX", "fixembed:"),
		RedisConnectTimeout: getenvDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  getenvDuration("REDIS_RETRY_INTERVAL", 2*time.Second),

		StoreRetryAttempts: getenvInt("STORE_RETRY_ATTEMPTS", 5),
		StoreRetryDelay:    getenvDuration("STORE_RETRY_DELAY", 100*time.Millisecond),

		SendLimit:  getenvInt("SEND_LIMIT", 5),
		SendWindow: getenvDuration("SEND_WINDOW", time.Second),

		OpsAddr:         getenv("OPS_ADDR", ":9090"),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		StatusInterval:  getenvDuration("STATUS_INTERVAL", 60*time.Second),
		SettingsTimeout: getenvDuration("SETTINGS_TIMEOUT", 3*time.Minute),

		FixCommandEvery: getenvDuration("FIX_COMMAND_EVERY", 2*time.Second),
		FixCommandBurst: getenvInt("FIX_COMMAND_BURST", 3),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is not set in environment")
	}
	switch c.StorageDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH must not be empty")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORAGE_DRIVER=redis")
		}
		if c.RedisConnectTimeout <= 0 || c.RedisRetryInterval <= 0 {
			return fmt.Errorf("REDIS_CONNECT_TIMEOUT and REDIS_RETRY_INTERVAL must be positive")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StoreRetryAttempts < 1 {
		return fmt.Errorf("STORE_RETRY_ATTEMPTS must be >= 1, got %d", c.StoreRetryAttempts)
	}
	if c.SendLimit < 1 || c.SendWindow <= 0 {
		return fmt.Errorf("SEND_LIMIT and SEND_WINDOW must be positive")
	}
	if c.FixCommandEvery <= 0 || c.FixCommandBurst < 1 {
		return fmt.Errorf("FIX_COMMAND_EVERY and FIX_COMMAND_BURST must be positive")
	}
	if c.StatusInterval <= 0 {
		return fmt.Errorf("STATUS_INTERVAL must be positive, got %v", c.StatusInterval)
	}
	if c.SettingsTimeout <= 0 {
		return fmt.Errorf("SETTINGS_TIMEOUT must be positive, got %v", c.SettingsTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
