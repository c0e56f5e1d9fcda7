// Package config loads application settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"addresswatch/internal/pkg/validator"
)

// Config holds every runtime setting of the address watcher.
type Config struct {
	// LogLevel is the minimum level emitted by the global logger.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// TelegramBotToken authenticates the notification bot.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" validate:"required"`

	// AdminUserID receives operator alerts. Zero disables delivery.
	AdminUserID int64 `envconfig:"ADMIN_USER_ID" default:"0" validate:"gte=0"`

	// HyperliquidRPCURL is the EVM JSON-RPC endpoint for on-chain state.
	HyperliquidRPCURL string `envconfig:"HYPERLIQUID_RPC_URL" default:"https://rpc.hyperliquid.xyz/evm" validate:"required,url"`

	// HyperliquidAPIURL is the exchange info endpoint for account state.
	HyperliquidAPIURL string `envconfig:"HYPERLIQUID_API_URL" default:"https://api.hyperliquid.xyz" validate:"required,url"`

	// RedisAddr is the host:port of the Redis instance backing all storage.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379" validate:"required"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	// APIRateLimit caps outbound provider calls, in requests per second.
	APIRateLimit float64 `envconfig:"API_RATE_LIMIT" default:"2" validate:"gt=0"`

	// DefaultScanInterval is the per-user scan spacing applied when a user
	// has not chosen their own, in seconds.
	DefaultScanInterval int `envconfig:"DEFAULT_SCAN_INTERVAL" default:"60" validate:"gte=10,lte=86400"`

	// MaxAddressesPerUser caps how many addresses a single user may watch.
	MaxAddressesPerUser int `envconfig:"MAX_ADDRESSES_PER_USER" default:"20" validate:"gt=0"`

	// ScanTick is how often the orchestrator wakes up to find users due
	// for a scan. Individual users are still gated by their own interval.
	ScanTick time.Duration `envconfig:"SCAN_TICK" default:"10s" validate:"gt=0"`

	// DispatchTick is how often pending notifications are drained.
	DispatchTick time.Duration `envconfig:"DISPATCH_TICK" default:"5s" validate:"gt=0"`

	// RetentionDays is how long snapshots and sent notifications are kept.
	RetentionDays int `envconfig:"RETENTION_DAYS" default:"30" validate:"gte=1,lte=365"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	validator.Init()
	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
