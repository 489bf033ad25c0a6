package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "keygate/internal/shared/config"
)

type Config struct {
	Server             sharedConfig.ServerConfig             `mapstructure:"server"`
	Database           sharedConfig.DatabaseConfig           `mapstructure:"database"`
	Redis              sharedConfig.RedisConfig              `mapstructure:"redis"`
	Logger             sharedConfig.LoggerConfig             `mapstructure:"logger"`
	Auth               sharedConfig.AuthConfig               `mapstructure:"auth"`
	License            sharedConfig.LicenseConfig            `mapstructure:"license"`
	Payment            sharedConfig.PaymentConfig            `mapstructure:"payment"`
	HeartbeatRateLimit sharedConfig.HeartbeatRateLimitConfig `mapstructure:"heartbeat_rate_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("KEYGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("server.request_timeout_seconds", 10)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "keygate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Auth defaults
	viper.SetDefault("auth.password.bcrypt_cost", 12)
	viper.SetDefault("auth.jwt.secret", "change-me-in-production")
	viper.SetDefault("auth.jwt.access_exp_minutes", 60)

	// License policy defaults
	viper.SetDefault("license.hwid_reset_window_days", 30)
	viper.SetDefault("license.admin_reset_bypasses_window", false)
	viper.SetDefault("license.extend_retry_attempts", 3)

	// Payment defaults
	viper.SetDefault("payment.staleness_window_hours", 24)
	viper.SetDefault("payment.poll_interval_seconds", 60)
	viper.SetDefault("payment.sweep_interval_minutes", 5)
	viper.SetDefault("payment.gateway.provider", "mock")
	viper.SetDefault("payment.gateway.base_url", "")
	viper.SetDefault("payment.gateway.secret", "")
	viper.SetDefault("payment.gateway.notify_url", "http://localhost:8080/api/v1/payments/callback")
	viper.SetDefault("payment.gateway.return_url", "http://localhost:8080")

	// Heartbeat rate limit defaults
	viper.SetDefault("heartbeat_rate_limit.limit", 30)
	viper.SetDefault("heartbeat_rate_limit.window_seconds", 60)
}
