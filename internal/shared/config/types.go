package config

import "fmt"

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// RequestTimeoutSeconds bounds every request's ledger and gateway work.
	// Operations past the deadline fail with TIMEOUT instead of hanging.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	Password PasswordConfig `mapstructure:"password"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

// LicenseConfig holds the entitlement policy knobs.
type LicenseConfig struct {
	// HWIDResetWindowDays is the rolling window in which at most one
	// hardware reset is allowed per account.
	HWIDResetWindowDays int `mapstructure:"hwid_reset_window_days"`
	// AdminResetBypassesWindow grants admin-forced resets an exemption
	// from the rolling window. Self-service resets never bypass it.
	AdminResetBypassesWindow bool `mapstructure:"admin_reset_bypasses_window"`
	// ExtendRetryAttempts bounds the optimistic-lock retry loop on
	// license mutations before giving up with a conflict error.
	ExtendRetryAttempts int `mapstructure:"extend_retry_attempts"`
}

type GatewayConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseURL   string `mapstructure:"base_url"`
	Secret    string `mapstructure:"secret"`
	NotifyURL string `mapstructure:"notify_url"`
	ReturnURL string `mapstructure:"return_url"`
}

type PaymentConfig struct {
	StalenessWindowHours int           `mapstructure:"staleness_window_hours"`
	PollIntervalSeconds  int           `mapstructure:"poll_interval_seconds"`
	SweepIntervalMinutes int           `mapstructure:"sweep_interval_minutes"`
	Gateway              GatewayConfig `mapstructure:"gateway"`
}

type HeartbeatRateLimitConfig struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}
