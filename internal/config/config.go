// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Calendar      CalendarConfig      `mapstructure:"calendar"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Rewards       RewardsConfig       `mapstructure:"rewards"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains Redis cache connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// CalendarConfig contains the free-busy provider settings for therapist
// availability checks.
type CalendarConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// NotificationsConfig contains outbound SMS and push notification settings.
type NotificationsConfig struct {
	SMS  SMSConfig  `mapstructure:"sms"`
	Push PushConfig `mapstructure:"push"`
}

// SMSConfig contains the verification-code SMS sender settings.
type SMSConfig struct {
	GatewayURL string `mapstructure:"gateway_url"`
	SenderID   string `mapstructure:"sender_id"`
	Enabled    bool   `mapstructure:"enabled"`
}

// PushConfig contains the push notification webhook settings.
type PushConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Enabled    bool   `mapstructure:"enabled"`
}

// RewardsConfig contains reward-hub progression settings.
type RewardsConfig struct {
	CheckInGems       int           `mapstructure:"check_in_gems"`
	StreakWindowHours int           `mapstructure:"streak_window_hours"`
	Levels            []LevelConfig `mapstructure:"levels"`
}

// LevelConfig represents one level-table entry. NextLevelGems is the
// cumulative gem total that unlocks the following level; the terminal
// entry carries no threshold.
type LevelConfig struct {
	Name          string `mapstructure:"name"`
	NextLevelGems int    `mapstructure:"next_level_gems"`
}

// MetricsConfig contains Prometheus metrics exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/wellbeing-backend/")
	}

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Calendar configuration
	_ = v.BindEnv("calendar.base_url", "CALENDAR_BASE_URL")
	_ = v.BindEnv("calendar.api_key", "CALENDAR_API_KEY")
	_ = v.BindEnv("calendar.cache_ttl", "CALENDAR_CACHE_TTL")

	// Notification configuration
	_ = v.BindEnv("notifications.sms.gateway_url", "SMS_GATEWAY_URL")
	_ = v.BindEnv("notifications.sms.sender_id", "SMS_SENDER_ID")
	_ = v.BindEnv("notifications.sms.enabled", "SMS_ENABLED")
	_ = v.BindEnv("notifications.push.webhook_url", "PUSH_WEBHOOK_URL")
	_ = v.BindEnv("notifications.push.enabled", "PUSH_ENABLED")

	// Rewards configuration
	_ = v.BindEnv("rewards.check_in_gems", "REWARDS_CHECK_IN_GEMS")
	_ = v.BindEnv("rewards.streak_window_hours", "REWARDS_STREAK_WINDOW_HOURS")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Rewards.CheckInGems == 0 {
		c.Rewards.CheckInGems = 5
	}
	if c.Rewards.StreakWindowHours == 0 {
		c.Rewards.StreakWindowHours = 24
	}
	if c.Calendar.CacheTTL == 0 {
		c.Calendar.CacheTTL = 300
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Calendar.BaseURL == "" {
		return fmt.Errorf("calendar.base_url is required")
	}
	if c.Rewards.CheckInGems < 0 {
		return fmt.Errorf("rewards.check_in_gems must not be negative")
	}
	for i := 1; i < len(c.Rewards.Levels)-1; i++ {
		if c.Rewards.Levels[i].NextLevelGems <= c.Rewards.Levels[i-1].NextLevelGems {
			return fmt.Errorf("rewards.levels thresholds must be strictly increasing")
		}
	}
	return nil
}
