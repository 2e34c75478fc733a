package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	URL             string        `mapstructure:"url"` // overrides the discrete fields when set
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// LedgerConfig tunes the accounting core.
type LedgerConfig struct {
	PageSize         int           `mapstructure:"page_size"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// RateLimitConfig caps unauthenticated endpoints per client IP.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	LoginLimit     int64         `mapstructure:"login_limit"`
	LoginWindow    time.Duration `mapstructure:"login_window"`
	RegisterLimit  int64         `mapstructure:"register_limit"`
	RegisterWindow time.Duration `mapstructure:"register_window"`
	TransferLimit  int64         `mapstructure:"transfer_limit"`
	TransferWindow time.Duration `mapstructure:"transfer_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: LEDGER_.
// Nested keys use underscore: LEDGER_DATABASE_HOST, LEDGER_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// env vars alone are a valid configuration
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "168h")
	v.SetDefault("jwt.issuer", "ledger-service")

	v.SetDefault("ledger.page_size", 25)
	v.SetDefault("ledger.operation_timeout", "5s")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.login_limit", 10)
	v.SetDefault("ratelimit.login_window", "1m")
	v.SetDefault("ratelimit.register_limit", 5)
	v.SetDefault("ratelimit.register_window", "1h")
	v.SetDefault("ratelimit.transfer_limit", 60)
	v.SetDefault("ratelimit.transfer_window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("jwt.expiry must be positive")
	}
	if c.Ledger.PageSize <= 0 {
		return errors.New("ledger.page_size must be positive")
	}
	if c.Ledger.OperationTimeout <= 0 {
		return errors.New("ledger.operation_timeout must be positive")
	}
	return nil
}
