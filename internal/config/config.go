package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/finvoice/finvoice/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	RateLimit  RateLimitConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `validate:"required"`
	Port                   int    `validate:"required"`
	User                   string `validate:"required"`
	Password               string
	DBName                 string `validate:"required"`
	SSLMode                string `validate:"required"`
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	// StatementTimeout bounds every statement so a stuck settlement
	// transaction aborts and rolls back instead of holding row locks.
	StatementTimeout time.Duration
}

type AuthConfig struct {
	// Secret signs HS256 JWTs issued at login
	Secret string `validate:"required"`
	// TokenExpiry is the lifetime of issued tokens
	TokenExpiry time.Duration
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type RateLimitConfig struct {
	Enabled bool
	// RequestsPerSecond per client IP
	RequestsPerSecond float64
	Burst             int
}

func NewConfig() (*Configuration, error) {
	// Local development keeps FINVOICE_* overrides in a .env file
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/finvoice")

	v.SetEnvPrefix("FINVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "finvoice")
	v.SetDefault("postgres.dbname", "finvoice")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxopenconns", 10)
	v.SetDefault("postgres.maxidleconns", 5)
	v.SetDefault("postgres.connmaxlifetimeminutes", 30)
	v.SetDefault("postgres.statementtimeout", 10*time.Second)
	v.SetDefault("auth.tokenexpiry", 24*time.Hour)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requestspersecond", 25)
	v.SetDefault("ratelimit.burst", 50)
}

func (c Configuration) Validate() error {
	return validator.New().Struct(c)
}

// GetDSN returns the postgres connection string
func (c PostgresConfig) GetDSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
	// Sent as a startup parameter so every pooled connection gets the
	// timeout, not just the one that happens to run a SET.
	if c.StatementTimeout > 0 {
		dsn = fmt.Sprintf("%s statement_timeout=%d", dsn, c.StatementTimeout.Milliseconds())
	}
	return dsn
}
