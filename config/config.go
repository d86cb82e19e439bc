// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port           string
	BodyLimitBytes int
	AllowedOrigins string

	RateLimitMax    int
	RateLimitWindow time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	JWTSecret string
	LogLevel  string

	InvoiceNumberPadding int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("body_limit_bytes", 0)
	v.SetDefault("body_limit_mb", 4)
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("rate_limit_max", 60)
	v.SetDefault("rate_limit_window_seconds", 60)
	v.SetDefault("db_host", "db")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_timezone", "Asia/Kolkata")
	v.SetDefault("log_level", "info")
	v.SetDefault("invoice_number_padding", 4)
}

// Load reads .env (if present) and the process environment. Keys are the upper-case env names,
// e.g. RATE_LIMIT_MAX or DB_PASSWORD.
func Load() (Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for _, key := range []string{"db_user", "db_password", "db_name"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	jwtSecret := v.GetString("jwt_secret_key")
	if strings.TrimSpace(jwtSecret) == "" {
		jwtSecret = v.GetString("jwt_secret")
	}

	bodyLimit := v.GetInt("body_limit_bytes")
	if bodyLimit <= 0 {
		bodyLimit = v.GetInt("body_limit_mb") * 1024 * 1024
	}

	cfg := Config{
		Port:                 v.GetString("port"),
		BodyLimitBytes:       bodyLimit,
		AllowedOrigins:       v.GetString("allowed_origins"),
		RateLimitMax:         v.GetInt("rate_limit_max"),
		RateLimitWindow:      time.Duration(v.GetInt("rate_limit_window_seconds")) * time.Second,
		DBHost:               v.GetString("db_host"),
		DBPort:               v.GetString("db_port"),
		DBUser:               v.GetString("db_user"),
		DBPassword:           v.GetString("db_password"),
		DBName:               v.GetString("db_name"),
		DBSSLMode:            v.GetString("db_sslmode"),
		DBTimeZone:           v.GetString("db_timezone"),
		JWTSecret:            jwtSecret,
		LogLevel:             v.GetString("log_level"),
		InvoiceNumberPadding: v.GetInt("invoice_number_padding"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.InvoiceNumberPadding < 0 {
		return fmt.Errorf("INVOICE_NUMBER_PADDING must not be negative, got %d", c.InvoiceNumberPadding)
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}
