// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the connection string for the gorm postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// KafkaConfig holds broker settings. No brokers means events are only logged.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the live-location store settings. An empty Addr keeps
// locations in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NoShowConfig tunes the no-show guard.
type NoShowConfig struct {
	RadiusMeters   float64
	Countdown      time.Duration
	ChargePercent  int64
	LocationMaxAge time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port               string
	AppEnv             string
	Storage            string
	Timezone           *time.Location
	JWTSecret          string
	StripeSecretKey    string
	CORSOrigins        []string
	RateLimitPerMinute int
	DBConfig           DatabaseConfig
	KafkaConfig        KafkaConfig
	RedisConfig        RedisConfig
	NoShow             NoShowConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("NOSHOW_RADIUS_METERS", 150.0)
	v.SetDefault("NOSHOW_COUNTDOWN", "10m")
	v.SetDefault("NOSHOW_CHARGE_PERCENT", 50)
	v.SetDefault("LOCATION_MAX_AGE", "2m")
}

// Load reads configuration from BOOKING_* environment variables and an
// optional config.yaml in the working directory or ./config.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	storage := strings.ToLower(v.GetString("STORAGE"))
	if storage != StoragePostgres && storage != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE %q, want %s or %s", storage, StoragePostgres, StorageMemory)
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	cfg := &ServiceConfig{
		Port:               port,
		AppEnv:             v.GetString("APP_ENV"),
		Storage:            storage,
		Timezone:           loc,
		JWTSecret:          v.GetString("JWT_SECRET"),
		StripeSecretKey:    v.GetString("STRIPE_SECRET_KEY"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		NoShow: NoShowConfig{
			RadiusMeters:   v.GetFloat64("NOSHOW_RADIUS_METERS"),
			Countdown:      v.GetDuration("NOSHOW_COUNTDOWN"),
			ChargePercent:  v.GetInt64("NOSHOW_CHARGE_PERCENT"),
			LocationMaxAge: v.GetDuration("LOCATION_MAX_AGE"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.NoShow.ChargePercent < 0 || cfg.NoShow.ChargePercent > 100 {
		return nil, fmt.Errorf("NOSHOW_CHARGE_PERCENT must be within 0..100, got %d", cfg.NoShow.ChargePercent)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *ServiceConfig) IsProduction() bool {
	return c.AppEnv == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
