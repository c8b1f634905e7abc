package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKING_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Empty(t, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 150.0, cfg.NoShow.RadiusMeters)
	assert.Equal(t, 10*time.Minute, cfg.NoShow.Countdown)
	assert.Equal(t, int64(50), cfg.NoShow.ChargePercent)
	assert.Equal(t, 2*time.Minute, cfg.NoShow.LocationMaxAge)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=booking_db sslmode=disable TimeZone=UTC", cfg.DBConfig.DSN())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BOOKING_JWT_SECRET", "s3cret")
	t.Setenv("BOOKING_SERVICE_PORT", "9090")
	t.Setenv("BOOKING_STORAGE", "memory")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Paris")
	t.Setenv("BOOKING_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("BOOKING_NOSHOW_COUNTDOWN", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "Europe/Paris", cfg.Timezone.String())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.NoShow.Countdown)
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("BOOKING_JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad storage", func(t *testing.T) {
		t.Setenv("BOOKING_JWT_SECRET", "s3cret")
		t.Setenv("BOOKING_STORAGE", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad charge percent", func(t *testing.T) {
		t.Setenv("BOOKING_JWT_SECRET", "s3cret")
		t.Setenv("BOOKING_NOSHOW_CHARGE_PERCENT", "150")
		_, err := Load()
		assert.Error(t, err)
	})
}
