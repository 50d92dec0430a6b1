package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
)

func TestNew(t *testing.T) {
	type Config struct {
		Log   config.Log
		Store config.Store
		Sale  config.Sale
		Kafka config.Kafka
		Redis config.Redis
	}

	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
		assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
		assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
		assert.Equal(t, 5*time.Second, cfg.Sale.CommitTimeout)
		assert.Equal(t, 100, cfg.Sale.MaxCartLines)
		assert.False(t, cfg.Kafka.Enabled())
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("Should read environment", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("SALE_COMMIT_TIMEOUT", "750ms")
		t.Setenv("KAFKA_ADDRESSES", "kafka-1:9092,kafka-2:9092")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
		assert.Equal(t, 750*time.Millisecond, cfg.Sale.CommitTimeout)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Addresses)
		assert.True(t, cfg.Redis.Enabled())
	})

	t.Run("Should reject unknown store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")

		_, err := config.New[Config]()
		assert.Error(t, err)
	})
}
