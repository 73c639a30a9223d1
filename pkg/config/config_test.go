package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpherenexLabs/npk/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"KNN_K", "HISTORY_CAPACITY", "DATASET_PATH", "MQTT_TOPIC_READING", "REDIS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 3, cfg.KNNK)
	assert.Equal(t, 50, cfg.HistoryCapacity)
	assert.Equal(t, "", cfg.DatasetPath)
	assert.Equal(t, "npk/+/reading", cfg.MQTTTopicReading)
	assert.False(t, cfg.RedisEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KNN_K", "5")
	t.Setenv("HISTORY_CAPACITY", "120")
	t.Setenv("DATASET_PATH", "/etc/npk/dataset.yaml")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()
	assert.Equal(t, 5, cfg.KNNK)
	assert.Equal(t, 120, cfg.HistoryCapacity)
	assert.Equal(t, "/etc/npk/dataset.yaml", cfg.DatasetPath)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_UnparsableFallsBack(t *testing.T) {
	t.Setenv("KNN_K", "three")
	t.Setenv("CLICKHOUSE_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 3, cfg.KNNK)
	assert.False(t, cfg.ClickHouseEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero k", func(c *Config) { c.KNNK = 0 }, "KNN_K"},
		{"zero capacity", func(c *Config) { c.HistoryCapacity = 0 }, "HISTORY_CAPACITY"},
		{"advice topic without placeholder", func(c *Config) { c.MQTTTopicAdvice = "npk/advice" }, "MQTT_TOPIC_ADVICE"},
		{"empty reading topic", func(c *Config) { c.MQTTTopicReading = "" }, "MQTT_TOPIC_READING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)

			var cfgErr *models.ConfigError
			require.True(t, errors.As(cfg.Validate(), &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_MQTTDisabledSkipsTopics(t *testing.T) {
	cfg := Load()
	cfg.MQTTEnabled = false
	cfg.MQTTTopicAdvice = ""
	assert.NoError(t, cfg.Validate())
}
