package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/SpherenexLabs/npk/internal/models"
)

type Config struct {
	// Advisor Configuration
	DatasetPath     string
	KNNK            int
	HistoryCapacity int
	ReadingChanSize int

	// MQTT Configuration
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	MQTTTopicReading string
	MQTTTopicAdvice  string

	// ClickHouse Configuration
	ClickHouseEnabled bool
	ClickHouseAddr    string
	ClickHouseDB      string
	ClickHouseUser    string
	ClickHousePass    string

	// Redis Configuration
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP Configuration
	HTTPAddr string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		DatasetPath:     getEnv("DATASET_PATH", ""),
		KNNK:            getEnvInt("KNN_K", 3),
		HistoryCapacity: getEnvInt("HISTORY_CAPACITY", 50),
		ReadingChanSize: getEnvInt("READING_CHANNEL_SIZE", 100),

		MQTTEnabled:  getEnvBool("MQTT_ENABLED", true),
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "npk-advisor"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		MQTTTopicReading: getEnv("MQTT_TOPIC_READING", "npk/+/reading"),
		MQTTTopicAdvice:  getEnv("MQTT_TOPIC_ADVICE", "npk/{device_id}/advice"),

		ClickHouseEnabled: getEnvBool("CLICKHOUSE_ENABLED", false),
		ClickHouseAddr:    getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:      getEnv("CLICKHOUSE_DB", "npk"),
		ClickHouseUser:    getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:    getEnv("CLICKHOUSE_PASS", ""),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}
}

// Validate rejects settings the advisor cannot start with
func (c *Config) Validate() error {
	if c.KNNK < 1 {
		return &models.ConfigError{Component: "config", Field: "KNN_K", Reason: fmt.Sprintf("%d must be at least 1", c.KNNK)}
	}
	if c.HistoryCapacity < 1 {
		return &models.ConfigError{Component: "config", Field: "HISTORY_CAPACITY", Reason: fmt.Sprintf("%d must be at least 1", c.HistoryCapacity)}
	}
	if c.ReadingChanSize < 1 {
		return &models.ConfigError{Component: "config", Field: "READING_CHANNEL_SIZE", Reason: fmt.Sprintf("%d must be at least 1", c.ReadingChanSize)}
	}
	if c.MQTTEnabled {
		if c.MQTTTopicReading == "" {
			return &models.ConfigError{Component: "config", Field: "MQTT_TOPIC_READING", Reason: models.ReasonMissing}
		}
		if !strings.Contains(c.MQTTTopicAdvice, "{device_id}") {
			return &models.ConfigError{Component: "config", Field: "MQTT_TOPIC_ADVICE", Reason: "must contain {device_id}"}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}
