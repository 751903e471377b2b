package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/magiconair/properties"
	"github.com/spf13/afero"
)

// Settings holds the tool's own configuration, read from the environment
type Settings struct {
	// Timeout bounds every network call: the metadata fetch and each topic creation
	Timeout  time.Duration `envconfig:"TOPIC_CREATOR_TIMEOUT" default:"5s"`
	LogLevel string        `envconfig:"TOPIC_CREATOR_LOG_LEVEL" default:"info"`

	// librdkafka debug contexts, i.e "broker,topic,protocol"
	KafkaDebug string `envconfig:"KAFKA_DEBUG" default:""`
}

// loadSettings loads settings from .env file and environment variables
func loadSettings() (Settings, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	var settings Settings
	if err := envconfig.Process("", &settings); err != nil {
		return settings, fmt.Errorf("failed to process environment config: %w", err)
	}
	if settings.Timeout <= 0 {
		return settings, fmt.Errorf("TOPIC_CREATOR_TIMEOUT must be positive, got %s", settings.Timeout)
	}

	return settings, nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (s Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConnectionProperties reads the broker connection properties file
// (Java properties syntax) into a kafka.ConfigMap. Keys and values are passed
// through as they are: no ${} expansion, quotes and inline # are kept.
func loadConnectionProperties(fs afero.Fs, path string) (kafka.ConfigMap, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	if props.Len() == 0 {
		return nil, &IOError{Path: path, Err: fmt.Errorf("no connection properties defined")}
	}

	configMap := kafka.ConfigMap{}
	for k, v := range props.Map() {
		configMap[k] = v
	}

	return configMap, nil
}

// applySettings adds tool settings the properties file did not set itself
func applySettings(configMap kafka.ConfigMap, settings Settings) {
	if settings.KafkaDebug == "" {
		return
	}
	if _, ok := configMap["debug"]; !ok {
		configMap["debug"] = settings.KafkaDebug
	}
}
