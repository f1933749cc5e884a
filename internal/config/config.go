package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Websocket WebsocketConfig
	Texts     TextsConfig
	Kafka     KafkaConfig
}

type ServerConfig struct {
	Port string
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

type WebsocketConfig struct {
	// SendBuffer is the per-connection outbound queue size; a subscriber
	// that falls this far behind is detached.
	SendBuffer int
}

type TextsConfig struct {
	// File optionally points at a JSON string-array replacing the built-in
	// snippet pool.
	File string
}

type KafkaConfig struct {
	// Brokers empty disables race event publishing entirely.
	Brokers []string
	Topic   string
}

// Load reads configuration from the environment, applying defaults suited
// to local runs. The default port matches the original deployment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "3001"),
		},
		Logging: LoggingConfig{
			Directory: envOr("LOG_DIR", "./logs"),
			Level:     envOr("LOG_LEVEL", "info"),
			Format:    envOr("LOG_FORMAT", "text"),
		},
		Texts: TextsConfig{
			File: strings.TrimSpace(os.Getenv("TEXTS_FILE")),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS", "KAFKA_BROKER"),
			Topic:   envOr("KAFKA_EVENTS_TOPIC", "race.events"),
		},
	}

	sendBuffer, err := envInt("WS_SEND_BUFFER", 8)
	if err != nil {
		return nil, err
	}
	if sendBuffer <= 0 {
		return nil, fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", sendBuffer)
	}
	cfg.Websocket.SendBuffer = sendBuffer

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

// envList reads a comma-separated list from the first non-empty key.
func envList(keys ...string) []string {
	for _, key := range keys {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if len(values) > 0 {
			return values
		}
	}
	return nil
}
