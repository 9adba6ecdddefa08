package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once at startup and passed explicitly to components.
type Config struct {
	Server   ServerConfig
	Admin    AdminConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	// Timezone is the IANA zone the calendar day is computed in.
	Timezone string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AdminConfig struct {
	// Key is the single operator secret. When empty, admin login always
	// fails.
	Key string
	// Path is the unguessable admin URL segment (without leading slash).
	Path string
}

type SessionConfig struct {
	// Secret signs viewer and admin markers.
	Secret string
}

type DatabaseConfig struct {
	// SQLitePath is the local store file, used when PostgresDSN is empty.
	SQLitePath string
	// PostgresDSN switches the store to Postgres when set.
	PostgresDSN string
}

type RedisConfig struct {
	// Addr enables the Redis-backed admin session store when set.
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":3000"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Admin: AdminConfig{
			Key:  trimEnv("ADMIN_KEY"),
			Path: trimEnv("ADMIN_PATH"),
		},
		Session: SessionConfig{
			Secret: trimEnv("SESSION_SECRET"),
		},
		Database: DatabaseConfig{
			SQLitePath:  getEnv("SQLITE_PATH", "data.db"),
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "raidreserve.application.events"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Timezone: getEnv("TIMEZONE", "Asia/Seoul"),
	}
}

// AdminBase is the routing prefix of the secret admin area.
func (c *Config) AdminBase() string {
	return "/" + c.Admin.Path
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func trimEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
