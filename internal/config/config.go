package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds everything the server binary needs, loaded from the
// environment with an optional .env file.
type Config struct {
	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Storage     string // memory | postgres
	PostgresURL string

	KafkaBrokers []string
	KafkaTopic   string

	// Compensate enables the engine's compensating re-credit when the credit
	// step of a transfer fails after the debit.
	Compensate bool
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		ReadTimeout:  getduration("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout: getduration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		Storage:      getenv("STORAGE", StorageMemory),
		PostgresURL:  os.Getenv("POSTGRES_URL"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "transfer.recorded"),
		Compensate:   os.Getenv("TRANSFER_COMPENSATE") == "true",
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.PostgresURL == "" {
			return Config{}, fmt.Errorf("config: STORAGE=postgres requires POSTGRES_URL")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown STORAGE %q", cfg.Storage)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
