package main

import (
	"log/slog"
	"time"

	"github.com/lightech/balance-beam/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT"`
	// Comma-separated broker list; empty disables event publishing.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	Postgres     config.PostgresConfig
}
