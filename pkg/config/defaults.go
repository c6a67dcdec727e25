package config

import "time"

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBUsername        = "postgres"
	DefaultDBName            = "tablebook"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxOpenConns    = 25
	DefaultDBMaxIdleConns    = 25
	DefaultDBConnMaxLifetime = 5 * time.Minute
	DefaultDBConnTimeout     = 10 * time.Second

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultRedisDB = 0

	DefaultKafkaReservationsTopic = "tablebook.reservations"

	DefaultXRayDaemonAddr = "127.0.0.1:2000"
)
