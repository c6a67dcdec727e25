package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	kafka_config "tablebook/pkg/kafka/config"
	"tablebook/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DatabaseURL       string
	DBHost            string
	DBPort            int
	DBUsername        string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnTimeout     time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Kafka                  *kafka_config.Config
	KafkaReservationsTopic string
	KafkaDLQTopic          string

	TracingEnabled bool
	XRayDaemonAddr string

	Log *logger.Logger
}

// Load reads .env (if present) and the environment, then exits the process when the result
// does not validate.
func Load(serviceName string) *Config {
	envFileErr := godotenv.Load()

	cfg := FromEnv(serviceName)
	if envFileErr != nil && !errors.Is(envFileErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file", "error", envFileErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func FromEnv(serviceName string) *Config {
	return &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		DatabaseURL:       getEnvStr(EnvDatabaseURL, ""),
		DBHost:            getEnvStr(EnvDBHost, DefaultDBHost),
		DBPort:            getEnvNum(EnvDBPort, DefaultDBPort),
		DBUsername:        getEnvStr(EnvDBUsername, DefaultDBUsername),
		DBPassword:        getEnvStr(EnvDBPassword, ""),
		DBName:            getEnvStr(EnvDBName, DefaultDBName),
		DBSSLMode:         getEnvStr(EnvDBSSLMode, DefaultDBSSLMode),
		DBMaxOpenConns:    getEnvNum(EnvDBMaxOpenConns, DefaultDBMaxOpenConns),
		DBMaxIdleConns:    getEnvNum(EnvDBMaxIdleConns, DefaultDBMaxIdleConns),
		DBConnMaxLifetime: getEnvDuration(EnvDBConnMaxLifetime, DefaultDBConnMaxLifetime),
		DBConnTimeout:     getEnvDuration(EnvDBConnTimeout, DefaultDBConnTimeout),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Kafka:                  kafka_config.Load(),
		KafkaReservationsTopic: getEnvStr(EnvKafkaReservationsTopic, DefaultKafkaReservationsTopic),
		KafkaDLQTopic:          getEnvStr(EnvKafkaDLQTopic, ""),

		TracingEnabled: getEnvBool(EnvTracingEnabled, false),
		XRayDaemonAddr: getEnvStr(EnvXRayDaemonAddr, DefaultXRayDaemonAddr),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.DatabaseURL != "" {
		if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.DatabaseURL) {
			errors = append(errors, fmt.Sprintf("DatabaseURL must start with 'postgres://' or 'postgresql://', got: %s", redactDatabaseURL(cfg.DatabaseURL)))
		}
	} else {
		if cfg.DBHost == "" {
			errors = append(errors, "DBHost cannot be empty")
		}
		if cfg.DBPort < 1 || cfg.DBPort > 65535 {
			errors = append(errors, fmt.Sprintf("DBPort must be between 1 and 65535, got: %d", cfg.DBPort))
		}
		if cfg.DBUsername == "" {
			errors = append(errors, "DBUsername cannot be empty")
		}
		if cfg.DBName == "" {
			errors = append(errors, "DBName cannot be empty")
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		errors = append(errors, fmt.Sprintf("DBSSLMode must be one of [disable, allow, prefer, require, verify-ca, verify-full], got: %s", cfg.DBSSLMode))
	}

	if cfg.DBMaxOpenConns <= 0 {
		errors = append(errors, fmt.Sprintf("DBMaxOpenConns must be positive, got: %d", cfg.DBMaxOpenConns))
	}
	if cfg.DBMaxIdleConns < 0 {
		errors = append(errors, fmt.Sprintf("DBMaxIdleConns cannot be negative, got: %d", cfg.DBMaxIdleConns))
	}
	if cfg.DBConnMaxLifetime <= 0 {
		errors = append(errors, fmt.Sprintf("DBConnMaxLifetime must be positive, got: %s", cfg.DBConnMaxLifetime))
	}
	if cfg.DBConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("DBConnTimeout must be positive, got: %s", cfg.DBConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.Kafka != nil && cfg.Kafka.Enabled() {
		if err := cfg.Kafka.Validate(); err != nil {
			errors = append(errors, err.Error())
		}
		if cfg.KafkaReservationsTopic == "" {
			errors = append(errors, "KafkaReservationsTopic cannot be empty when Kafka brokers are set")
		}
	}

	if cfg.TracingEnabled && cfg.XRayDaemonAddr == "" {
		errors = append(errors, "XRayDaemonAddr cannot be empty when tracing is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"database_url", redactDatabaseURL(cfg.DatabaseURL),
		"db_host", cfg.DBHost,
		"db_port", cfg.DBPort,
		"db_username", cfg.DBUsername,
		"db_password_set", cfg.DBPassword != "",
		"db_name", cfg.DBName,
		"db_ssl_mode", cfg.DBSSLMode,
		"db_max_open_conns", cfg.DBMaxOpenConns,
		"db_max_idle_conns", cfg.DBMaxIdleConns,
		"db_conn_max_lifetime", cfg.DBConnMaxLifetime,
		"db_conn_timeout", cfg.DBConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"kafka_reservations_topic", cfg.KafkaReservationsTopic,
		"kafka_dlq_topic", cfg.KafkaDLQTopic,
		"tracing_enabled", cfg.TracingEnabled,
		"xray_daemon_addr", cfg.XRayDaemonAddr,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log.Info)
	}
}

// PostgresDSN returns DatabaseURL when set, otherwise a keyword/value DSN built from the DB_* fields.
func (cfg *Config) PostgresDSN() string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func redactDatabaseURL(url string) string {
	credentialRegex := regexp.MustCompile(`(postgres(ql)?://)([^:/@]+):[^@]+@`)
	return credentialRegex.ReplaceAllString(url, "${1}${3}:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
