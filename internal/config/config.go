package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	HTTPAddr string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string

	// AMQP (extraction job queue)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Kafka (distribution events)
	KafkaBrokers []string
	KafkaTopic   string

	// Vision collaborator
	VisionProvider           string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Denomination profiles
	DenominationsFile string
	DefaultProfile    string

	// Logging
	LogLevel  string
	LogFormat string

	// HTTP limits and caching
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheMaxEntries    int
	MaxUploadBytes     int64

	// Extraction worker
	WorkerPollInterval time.Duration
	WorkerBatchSize    int
	WorkerMaxRetries   int
	JobRetention       time.Duration
}

func Load() *Config {
	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tippool.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tippool"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "extraction_jobs"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "distribution_computed"),

		VisionProvider:           getEnv("VISION_PROVIDER", "off"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		DenominationsFile: getEnv("DENOMINATIONS_FILE", ""),
		DefaultProfile:    getEnv("DEFAULT_PROFILE", "usd"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries:    getEnvInt("CACHE_MAX_ENTRIES", 200),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 8<<20)),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 30*time.Second),
		WorkerBatchSize:    getEnvInt("WORKER_BATCH_SIZE", 10),
		WorkerMaxRetries:   getEnvInt("WORKER_MAX_RETRIES", 3),
		JobRetention:       getEnvDuration("JOB_RETENTION", 30*24*time.Hour),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate listen address
	if c.HTTPAddr == "" {
		errors = append(errors, "HTTP address cannot be empty")
	} else if host, port, err := splitAddr(c.HTTPAddr); err != nil {
		errors = append(errors, fmt.Sprintf("invalid HTTP address '%s': %v", c.HTTPAddr, err))
	} else {
		_ = host
		if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port '%s': must be between 1 and 65535", port))
		}
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Postgres configuration if backend is postgres
	if c.DataBackend == "postgres" {
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if parsedURL, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Kafka configuration if brokers are provided
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errors = append(errors, "Kafka topic cannot be empty when brokers are provided")
	}

	// Validate vision provider
	validProviders := []string{"google", "stub", "off"}
	isValidProvider := false
	for _, p := range validProviders {
		if c.VisionProvider == p {
			isValidProvider = true
			break
		}
	}
	if !isValidProvider {
		errors = append(errors, fmt.Sprintf("invalid vision provider '%s': must be one of %v", c.VisionProvider, validProviders))
	}

	// Check the profiles file exists when specified
	if c.DenominationsFile != "" {
		if _, err := os.Stat(c.DenominationsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("denominations file does not exist: %s", c.DenominationsFile))
		}
	}
	if c.DefaultProfile == "" {
		errors = append(errors, "default profile name cannot be empty")
	}

	// Validate log format
	validFormats := []string{"text", "json", "pretty"}
	isValidFormat := false
	for _, f := range validFormats {
		if c.LogFormat == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	// Validate limits
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.CacheMaxEntries < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache max entries %d: must be at least 1", c.CacheMaxEntries))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1KB", c.MaxUploadBytes))
	}

	// Validate worker configuration
	if c.WorkerBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker batch size %d: must be at least 1", c.WorkerBatchSize))
	} else if c.WorkerBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid worker batch size %d: must be at most 1000", c.WorkerBatchSize))
	}
	if c.WorkerPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid worker poll interval %v: must be at least 1 second", c.WorkerPollInterval))
	} else if c.WorkerPollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid worker poll interval %v: must be at most 24 hours", c.WorkerPollInterval))
	}
	if c.WorkerMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("invalid worker max retries %d: must not be negative", c.WorkerMaxRetries))
	}
	// Zero retention disables pruning of finished extraction jobs.
	if c.JobRetention < 0 {
		errors = append(errors, fmt.Sprintf("invalid job retention %v: must not be negative", c.JobRetention))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// splitAddr splits a listen address of the form "host:port" or ":port".
func splitAddr(addr string) (host, port string, err error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return "", "", fmt.Errorf("missing port")
	}
	return addr[:i], addr[i+1:], nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated env value, dropping empty items.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
