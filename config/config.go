package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the kiosk service.
type Config struct {
	Port    string
	Env     string
	Version string

	DBPath string

	UploadDir      string
	ImageStore     string
	S3Bucket       string
	S3Endpoint     string
	MaxUploadBytes int64

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	RedisURL string
	CacheTTL time.Duration

	KafkaBrokers    []string
	KafkaOrderTopic string

	StatusPolicy     string
	OrderRetention   time.Duration
	CleanupInterval  time.Duration
	HeartbeatTimeout time.Duration
	SweepInterval    time.Duration

	PrinterConfig string
	Printers      map[string]string
}

// Load reads configuration from .env (when present) and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "3001"),
		Env:             getEnv("ENV", "development"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		DBPath:          getEnv("DB_PATH", "./data/kiosk.db"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		ImageStore:      getEnv("IMAGE_STORE", "local"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Endpoint:      os.Getenv("AWS_S3_ENDPOINT"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "kiosk.orders"),
		StatusPolicy:    getEnv("ORDER_STATUS_POLICY", "permissive"),
		PrinterConfig:   os.Getenv("PRINTER_CONFIG"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		Printers: map[string]string{
			"kiosk-1": getEnv("PRINTER_KIOSK_1", "kiosk1-printer"),
			"kiosk-2": getEnv("PRINTER_KIOSK_2", "kiosk2-printer"),
		},
	}

	var err error
	if cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", 5*1024*1024); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	burst, err := getInt64("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitBurst = int(burst)

	// REQUEST_TIMEOUT may be 0 to disable the timeout; the others drive
	// tickers and cutoffs and must be positive.
	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
		positive bool
	}{
		{"REQUEST_TIMEOUT", 30 * time.Second, &cfg.RequestTimeout, false},
		{"CACHE_TTL", 5 * time.Minute, &cfg.CacheTTL, true},
		{"ORDER_RETENTION", 5 * time.Hour, &cfg.OrderRetention, true},
		{"CLEANUP_INTERVAL", 30 * time.Minute, &cfg.CleanupInterval, true},
		{"HEARTBEAT_TIMEOUT", 30 * time.Second, &cfg.HeartbeatTimeout, true},
		{"SWEEP_INTERVAL", 10 * time.Second, &cfg.SweepInterval, true},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.fallback); err != nil {
			return nil, err
		}
		if *d.dst < 0 || (d.positive && *d.dst == 0) {
			return nil, fmt.Errorf("%s must be positive, got %s", d.key, *d.dst)
		}
	}

	if cfg.StatusPolicy != "permissive" && cfg.StatusPolicy != "strict" {
		return nil, fmt.Errorf("ORDER_STATUS_POLICY must be permissive or strict, got %q", cfg.StatusPolicy)
	}
	if cfg.ImageStore == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when IMAGE_STORE=s3")
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimSuffix(p, "/"))
		}
	}
	return out
}
