package infra

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	DatabaseURL          string
	DBMaxConns           int
	JWTSecret            string
	StorageBaseURL       string
	StoragePath          string
	ExportDir            string
	ImageSourceAllowlist []string
	FetchTimeout         time.Duration
	BatchConcurrency     int
	ExportMaxWidth       int
	ExportTargetBytes    int
	ExportBaseName       string
	S3Bucket             string
	S3Region             string
	S3Endpoint           string
	S3AccessKeyID        string
	S3SecretAccessKey    string
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
	CORSAllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              port,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		StorageBaseURL:    getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		ExportDir:         getEnv("EXPORT_DIR", "."),
		FetchTimeout:      time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 60)),
		BatchConcurrency:  getEnvInt("BATCH_CONCURRENCY", 0),
		ExportMaxWidth:    getEnvInt("EXPORT_MAX_WIDTH", 1200),
		ExportTargetBytes: getEnvInt("EXPORT_TARGET_KB", 200) * 1024,
		ExportBaseName:    getEnv("EXPORT_BASE_NAME", "image"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	allow, err := buildAllowlist(cfg.StorageBaseURL, os.Getenv("IMAGE_SOURCE_HOST_ALLOWLIST"))
	if err != nil {
		return nil, err
	}
	cfg.ImageSourceAllowlist = allow
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if cfg.BatchConcurrency < 0 {
		return nil, fmt.Errorf("BATCH_CONCURRENCY must not be negative")
	}
	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.ExportMaxWidth <= 0 || cfg.ExportTargetBytes <= 0 {
		return nil, fmt.Errorf("EXPORT_MAX_WIDTH and EXPORT_TARGET_KB must be positive")
	}

	return cfg, nil
}

// RequireAPI checks the settings only the HTTP API needs.
func (c *Config) RequireAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// buildAllowlist merges the storage host with the explicit comma separated
// list. The result is sorted and deduplicated.
func buildAllowlist(storageBaseURL, explicit string) ([]string, error) {
	seen := map[string]struct{}{}
	if storageBaseURL != "" {
		u, err := url.Parse(storageBaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse STORAGE_BASE_URL: %w", err)
		}
		if h := strings.ToLower(u.Hostname()); h != "" {
			seen[h] = struct{}{}
		}
	}
	for _, h := range splitList(explicit) {
		seen[strings.ToLower(h)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
