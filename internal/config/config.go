package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Upload gateway
	UploadDir              string `yaml:"upload_dir"`
	MaxUploadSize          int64  `yaml:"max_upload_size"`
	AnalysisServiceURL     string `yaml:"analysis_service_url"`
	AnalysisTimeoutSeconds int    `yaml:"analysis_timeout_seconds"`

	// History store
	DatabaseFile  string `yaml:"database_file"`
	MigrationsDir string `yaml:"migrations_dir"`

	// S3 image archive
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
	S3BucketName      string `yaml:"s3_bucket_name"`
	S3UseSSL          bool   `yaml:"s3_use_ssl"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Load builds the configuration from defaults, an optional YAML file
// named by CONFIG_FILE, and finally environment variable overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   "8080",
		LogLevel:               "info",
		UploadDir:              "uploads",
		MaxUploadSize:          16 << 20,
		AnalysisServiceURL:     "http://localhost:5000",
		AnalysisTimeoutSeconds: 60,
		DatabaseFile:           "data/claiminsight.db",
		MigrationsDir:          "internal/db/migrations",
		S3Endpoint:             "localhost:9000",
		S3AccessKeyID:          "minioadmin",
		S3SecretAccessKey:      "minioadmin",
		S3BucketName:           "claim-images",
		S3UseSSL:               false,
		CORSAllowedOrigins:     []string{"*"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.AnalysisServiceURL = getEnv("ANALYSIS_SERVICE_URL", cfg.AnalysisServiceURL)
	cfg.DatabaseFile = getEnv("DATABASE_FILE", cfg.DatabaseFile)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", cfg.S3AccessKeyID)
	cfg.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", cfg.S3SecretAccessKey)
	cfg.S3BucketName = getEnv("S3_BUCKET_NAME", cfg.S3BucketName)
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		cfg.S3UseSSL = v == "true"
	}
	if v := os.Getenv("MAX_UPLOAD_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
		}
		cfg.MaxUploadSize = n
	}
	if v := os.Getenv("ANALYSIS_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ANALYSIS_TIMEOUT_SECONDS: %w", err)
		}
		cfg.AnalysisTimeoutSeconds = n
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = strings.Split(v, ",")
	}

	if cfg.AnalysisServiceURL == "" {
		return nil, fmt.Errorf("ANALYSIS_SERVICE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
