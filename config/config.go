package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"policynav-backend/storage"
)

// Upstream target names, as used by the proxy's ?target= parameter
const (
	TargetProcessDoc    = "process_doc"
	TargetEligibility   = "eligibility"
	TargetOtherPolicies = "other_policies"
)

// DefaultTargets are the webhook endpoints of the hosted workflow service
var DefaultTargets = map[string]string{
	TargetProcessDoc:    "https://test-n8n.zynd.ai/webhook/979cfe28-657f-4314-b806-5d7df0c989c9/pay",
	TargetEligibility:   "https://test-n8n.zynd.ai/webhook/299f8076-3169-4b30-99d7-66b25015088b",
	TargetOtherPolicies: "https://test-n8n.zynd.ai/webhook/1cf41349-c5de-4ed3-8be9-e764406dc28e/pay",
}

// Session store backends
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Config holds the server configuration
type Config struct {
	Port string
	Env  string

	Targets          map[string]string
	UpstreamTimeout  time.Duration
	UploadMinLatency time.Duration
	MaxUploadBytes   int64

	SessionStore string
	DatabaseURL  string
	RedisAddr    string
	SessionTTL   time.Duration

	Archive storage.ArchiveConfig

	CORSAllowOrigins []string
}

// targetsFile is the layout of TARGETS_FILE
type targetsFile struct {
	Targets map[string]string `yaml:"targets"`
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", "dev"),
		SessionStore: strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		Archive: storage.ArchiveConfig{
			Type:         storage.ArchiveType(strings.ToLower(getEnv("ARCHIVE_TYPE", string(storage.ArchiveTypeNone)))),
			LocalPath:    getEnv("ARCHIVE_LOCAL_PATH", "./storage/responses"),
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     getEnv("AWS_REGION", "us-east-1"),
			S3Prefix:     os.Getenv("ARCHIVE_S3_PREFIX"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		CORSAllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}

	cfg.Targets = make(map[string]string, len(DefaultTargets))
	for name, url := range DefaultTargets {
		cfg.Targets[name] = url
	}
	envTargets := map[string]string{
		TargetProcessDoc:    "TARGET_PROCESS_DOC_URL",
		TargetEligibility:   "TARGET_ELIGIBILITY_URL",
		TargetOtherPolicies: "TARGET_OTHER_POLICIES_URL",
	}
	for name, key := range envTargets {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			cfg.Targets[name] = v
		}
	}
	if path := os.Getenv("TARGETS_FILE"); path != "" {
		overrides, err := LoadTargetsFile(path)
		if err != nil {
			return nil, err
		}
		for name, url := range overrides {
			cfg.Targets[name] = url
		}
	}

	var err error
	if cfg.UpstreamTimeout, err = getSeconds("UPSTREAM_TIMEOUT_SECONDS", 60); err != nil {
		return nil, err
	}
	if cfg.UploadMinLatency, err = getMillis("UPLOAD_MIN_LATENCY_MS", 1500); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getMinutes("SESSION_TTL_MINUTES", 24*60); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	case SessionStorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown session store: %s", c.SessionStore)
	}

	for _, name := range []string{TargetProcessDoc, TargetEligibility, TargetOtherPolicies} {
		if c.Targets[name] == "" {
			return fmt.Errorf("no URL configured for target %s", name)
		}
	}

	if c.Archive.Type == storage.ArchiveTypeS3 && c.Archive.S3Bucket == "" {
		return errors.New("AWS_S3_BUCKET is required when ARCHIVE_TYPE=s3")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// LoadTargetsFile reads target URL overrides from a YAML file:
//
//	targets:
//	  eligibility: https://example.com/webhook/abc
func LoadTargetsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	out := make(map[string]string, len(file.Targets))
	for name, url := range file.Targets {
		if url = strings.TrimSpace(url); url != "" {
			out[name] = url
		}
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

func getSeconds(key string, fallback int) (time.Duration, error) {
	n, err := getInt(key, fallback)
	return time.Duration(n) * time.Second, err
}

func getMillis(key string, fallback int) (time.Duration, error) {
	n, err := getInt(key, fallback)
	return time.Duration(n) * time.Millisecond, err
}

func getMinutes(key string, fallback int) (time.Duration, error) {
	n, err := getInt(key, fallback)
	return time.Duration(n) * time.Minute, err
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
