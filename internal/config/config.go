// Package config centralizes how cardpipe reads environment variables and
// exposes them as strongly typed Go values. A missing or empty required
// variable is a fatal configuration error surfaced before any item is
// processed.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects the persistence implementation.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendObject   Backend = "object"
)

// Config represents runtime configuration for one pipeline run.
type Config struct {
	SourceDir  string
	ArchiveDir string
	ImageExt   string

	OCRAPIKey  string
	OCRAPIHost string
	OCRURL     string
	TaskID     string
	GroupID    string
	OCRTimeout time.Duration

	StoreBackend Backend

	DatabaseURL string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	LogLevel  string
	LogFormat string
}

const (
	defaultImageExt   = ".jpeg"
	defaultOCRTimeout = 10 * time.Second
)

// Error reports every configuration problem found during Load so the
// operator can fix them in one pass.
type Error struct {
	Missing []string
	BadDirs []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.BadDirs) > 0 {
		parts = append(parts, fmt.Sprintf("not a directory: %s", strings.Join(e.BadDirs, ", ")))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Load reads configuration from the environment, after an optional .env file
// (godotenv silently does nothing when no file exists). It returns a single
// *Error carrying every missing key and bad directory rather than failing on
// the first one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfgErr := &Error{}
	cfg := &Config{
		SourceDir:  requireEnv("CARDPIPE_SOURCE_DIR", cfgErr),
		ArchiveDir: requireEnv("CARDPIPE_ARCHIVE_DIR", cfgErr),
		ImageExt:   readEnv("CARDPIPE_IMAGE_EXT", defaultImageExt),

		OCRAPIKey:  requireEnv("CARDPIPE_OCR_API_KEY", cfgErr),
		OCRAPIHost: requireEnv("CARDPIPE_OCR_API_HOST", cfgErr),
		OCRURL:     requireEnv("CARDPIPE_OCR_URL", cfgErr),
		TaskID:     requireEnv("CARDPIPE_OCR_TASK_ID", cfgErr),
		GroupID:    requireEnv("CARDPIPE_OCR_GROUP_ID", cfgErr),
		OCRTimeout: parseDuration("CARDPIPE_OCR_TIMEOUT", defaultOCRTimeout),

		StoreBackend: Backend(readEnv("CARDPIPE_STORE_BACKEND", string(BackendPostgres))),

		LogLevel:  readEnv("CARDPIPE_LOG_LEVEL", "info"),
		LogFormat: readEnv("CARDPIPE_LOG_FORMAT", "console"),
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		cfg.DatabaseURL = requireEnv("CARDPIPE_DATABASE_URL", cfgErr)
	case BackendObject:
		cfg.S3Endpoint = requireEnv("CARDPIPE_S3_ENDPOINT", cfgErr)
		cfg.S3Region = requireEnv("CARDPIPE_S3_REGION", cfgErr)
		cfg.S3AccessKey = requireEnv("CARDPIPE_S3_ACCESS_KEY", cfgErr)
		cfg.S3SecretKey = requireEnv("CARDPIPE_S3_SECRET_KEY", cfgErr)
		cfg.S3Bucket = requireEnv("CARDPIPE_S3_BUCKET", cfgErr)
		cfg.S3UseSSL = readEnv("CARDPIPE_S3_USE_SSL", "false") == "true"
	default:
		return nil, fmt.Errorf("config: unknown store backend %q", cfg.StoreBackend)
	}

	if !strings.HasPrefix(cfg.ImageExt, ".") {
		cfg.ImageExt = "." + cfg.ImageExt
	}

	// Directory preflight: both directories must already exist. Their absence
	// aborts the run, it is never treated as a per-item failure.
	for _, dir := range []string{cfg.SourceDir, cfg.ArchiveDir} {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			cfgErr.BadDirs = append(cfgErr.BadDirs, dir)
		}
	}

	if len(cfgErr.Missing) > 0 || len(cfgErr.BadDirs) > 0 {
		sort.Strings(cfgErr.Missing)
		return nil, cfgErr
	}
	return cfg, nil
}

func requireEnv(key string, cfgErr *Error) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	cfgErr.Missing = append(cfgErr.Missing, key)
	return ""
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
