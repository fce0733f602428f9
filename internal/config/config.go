// Package config loads harness settings. Values come from defaults, an
// optional YAML file and TOOLCORE_* environment variables, in that order; a
// .env file is read into the environment first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"toolcore/internal/blob"
	"toolcore/internal/core"
)

// Environment variable names.
const (
	EnvFile            = "TOOLCORE_ENV_FILE"
	EnvConfig          = "TOOLCORE_CONFIG"
	EnvLogLevel        = "TOOLCORE_LOG_LEVEL"
	EnvBlobDriver      = "TOOLCORE_BLOB_DRIVER"
	EnvBlobFSRoot      = "TOOLCORE_BLOB_FS_ROOT"
	EnvS3Bucket        = "TOOLCORE_BLOB_S3_BUCKET"
	EnvS3Region        = "TOOLCORE_BLOB_S3_REGION"
	EnvS3Prefix        = "TOOLCORE_BLOB_S3_PREFIX"
	EnvS3Endpoint      = "TOOLCORE_BLOB_S3_ENDPOINT"
	EnvS3PathStyle     = "TOOLCORE_BLOB_S3_PATH_STYLE"
	EnvLedgerDriver    = "TOOLCORE_LEDGER_DRIVER"
	EnvSQLitePath      = "TOOLCORE_SQLITE_PATH"
	EnvPostgresDSN     = "TOOLCORE_POSTGRES_DSN"
	EnvMetrics         = "TOOLCORE_METRICS"
	EnvDispatchTimeout = "TOOLCORE_DISPATCH_TIMEOUT"
	EnvConcurrency     = "TOOLCORE_CONCURRENCY"
	EnvTraceFile       = "TOOLCORE_TRACE_FILE"
	EnvMetricsFile     = "TOOLCORE_METRICS_FILE"
)

// Metrics backends.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Blob configures where datasets and transcripts live.
type Blob struct {
	Driver string        `yaml:"driver"`
	FSRoot string        `yaml:"fs_root"`
	S3     blob.S3Config `yaml:"s3"`
}

// Ledger configures where run results are recorded.
type Ledger struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Config is the harness configuration.
type Config struct {
	LogLevel        string        `yaml:"log_level"`
	Blob            Blob          `yaml:"blob"`
	Ledger          Ledger        `yaml:"ledger"`
	Metrics         string        `yaml:"metrics"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	Concurrency     int           `yaml:"concurrency"`
	TraceFile       string        `yaml:"trace_file"`
	MetricsFile     string        `yaml:"metrics_file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		Blob: Blob{
			Driver: string(blob.DriverFilesystem),
			FSRoot: "./data",
		},
		Ledger: Ledger{
			Driver:     string(core.LedgerMemory),
			SQLitePath: "./toolcore.db",
		},
		Metrics:     MetricsExpvar,
		Concurrency: 4,
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// TOOLCORE_CONFIG is consulted and a missing variable means no file.
func Load(path string) (Config, error) {
	envFile := os.Getenv(EnvFile)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.Blob.Driver, EnvBlobDriver)
	setString(&c.Blob.FSRoot, EnvBlobFSRoot)
	setString(&c.Blob.S3.Bucket, EnvS3Bucket)
	setString(&c.Blob.S3.Region, EnvS3Region)
	setString(&c.Blob.S3.Prefix, EnvS3Prefix)
	setString(&c.Blob.S3.Endpoint, EnvS3Endpoint)
	if v, ok := os.LookupEnv(EnvS3PathStyle); ok {
		c.Blob.S3.PathStyle = strings.EqualFold(v, "true")
	}
	setString(&c.Ledger.Driver, EnvLedgerDriver)
	setString(&c.Ledger.SQLitePath, EnvSQLitePath)
	setString(&c.Ledger.PostgresDSN, EnvPostgresDSN)
	setString(&c.Metrics, EnvMetrics)
	setString(&c.TraceFile, EnvTraceFile)
	setString(&c.MetricsFile, EnvMetricsFile)
	if v := os.Getenv(EnvDispatchTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDispatchTimeout, err)
		}
		c.DispatchTimeout = d
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports settings that cannot be wired.
func (c Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch blob.Driver(c.Blob.Driver) {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob driver s3 requires a bucket (%s)", EnvS3Bucket)
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch core.LedgerDriver(c.Ledger.Driver) {
	case "", core.LedgerMemory:
	case core.LedgerSQLite:
		if c.Ledger.SQLitePath == "" {
			return fmt.Errorf("ledger driver sqlite requires a path (%s)", EnvSQLitePath)
		}
	case core.LedgerPostgres:
		if c.Ledger.PostgresDSN == "" {
			return fmt.Errorf("ledger driver postgres requires a dsn (%s)", EnvPostgresDSN)
		}
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}
	switch c.Metrics {
	case "", MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Metrics)
	}
	if c.MetricsFile != "" && c.Metrics != MetricsPrometheus {
		return fmt.Errorf("metrics file requires the %s metrics backend, got %q", MetricsPrometheus, c.Metrics)
	}
	if c.DispatchTimeout < 0 {
		return fmt.Errorf("dispatch timeout must not be negative")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog; empty means info.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}

// BlobConfig converts the blob section for blob.Open.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{Driver: blob.Driver(c.Blob.Driver), FSRoot: c.Blob.FSRoot, S3: c.Blob.S3}
}

// LedgerConfig converts the ledger section for core.OpenRunLedger.
func (c Config) LedgerConfig() core.LedgerConfig {
	return core.LedgerConfig{
		Driver:      core.LedgerDriver(c.Ledger.Driver),
		SQLitePath:  c.Ledger.SQLitePath,
		PostgresDSN: c.Ledger.PostgresDSN,
	}
}
