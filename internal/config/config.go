// Package config provides configuration for the propgrid service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage types.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the propgrid configuration.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// gRPC configuration
	GRPC GRPCConfig `json:"grpc" yaml:"grpc"`

	// Storage configuration for dataset snapshots
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Datasets configuration
	Datasets DatasetsConfig `json:"datasets" yaml:"datasets"`

	// View configuration
	View ViewConfig `json:"view" yaml:"view"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP listen address
	Addr string `json:"addr" yaml:"addr"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds the drain of in-flight requests
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// GRPCConfig holds gRPC server configuration.
type GRPCConfig struct {
	// Addr is the gRPC server address
	Addr string `json:"addr" yaml:"addr"`

	// Enabled controls whether gRPC is enabled
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle forces path-style addressing (MinIO, LocalStack)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DatasetsConfig controls where datasets are loaded from at startup.
type DatasetsConfig struct {
	// SQLitePath is the dataset store. Empty resolves under DataDir.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	// SnapshotPrefix is the object storage prefix of dataset snapshots
	SnapshotPrefix string `json:"snapshot_prefix" yaml:"snapshot_prefix"`

	// LoadFixtures registers the built-in fixtures when no other source
	// has them
	LoadFixtures bool `json:"load_fixtures" yaml:"load_fixtures"`
}

// ViewConfig holds defaults for resolved views.
type ViewConfig struct {
	// DefaultPageSize is the page size new sessions start with
	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size"`

	// PageSizeOptions restricts page size changes. Empty allows any size.
	PageSizeOptions []int `json:"page_size_options" yaml:"page_size_options"`

	// MemoCapacity is the number of resolved pages kept in memory
	MemoCapacity int `json:"memo_capacity" yaml:"memo_capacity"`

	// SessionTTL is how long an idle view session is kept
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Development enables human-readable console output
	Development bool `json:"development" yaml:"development"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/propgrid",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		GRPC: GRPCConfig{
			Addr:    ":9090",
			Enabled: true,
		},
		Storage: StorageConfig{
			Type: StorageLocal,
		},
		Datasets: DatasetsConfig{
			SnapshotPrefix: "snapshots",
			LoadFixtures:   true,
		},
		View: ViewConfig{
			DefaultPageSize: 10,
			PageSizeOptions: []int{10, 25, 50},
			MemoCapacity:    256,
			SessionTTL:      30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/propgrid"
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageLocal
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}

	if c.Datasets.SQLitePath == "" {
		c.Datasets.SQLitePath = filepath.Join(c.DataDir, "datasets.db")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.GRPC.Enabled && c.GRPC.Addr == "" {
		return fmt.Errorf("grpc.addr is required when grpc is enabled")
	}

	if c.Storage.Type != StorageLocal && c.Storage.Type != StorageS3 {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == StorageS3 && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.View.DefaultPageSize <= 0 {
		return fmt.Errorf("view.default_page_size must be positive, got %d", c.View.DefaultPageSize)
	}
	if len(c.View.PageSizeOptions) > 0 {
		found := false
		for _, n := range c.View.PageSizeOptions {
			if n <= 0 {
				return fmt.Errorf("view.page_size_options must be positive, got %d", n)
			}
			if n == c.View.DefaultPageSize {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("view.default_page_size %d is not one of view.page_size_options %v",
				c.View.DefaultPageSize, c.View.PageSizeOptions)
		}
	}
	if c.View.SessionTTL <= 0 {
		return fmt.Errorf("view.session_ttl must be positive, got %s", c.View.SessionTTL)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PROPGRID_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PROPGRID_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// HTTP configuration
	if v := os.Getenv("PROPGRID_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// gRPC configuration
	if v := os.Getenv("PROPGRID_GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("PROPGRID_GRPC_ENABLED"); v != "" {
		cfg.GRPC.Enabled = v == "true" || v == "1"
	}

	// Storage configuration
	if v := os.Getenv("PROPGRID_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PROPGRID_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PROPGRID_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("PROPGRID_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("PROPGRID_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("PROPGRID_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}

	// Dataset configuration
	if v := os.Getenv("PROPGRID_DATASETS_SQLITE_PATH"); v != "" {
		cfg.Datasets.SQLitePath = v
	}
	if v := os.Getenv("PROPGRID_DATASETS_SNAPSHOT_PREFIX"); v != "" {
		cfg.Datasets.SnapshotPrefix = v
	}
	if v := os.Getenv("PROPGRID_DATASETS_LOAD_FIXTURES"); v != "" {
		cfg.Datasets.LoadFixtures = v == "true" || v == "1"
	}

	// View configuration
	if v := os.Getenv("PROPGRID_VIEW_DEFAULT_PAGE_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.View.DefaultPageSize)
	}
	if v := os.Getenv("PROPGRID_VIEW_PAGE_SIZE_OPTIONS"); v != "" {
		cfg.View.PageSizeOptions = parseIntList(v)
	}
	if v := os.Getenv("PROPGRID_VIEW_MEMO_CAPACITY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.View.MemoCapacity)
	}
	if v := os.Getenv("PROPGRID_VIEW_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.View.SessionTTL = d
		}
	}

	// Logging configuration
	if v := os.Getenv("PROPGRID_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PROPGRID_LOG_DEVELOPMENT"); v != "" {
		cfg.Logging.Development = v == "true" || v == "1"
	}
}

// parseIntList parses "10,25,50". Entries that are not integers are skipped.
func parseIntList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Storage.Type == StorageLocal {
		dirs = append(dirs, c.Storage.Path)
	}
	if c.Datasets.SQLitePath != "" {
		dirs = append(dirs, filepath.Dir(c.Datasets.SQLitePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
