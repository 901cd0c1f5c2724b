package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Storage.Path != filepath.Join("./data/propgrid", "storage") {
		t.Errorf("unexpected storage path %q", cfg.Storage.Path)
	}
	if cfg.Datasets.SQLitePath != filepath.Join("./data/propgrid", "datasets.db") {
		t.Errorf("unexpected sqlite path %q", cfg.Datasets.SQLitePath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.Storage.Type = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = StorageS3 }},
		{"zero page size", func(c *Config) { c.View.DefaultPageSize = 0 }},
		{"page size not an option", func(c *Config) { c.View.DefaultPageSize = 20 }},
		{"negative option", func(c *Config) { c.View.PageSizeOptions = []int{10, -25} }},
		{"zero session ttl", func(c *Config) { c.View.SessionTTL = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"grpc without addr", func(c *Config) { c.GRPC.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.View.PageSizeOptions = nil
	cfg.View.DefaultPageSize = 20
	if err := cfg.Validate(); err != nil {
		t.Errorf("any positive page size is allowed without options: %v", err)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "propgrid.yaml")
	content := `
data_dir: /var/lib/propgrid
http:
  addr: ":8181"
  read_timeout: 5s
grpc:
  enabled: false
storage:
  type: s3
  s3:
    bucket: grids
    region: us-west-2
    use_path_style: true
view:
  default_page_size: 25
  session_ttl: 10m
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.HTTP.Addr != ":8181" || cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("unexpected http config %+v", cfg.HTTP)
	}
	// Unset keys keep their defaults.
	if cfg.HTTP.WriteTimeout != 30*time.Second {
		t.Errorf("expected default write timeout, got %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.GRPC.Enabled {
		t.Error("expected grpc disabled")
	}
	if cfg.Storage.S3.Bucket != "grids" || !cfg.Storage.S3.UsePathStyle {
		t.Errorf("unexpected s3 config %+v", cfg.Storage.S3)
	}
	if cfg.View.DefaultPageSize != 25 || cfg.View.SessionTTL != 10*time.Minute {
		t.Errorf("unexpected view config %+v", cfg.View)
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "propgrid.json")
	if err := os.WriteFile(path, []byte(`{"http": {"addr": ":7000"}, "datasets": {"load_fixtures": false}}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.HTTP.Addr != ":7000" || cfg.Datasets.LoadFixtures {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	toml := filepath.Join(dir, "propgrid.toml")
	if err := os.WriteFile(toml, []byte("x = 1"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFromFile(toml); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROPGRID_HTTP_ADDR", ":9999")
	t.Setenv("PROPGRID_GRPC_ENABLED", "0")
	t.Setenv("PROPGRID_STORAGE_TYPE", "s3")
	t.Setenv("PROPGRID_S3_BUCKET", "env-bucket")
	t.Setenv("PROPGRID_VIEW_DEFAULT_PAGE_SIZE", "50")
	t.Setenv("PROPGRID_VIEW_PAGE_SIZE_OPTIONS", "20, 50, x, 100")
	t.Setenv("PROPGRID_VIEW_SESSION_TTL", "90s")
	t.Setenv("PROPGRID_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.HTTP.Addr != ":9999" || cfg.GRPC.Enabled {
		t.Errorf("unexpected transport config: %+v %+v", cfg.HTTP, cfg.GRPC)
	}
	if cfg.Storage.Type != StorageS3 || cfg.Storage.S3.Bucket != "env-bucket" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.View.DefaultPageSize != 50 || cfg.View.SessionTTL != 90*time.Second {
		t.Errorf("unexpected view config %+v", cfg.View)
	}
	if got := cfg.View.PageSizeOptions; len(got) != 3 || got[0] != 20 || got[2] != 100 {
		t.Errorf("unexpected page size options %v", got)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("unexpected log level %q", cfg.Logging.Level)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.Storage.Path} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
}
