package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
db:
  dsn: postgres://crawler:pw@localhost:5432/audiobooks
  max_conns: 8
crawler:
  base_url: https://example.com
  user_agent: custom-agent
  delay_ms: 1500
  nav_timeout_seconds: 45
  settle_delay_seconds: 3
  max_pages_default: 5
logging:
  development: false
metrics:
  enabled: true
  port: 9191
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DB.DSN != "postgres://crawler:pw@localhost:5432/audiobooks" || cfg.DB.MaxConns != 8 {
		t.Fatalf("expected db overrides to apply, got %+v", cfg.DB)
	}
	if cfg.Crawler.BaseURL != "https://example.com" || cfg.Crawler.UserAgent != "custom-agent" {
		t.Fatalf("expected crawler overrides to apply, got %+v", cfg.Crawler)
	}
	if cfg.Logging.Development {
		t.Fatal("expected logging.development to be false")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9191 {
		t.Fatalf("expected metrics overrides to apply, got %+v", cfg.Metrics)
	}
	if got := cfg.Crawler.Delay(); got != 1500*time.Millisecond {
		t.Fatalf("expected delay 1.5s, got %v", got)
	}
	if got := cfg.Crawler.NavTimeout(); got != 45*time.Second {
		t.Fatalf("expected nav timeout 45s, got %v", got)
	}
	if got := cfg.Crawler.SettleDelay(); got != 3*time.Second {
		t.Fatalf("expected settle delay 3s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
db:
  dsn: postgres://localhost/audiobooks
crawler:
  base_url: https://example.com
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DB.MaxConns != 4 {
		t.Fatalf("expected default max_conns 4, got %d", cfg.DB.MaxConns)
	}
	if cfg.Crawler.Delay() != time.Second {
		t.Fatalf("expected default delay 1s, got %v", cfg.Crawler.Delay())
	}
	if cfg.Crawler.MaxPagesDefault != 3 {
		t.Fatalf("expected default max_pages 3, got %d", cfg.Crawler.MaxPagesDefault)
	}
	if !cfg.Logging.Development {
		t.Fatal("expected logging.development default true")
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled by default")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		DB: DBConfig{DSN: "postgres://localhost/audiobooks", MaxConns: 4},
		Crawler: CrawlerConfig{
			BaseURL:         "https://example.com",
			NavTimeoutSec:   30,
			MaxPagesDefault: 3,
		},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing dsn",
			cfg: func() Config {
				c := base
				c.DB.DSN = ""
				return c
			}(),
			want: "db.dsn",
		},
		{
			name: "missing base url",
			cfg: func() Config {
				c := base
				c.Crawler.BaseURL = ""
				return c
			}(),
			want: "crawler.base_url",
		},
		{
			name: "negative delay",
			cfg: func() Config {
				c := base
				c.Crawler.DelayMs = -1
				return c
			}(),
			want: "crawler.delay_ms",
		},
		{
			name: "invalid nav timeout",
			cfg: func() Config {
				c := base
				c.Crawler.NavTimeoutSec = 0
				return c
			}(),
			want: "crawler.nav_timeout_seconds",
		},
		{
			name: "metrics enabled without port",
			cfg: func() Config {
				c := base
				c.Metrics.Enabled = true
				c.Metrics.Port = 0
				return c
			}(),
			want: "metrics.port",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
