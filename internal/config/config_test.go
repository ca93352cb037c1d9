package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sitemap.URL != DefaultSitemapURL {
		t.Fatalf("expected default sitemap, got %q", cfg.Sitemap.URL)
	}
	if cfg.Sample.Count != 20 {
		t.Fatalf("expected 20 samples, got %d", cfg.Sample.Count)
	}
	if cfg.Output.Path != DefaultOutputPath {
		t.Fatalf("expected default output path, got %q", cfg.Output.Path)
	}
	if cfg.Headless.Mode != HeadlessOff {
		t.Fatalf("expected headless off, got %q", cfg.Headless.Mode)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
sitemap:
  url: https://catalog.example.com/sitemap.xml
sample:
  count: 5
  seed: 42
output:
  path: out/courses.csv
  format: csv
http:
  user_agent: test-agent
  timeout_seconds: 12
  respect_robots: true
headless:
  mode: auto
  nav_timeout_seconds: 20
  promotion_threshold: 1024
archive:
  dir: pages
metrics:
  addr: ":9100"
logging:
  development: false
  level: warn
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sitemap.URL != "https://catalog.example.com/sitemap.xml" {
		t.Fatalf("unexpected sitemap url %q", cfg.Sitemap.URL)
	}
	if cfg.Sample.Count != 5 || cfg.Sample.Seed != 42 {
		t.Fatalf("expected sample overrides, got %+v", cfg.Sample)
	}
	if cfg.Output.Format != "csv" || cfg.Output.Path != "out/courses.csv" {
		t.Fatalf("expected output overrides, got %+v", cfg.Output)
	}
	if !cfg.HTTP.RespectRobots || cfg.HTTP.UserAgent != "test-agent" {
		t.Fatalf("expected http overrides, got %+v", cfg.HTTP)
	}
	if cfg.Headless.Mode != HeadlessAuto || cfg.Headless.PromotionThresh != 1024 {
		t.Fatalf("expected headless overrides, got %+v", cfg.Headless)
	}
	if cfg.Archive.Dir != "pages" || cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected archive and metrics overrides")
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" {
		t.Fatalf("expected logging overrides, got %+v", cfg.Logging)
	}
	if got := cfg.RequestTimeout(); got != 12*time.Second {
		t.Fatalf("expected 12s request timeout, got %v", got)
	}
	if got := cfg.NavigationTimeout(); got != 20*time.Second {
		t.Fatalf("expected 20s navigation timeout, got %v", got)
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sample:\n  count: 5\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("count", 20, "")
	flags.String("output", "", "")
	if err := flags.Parse([]string{"--count", "3"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sample.Count != 3 {
		t.Fatalf("expected flag to win, got %d", cfg.Sample.Count)
	}
	if cfg.Output.Path != DefaultOutputPath {
		t.Fatalf("unset flag should not clobber default, got %q", cfg.Output.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COURSES_SAMPLE_COUNT", "7")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sample.Count != 7 {
		t.Fatalf("expected env override, got %d", cfg.Sample.Count)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Sitemap:  SitemapConfig{URL: DefaultSitemapURL},
		Sample:   SampleConfig{Count: 1},
		HTTP:     HTTPConfig{TimeoutSeconds: 10},
		Headless: HeadlessConfig{Mode: HeadlessOff},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing sitemap",
			cfg: func() Config {
				c := base
				c.Sitemap.URL = " "
				return c
			}(),
			want: "sitemap.url",
		},
		{
			name: "invalid count",
			cfg: func() Config {
				c := base
				c.Sample.Count = 0
				return c
			}(),
			want: "sample.count",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "unknown headless mode",
			cfg: func() Config {
				c := base
				c.Headless.Mode = "sometimes"
				return c
			}(),
			want: "headless.mode",
		},
		{
			name: "headless missing timeout",
			cfg: func() Config {
				c := base
				c.Headless.Mode = HeadlessAlways
				return c
			}(),
			want: "headless.nav_timeout_seconds",
		},
		{
			name: "unknown format",
			cfg: func() Config {
				c := base
				c.Output.Format = "ods"
				return c
			}(),
			want: "output.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
