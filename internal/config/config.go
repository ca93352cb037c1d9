// Package config loads and validates sampler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Headless modes accepted by headless.mode.
const (
	HeadlessOff    = "off"
	HeadlessAuto   = "auto"
	HeadlessAlways = "always"
)

// DefaultSitemapURL lists every public course page of the catalog.
const DefaultSitemapURL = "https://www.coursera.org/sitemap~www~courses.xml"

// DefaultOutputPath is used when the operator supplies no path.
const DefaultOutputPath = "courses.xlsx"

// Config captures all sampler configuration knobs loaded via Viper.
type Config struct {
	Sitemap  SitemapConfig  `mapstructure:"sitemap"`
	Sample   SampleConfig   `mapstructure:"sample"`
	Output   OutputConfig   `mapstructure:"output"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SitemapConfig points at the catalog index.
type SitemapConfig struct {
	URL string `mapstructure:"url"`
}

// SampleConfig controls how many course pages are drawn.
type SampleConfig struct {
	Count int   `mapstructure:"count"`
	Seed  int64 `mapstructure:"seed"`
}

// OutputConfig selects the spreadsheet destination.
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// HeadlessConfig configures the optional browser renderer.
type HeadlessConfig struct {
	Mode            string `mapstructure:"mode"`
	NavTimeoutSec   int    `mapstructure:"nav_timeout_seconds"`
	PromotionThresh int    `mapstructure:"promotion_threshold"`
}

// ArchiveConfig enables raw page archival.
type ArchiveConfig struct {
	Dir string `mapstructure:"dir"`
}

// MetricsConfig exposes Prometheus metrics while a run is in progress.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"output":   "output.path",
	"format":   "output.format",
	"count":    "sample.count",
	"seed":     "sample.seed",
	"sitemap":  "sitemap.url",
	"headless": "headless.mode",
	"archive":  "archive.dir",
}

// Load builds a Config from defaults, an optional file, the environment, and
// any flags that were explicitly set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COURSES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sitemap.url", DefaultSitemapURL)
	v.SetDefault("sample.count", 20)
	v.SetDefault("sample.seed", 0)
	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.format", "")
	v.SetDefault("http.user_agent", "course-sampler/0.1")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("headless.mode", HeadlessOff)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("archive.dir", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Sitemap.URL) == "" {
		return fmt.Errorf("sitemap.url must be set")
	}
	if c.Sample.Count <= 0 {
		return fmt.Errorf("sample.count must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Headless.Mode {
	case HeadlessOff, HeadlessAuto, HeadlessAlways:
	default:
		return fmt.Errorf("headless.mode must be one of off, auto, always (got %q)", c.Headless.Mode)
	}
	if c.Headless.Mode != HeadlessOff && c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0 when headless is enabled")
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "xlsx", "csv":
	default:
		return fmt.Errorf("output.format must be xlsx or csv (got %q)", c.Output.Format)
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavigationTimeout converts the headless navigation timeout into a duration.
func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
