package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/marcin-skalski/status-ticker/internal/sources"
)

type Config struct {
	RefreshInterval    time.Duration `yaml:"-"`
	RawRefresh         string        `yaml:"refresh_interval"`
	HTTPTimeout        time.Duration `yaml:"-"`
	RawHTTPTimeout     string        `yaml:"http_timeout"`
	ManualRefreshEvery time.Duration `yaml:"-"`
	RawManualRefresh   string        `yaml:"manual_refresh_min_interval"`
	LogFile            string        `yaml:"log_file"`
	Log                LogConfig     `yaml:"log"`
	Scroll             ScrollConfig  `yaml:"scroll"`
	Bar                BarConfig     `yaml:"bar"`
	Colors             ColorConfig   `yaml:"colors"`
	Sources            SourcesConfig `yaml:"sources"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type ScrollConfig struct {
	TickInterval time.Duration `yaml:"-"`
	RawTick      string        `yaml:"tick_interval"`
	Speed        int           `yaml:"speed" validate:"gte=1"`
	Gap          int           `yaml:"gap" validate:"gte=1"`
}

type BarConfig struct {
	Height       int    `yaml:"height" validate:"gte=8,lte=400"`
	MonitorIndex int    `yaml:"monitor_index" validate:"gte=0"`
	ReserveSpace *bool  `yaml:"reserve_space,omitempty"`
	Separator    string `yaml:"separator"`
}

type ColorConfig struct {
	Background string `yaml:"background" validate:"hexcolor"`
	Foreground string `yaml:"foreground" validate:"hexcolor"`
	OK         string `yaml:"ok" validate:"hexcolor"`
	Degraded   string `yaml:"degraded" validate:"hexcolor"`
	Outage     string `yaml:"outage" validate:"hexcolor"`
	LinkHint   string `yaml:"link_hint" validate:"hexcolor"`
	Status     string `yaml:"status" validate:"hexcolor"`
}

type SourcesConfig struct {
	IsolateFailures *bool        `yaml:"isolate_failures,omitempty"`
	Securly         SourceConfig `yaml:"securly"`
	Cloudflare      SourceConfig `yaml:"cloudflare"`
	GoogleWorkspace GoogleConfig `yaml:"google_workspace"`
	Microsoft       SourceConfig `yaml:"microsoft"`
}

type SourceConfig struct {
	URL  string `yaml:"url" validate:"http_url"`
	Page string `yaml:"page" validate:"http_url"`
}

type GoogleConfig struct {
	SourceConfig `yaml:",inline"`
	Watch        []string `yaml:"watch"`
}

// Load reads path, applies defaults and validates. A missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func parseInterval(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, raw)
	}
	return d, nil
}

func (c *Config) setDefaults() error {
	var err error

	if c.RawRefresh == "" {
		c.RawRefresh = "60s"
	}
	if c.RefreshInterval, err = parseInterval("refresh_interval", c.RawRefresh); err != nil {
		return err
	}
	if c.RawHTTPTimeout == "" {
		c.RawHTTPTimeout = "12s"
	}
	if c.HTTPTimeout, err = parseInterval("http_timeout", c.RawHTTPTimeout); err != nil {
		return err
	}
	if c.RawManualRefresh == "" {
		c.RawManualRefresh = "5s"
	}
	if c.ManualRefreshEvery, err = parseInterval("manual_refresh_min_interval", c.RawManualRefresh); err != nil {
		return err
	}

	if c.LogFile == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.LogFile = filepath.Join(dir, "status-ticker", "status-ticker.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Scroll.RawTick == "" {
		c.Scroll.RawTick = "10ms"
	}
	if c.Scroll.TickInterval, err = parseInterval("scroll.tick_interval", c.Scroll.RawTick); err != nil {
		return err
	}
	if c.Scroll.Speed == 0 {
		c.Scroll.Speed = 1
	}
	if c.Scroll.Gap == 0 {
		c.Scroll.Gap = 1
	}

	if c.Bar.Height == 0 {
		c.Bar.Height = 46
	}
	if c.Bar.ReserveSpace == nil {
		defaultTrue := true
		c.Bar.ReserveSpace = &defaultTrue
	}
	if c.Bar.Separator == "" {
		c.Bar.Separator = "   |   "
	}

	setColor(&c.Colors.Background, "#111111")
	setColor(&c.Colors.Foreground, "#ffffff")
	setColor(&c.Colors.OK, "#e6e6e6")
	setColor(&c.Colors.Degraded, "#ffd24d")
	setColor(&c.Colors.Outage, "#ff4d4d")
	setColor(&c.Colors.LinkHint, "#7aa7ff")
	setColor(&c.Colors.Status, "#aaaaaa")

	if c.Sources.IsolateFailures == nil {
		defaultTrue := true
		c.Sources.IsolateFailures = &defaultTrue
	}
	c.Sources.Securly.setDefaults(sources.SecurlyRSSURL, sources.SecurlyStatusPage)
	c.Sources.Cloudflare.setDefaults(sources.CloudflareSummaryURL, sources.CloudflareStatusPage)
	c.Sources.GoogleWorkspace.setDefaults(sources.GoogleAtomURL, sources.GoogleStatusPage)
	c.Sources.Microsoft.setDefaults(sources.MicrosoftStatusPage, sources.MicrosoftStatusPage)

	return nil
}

func setColor(field *string, def string) {
	if *field == "" {
		*field = def
	}
}

func (s *SourceConfig) setDefaults(url, page string) {
	if s.URL == "" {
		s.URL = url
	}
	if s.Page == "" {
		s.Page = page
	}
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q constraint (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Scroll.TickInterval >= c.RefreshInterval {
		return fmt.Errorf("scroll.tick_interval (%s) must be shorter than refresh_interval (%s)", c.Scroll.TickInterval, c.RefreshInterval)
	}
	if c.HTTPTimeout > c.RefreshInterval {
		return fmt.Errorf("http_timeout (%s) must not exceed refresh_interval (%s)", c.HTTPTimeout, c.RefreshInterval)
	}
	return nil
}

// URLs maps the source section onto the fetchers' endpoints.
func (c *Config) URLs() sources.URLs {
	return sources.URLs{
		SecurlyFeed:       c.Sources.Securly.URL,
		SecurlyPage:       c.Sources.Securly.Page,
		CloudflareSummary: c.Sources.Cloudflare.URL,
		CloudflarePage:    c.Sources.Cloudflare.Page,
		GoogleFeed:        c.Sources.GoogleWorkspace.URL,
		GooglePage:        c.Sources.GoogleWorkspace.Page,
		MicrosoftURL:      c.Sources.Microsoft.URL,
		MicrosoftPage:     c.Sources.Microsoft.Page,
	}
}
