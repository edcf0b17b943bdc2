package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marcin-skalski/status-ticker/internal/sources"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RefreshInterval != 60*time.Second {
		t.Errorf("refresh interval = %s", cfg.RefreshInterval)
	}
	if cfg.HTTPTimeout != 12*time.Second {
		t.Errorf("http timeout = %s", cfg.HTTPTimeout)
	}
	if cfg.Scroll.TickInterval != 10*time.Millisecond || cfg.Scroll.Speed != 1 {
		t.Errorf("scroll = %+v", cfg.Scroll)
	}
	if cfg.Bar.Height != 46 || !*cfg.Bar.ReserveSpace || cfg.Bar.Separator != "   |   " {
		t.Errorf("bar = %+v", cfg.Bar)
	}
	if cfg.Colors.Outage != "#ff4d4d" || cfg.Colors.Background != "#111111" {
		t.Errorf("colors = %+v", cfg.Colors)
	}
	if !*cfg.Sources.IsolateFailures {
		t.Error("isolate_failures should default to true")
	}
	if cfg.URLs().CloudflareSummary != sources.CloudflareSummaryURL {
		t.Errorf("cloudflare url = %s", cfg.URLs().CloudflareSummary)
	}
	if !strings.HasSuffix(cfg.LogFile, "status-ticker.log") {
		t.Errorf("log file = %s", cfg.LogFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
refresh_interval: 2m
scroll:
  tick_interval: 20ms
  speed: 2
bar:
  monitor_index: 1
  reserve_space: false
colors:
  ok: "#00ff00"
sources:
  isolate_failures: false
  google_workspace:
    watch: [Gmail, Google Drive]
  microsoft:
    url: http://localhost:8080/status
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshInterval != 2*time.Minute || cfg.Scroll.Speed != 2 || cfg.Bar.MonitorIndex != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if *cfg.Bar.ReserveSpace || *cfg.Sources.IsolateFailures {
		t.Error("explicit false overridden by default")
	}
	if cfg.Colors.OK != "#00ff00" || cfg.Colors.Degraded != "#ffd24d" {
		t.Errorf("colors = %+v", cfg.Colors)
	}
	if got := cfg.Sources.GoogleWorkspace.Watch; len(got) != 2 || got[1] != "Google Drive" {
		t.Errorf("watch = %v", got)
	}
	urls := cfg.URLs()
	if urls.MicrosoftURL != "http://localhost:8080/status" || urls.MicrosoftPage != sources.MicrosoftStatusPage {
		t.Errorf("microsoft urls = %+v", urls)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "refresh_interval: soon", "refresh_interval"},
		{"negative duration", "http_timeout: -1s", "http_timeout must be positive"},
		{"bad color", "colors:\n  outage: red", "Outage"},
		{"bad level", "log:\n  level: loud", "Level"},
		{"negative monitor", "bar:\n  monitor_index: -1", "MonitorIndex"},
		{"bad url", "sources:\n  cloudflare:\n    url: not-a-url", "Cloudflare.URL"},
		{"tick slower than refresh", "refresh_interval: 1s\nhttp_timeout: 1s\nscroll:\n  tick_interval: 2s", "tick_interval"},
		{"timeout over refresh", "refresh_interval: 5s", "http_timeout"},
		{"bad yaml", "bar: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	example, err := Load(filepath.Join("..", "..", "status-ticker.example.yaml"))
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	defaults, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if example.RefreshInterval != defaults.RefreshInterval || example.Scroll != defaults.Scroll {
		t.Errorf("timing differs: %+v vs %+v", example.Scroll, defaults.Scroll)
	}
	if example.Colors != defaults.Colors {
		t.Errorf("colors differ: %+v vs %+v", example.Colors, defaults.Colors)
	}
	if example.URLs() != defaults.URLs() {
		t.Errorf("urls differ: %+v vs %+v", example.URLs(), defaults.URLs())
	}
}
