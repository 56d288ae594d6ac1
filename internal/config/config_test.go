package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "lights: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if !cfg.Log.UseColors() {
		t.Error("colors should default on")
	}
	if cfg.Log.JSON {
		t.Error("json should default off")
	}
	if !cfg.DBus.IsEnabled() || cfg.DBus.Bus != "system" {
		t.Errorf("dbus defaults = %v/%q", cfg.DBus.IsEnabled(), cfg.DBus.Bus)
	}
	if !cfg.Healthcheck.IsEnabled() {
		t.Error("healthcheck should default on")
	}
	if cfg.Healthcheck.Host != "127.0.0.1" || cfg.Healthcheck.Port != 9931 {
		t.Errorf("healthcheck defaults = %s:%d", cfg.Healthcheck.Host, cfg.Healthcheck.Port)
	}
	if cfg.Database.Path != "" {
		t.Errorf("database path = %q, want empty", cfg.Database.Path)
	}
	if cfg.Ledger.RetentionPeriod.Duration() != 168*time.Hour {
		t.Errorf("retention = %v", cfg.Ledger.RetentionPeriod.Duration())
	}
	if cfg.Ledger.CleanupInterval.Duration() != time.Hour {
		t.Errorf("cleanup interval = %v", cfg.Ledger.CleanupInterval.Duration())
	}
	if cfg.Slider.DeviceName != "gpio-keys" || cfg.Slider.DevicesDir != "/dev/input" {
		t.Errorf("slider defaults = %q %q", cfg.Slider.DeviceName, cfg.Slider.DevicesDir)
	}
	if cfg.Slider.RetryBackoff.Duration() != time.Second {
		t.Errorf("retry backoff = %v", cfg.Slider.RetryBackoff.Duration())
	}
	if cfg.EventBus.GetWorkers() != 1 || cfg.EventBus.GetQueueSize() != 256 {
		t.Errorf("eventbus defaults = %d/%d", cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())
	}
	if cfg.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeout.Duration())
	}
}

func TestLoadFullConfig(t *testing.T) {
	t.Setenv("GLOWD_TEST_DB", "/var/lib/glowd/glowd.db")

	cfg, err := Load(writeConfig(t, `
log: { level: debug, json: true, colors: false }
dbus: { enabled: false, bus: session }
healthcheck: { enabled: false, host: 0.0.0.0, port: 8080 }
database: { path: "${GLOWD_TEST_DB}" }
ledger: { retention_period: 24h, cleanup_interval: 10m }
eventbus: { workers: 2, queue_size: 32 }
slider:
  device_name: lid-switch
  retry_backoff: 250ms
lights:
  lcd:
    brightness: /sys/class/backlight/panel0-backlight/brightness
    max_brightness: /sys/class/backlight/panel0-backlight/max_brightness
  keyboard:
    brightness: /sys/class/leds/keyboard-backlight/brightness
  buttons:
    - /sys/class/leds/button-backlight/brightness
  rgb:
    red: /sys/class/leds/red
    green: /sys/class/leds/green
    blue: /sys/class/leds/blue
shutdown_timeout: 2s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" || !cfg.Log.JSON || cfg.Log.UseColors() {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.DBus.IsEnabled() || cfg.DBus.Bus != "session" {
		t.Errorf("dbus = %+v", cfg.DBus)
	}
	if cfg.Healthcheck.IsEnabled() || cfg.Healthcheck.Port != 8080 {
		t.Errorf("healthcheck = %+v", cfg.Healthcheck)
	}
	if cfg.Database.Path != "/var/lib/glowd/glowd.db" {
		t.Errorf("database path = %q, env expansion failed", cfg.Database.Path)
	}
	if cfg.Ledger.RetentionPeriod.Duration() != 24*time.Hour {
		t.Errorf("retention = %v", cfg.Ledger.RetentionPeriod.Duration())
	}
	if cfg.EventBus.GetWorkers() != 2 || cfg.EventBus.GetQueueSize() != 32 {
		t.Errorf("eventbus = %+v", cfg.EventBus)
	}
	if cfg.Slider.DeviceName != "lid-switch" {
		t.Errorf("slider device = %q", cfg.Slider.DeviceName)
	}
	if cfg.Slider.RetryBackoff.Duration() != 250*time.Millisecond {
		t.Errorf("retry backoff = %v", cfg.Slider.RetryBackoff.Duration())
	}
	if cfg.Lights.RGB.Red != "/sys/class/leds/red" || cfg.Lights.RGB.Blue != "/sys/class/leds/blue" {
		t.Errorf("rgb = %+v", cfg.Lights.RGB)
	}
	if len(cfg.Lights.Buttons) != 1 {
		t.Errorf("buttons = %v", cfg.Lights.Buttons)
	}
	if cfg.ShutdownTimeout.Duration() != 2*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeout.Duration())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GLOWD_SET", "value")
	os.Unsetenv("GLOWD_UNSET")

	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"${GLOWD_SET}", "value"},
		{"${GLOWD_UNSET}", ""},
		{"${GLOWD_UNSET:fallback}", "fallback"},
		{"${GLOWD_SET:fallback}", "value"},
		{"a ${GLOWD_SET} b", "a value b"},
	}
	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := yaml.Unmarshal([]byte(`"1500ms"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Duration() != 1500*time.Millisecond {
		t.Errorf("duration = %v, want 1.5s", d.Duration())
	}

	if err := yaml.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("unmarshal accepted a malformed duration")
	}
}
