package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig         `yaml:"log"`
	DBus            DBusConfig        `yaml:"dbus"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	Database        DatabaseConfig    `yaml:"database"`
	Ledger          LedgerConfig      `yaml:"ledger"`
	EventBus        EventBusConfig    `yaml:"eventbus"`
	Slider          SliderConfig      `yaml:"slider"`
	Lights          LightsConfig      `yaml:"lights"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors *bool  `yaml:"colors"` // Console coloring, on unless set to false
}

// UseColors reports whether console output is colored
func (c *LogConfig) UseColors() bool {
	return c.Colors == nil || *c.Colors
}

// DBusConfig contains D-Bus service settings
type DBusConfig struct {
	Enabled *bool  `yaml:"enabled"` // On unless set to false
	Bus     string `yaml:"bus"`     // "system" or "session"
}

// IsEnabled reports whether the D-Bus service should run
func (c *DBusConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled *bool  `yaml:"enabled"` // On unless set to false
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// IsEnabled reports whether the health check server should run
func (c *HealthcheckConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DatabaseConfig contains database settings. An empty path disables the
// ledger entirely.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains event ledger retention settings
type LedgerConfig struct {
	RetentionPeriod Duration `yaml:"retention_period"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 1)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 256)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 256
	}
	return c.QueueSize
}

// SliderConfig contains keyboard slider monitor settings
type SliderConfig struct {
	DeviceName   string   `yaml:"device_name"`   // evdev device name to resolve (default: gpio-keys)
	DevicesDir   string   `yaml:"devices_dir"`   // Directory scanned for event devices (default: /dev/input)
	RetryBackoff Duration `yaml:"retry_backoff"` // Delay between resolve attempts (default: 1s)
}

// LightsConfig maps output groups to sysfs paths. Every group is
// optional; unset paths leave that output disabled.
type LightsConfig struct {
	LCD      LCDConfig      `yaml:"lcd"`
	Keyboard KeyboardConfig `yaml:"keyboard"`
	Buttons  []string       `yaml:"buttons"`
	RGB      RGBConfig      `yaml:"rgb"`
}

// LCDConfig contains panel backlight paths
type LCDConfig struct {
	Brightness    string `yaml:"brightness"`
	MaxBrightness string `yaml:"max_brightness"`
}

// KeyboardConfig contains keyboard backlight paths
type KeyboardConfig struct {
	Brightness string `yaml:"brightness"`
}

// RGBConfig contains the LED class directories of the indicator channels
type RGBConfig struct {
	Red   string `yaml:"red"`
	Green string `yaml:"green"`
	Blue  string `yaml:"blue"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// D-Bus defaults
	if cfg.DBus.Bus == "" {
		cfg.DBus.Bus = "system"
	}

	// Slider defaults
	if cfg.Slider.DeviceName == "" {
		cfg.Slider.DeviceName = "gpio-keys"
	}
	if cfg.Slider.DevicesDir == "" {
		cfg.Slider.DevicesDir = "/dev/input"
	}
	if cfg.Slider.RetryBackoff == 0 {
		cfg.Slider.RetryBackoff = Duration(1 * time.Second)
	}

	// Ledger defaults
	if cfg.Ledger.RetentionPeriod == 0 {
		cfg.Ledger.RetentionPeriod = Duration(168 * time.Hour)
	}
	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(1 * time.Hour)
	}

	// Healthcheck defaults
	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9931
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "127.0.0.1"
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
