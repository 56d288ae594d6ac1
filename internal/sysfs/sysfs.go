// Package sysfs writes line-oriented values into kernel sysfs attributes.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"glowd/internal/metrics"
)

// Attr is one writable sysfs attribute. Writes are fire-and-forget: a
// failing attribute is a hardware fault the render path can do nothing
// about, so failures are counted and logged instead of returned.
type Attr struct {
	path  string
	label string
}

// Open validates that the attribute exists and is writable. Validation
// happens once so misconfigured paths fail at startup, not mid-render.
func Open(path string) (*Attr, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open sysfs attribute: %w", err)
	}
	f.Close()
	return &Attr{path: path, label: label(path)}, nil
}

// label keeps the metric cardinality readable: parent dir plus attr name.
func label(path string) string {
	return filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path))
}

// Path returns the attribute path.
func (a *Attr) Path() string { return a.path }

// WriteInt writes a single integer value.
func (a *Attr) WriteInt(v int) { a.write(strconv.Itoa(v)) }

// WriteString writes a single string value, for comma-joined lists.
func (a *Attr) WriteString(s string) { a.write(s) }

func (a *Attr) write(value string) {
	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err == nil {
		_, err = f.WriteString(value + "\n")
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		metrics.SysfsWriteErrors.WithLabelValues(a.label).Inc()
		log.Debug().Err(err).Str("attr", a.path).Str("value", value).Msg("Sysfs write failed")
	}
}

// ReadInt reads a one-line integer attribute such as max_brightness.
func ReadInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sysfs attribute: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse sysfs attribute %s: %w", path, err)
	}
	return v, nil
}

// LED bundles the qcom LPG attributes found under one LED class directory.
type LED struct {
	Brightness *Attr
	Blink      *Attr
	DutyPcts   *Attr
	StartIdx   *Attr
	PauseLo    *Attr
	PauseHi    *Attr
	RampStepMs *Attr
}

// OpenLED opens the seven LPG attributes under dir.
func OpenLED(dir string) (*LED, error) {
	led := &LED{}
	attrs := []struct {
		name string
		dst  **Attr
	}{
		{"brightness", &led.Brightness},
		{"blink", &led.Blink},
		{"duty_pcts", &led.DutyPcts},
		{"start_idx", &led.StartIdx},
		{"pause_lo", &led.PauseLo},
		{"pause_hi", &led.PauseHi},
		{"ramp_step_ms", &led.RampStepMs},
	}
	for _, attr := range attrs {
		a, err := Open(filepath.Join(dir, attr.name))
		if err != nil {
			return nil, fmt.Errorf("led %s: %w", attr.name, err)
		}
		*attr.dst = a
	}
	return led, nil
}
