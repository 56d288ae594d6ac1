// Package lights implements the light state arbiter: it owns the last
// requested state for every logical light, decides which source drives the
// shared RGB LED, and renders states into sysfs-style output sinks.
package lights

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSupported is returned by SetLight for light types this device does
// not expose. The call has no side effects.
var ErrNotSupported = errors.New("light type not supported")

// Type identifies a logical light on the device.
type Type int32

const (
	TypeBacklight Type = iota
	TypeKeyboard
	TypeButtons
	TypeBattery
	TypeNotifications
	TypeAttention
	TypeBluetooth
	TypeWifi
)

var typeNames = map[Type]string{
	TypeBacklight:     "backlight",
	TypeKeyboard:      "keyboard",
	TypeButtons:       "buttons",
	TypeBattery:       "battery",
	TypeNotifications: "notifications",
	TypeAttention:     "attention",
	TypeBluetooth:     "bluetooth",
	TypeWifi:          "wifi",
}

// String returns the canonical lowercase name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int32(t))
}

// ParseType resolves a case-insensitive type name. Unknown names return
// ErrNotSupported, matching the contract for unknown numeric types.
func ParseType(name string) (Type, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == lower {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNotSupported, name)
}

// Flash selects how the LED presents a state.
type Flash int32

const (
	// FlashNone renders a steady color.
	FlashNone Flash = iota
	// FlashTimed blinks with the state's on/off durations.
	FlashTimed
	// FlashHardware requests hardware-driven blinking; this device has no
	// dedicated mode for it and renders a steady color instead.
	FlashHardware
)

// String returns the canonical lowercase name of the flash mode.
func (f Flash) String() string {
	switch f {
	case FlashNone:
		return "none"
	case FlashTimed:
		return "timed"
	case FlashHardware:
		return "hardware"
	default:
		return fmt.Sprintf("flash(%d)", int32(f))
	}
}

// BrightnessMode is carried on every state but not consulted by this device:
// there is no light sensor and no low-persistence panel mode.
type BrightnessMode int32

const (
	BrightnessUser BrightnessMode = iota
	BrightnessSensor
	BrightnessLowPersistence
)

// State is one light request. Values are retained per logical source; the
// arbiter re-renders from retained states whenever any of them changes.
type State struct {
	// Color is 32-bit ARGB. The alpha byte is ignored everywhere except the
	// notification brightness override and the LCD on/off test.
	Color      uint32
	Flash      Flash
	FlashOnMs  int32
	FlashOffMs int32
	Brightness BrightnessMode
}

// lit reports whether the state requests visible RGB output (alpha masked).
func (s State) lit() bool {
	return s.Color&0x00ffffff != 0
}

// rgb splits the masked color into channel values.
func (s State) rgb() (red, green, blue int) {
	return int(s.Color >> 16 & 0xff), int(s.Color >> 8 & 0xff), int(s.Color & 0xff)
}
