package lights

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sink is a write-only, line-oriented output. The arbiter fires values at
// sinks and never looks back; delivery failures are the sink's concern.
type Sink interface {
	WriteInt(v int)
	WriteString(s string)
}

// Discard drops every write. Output groups the device does not have are
// normalized to it so render paths stay branch-free.
var Discard Sink = discard{}

type discard struct{}

func (discard) WriteInt(int)       {}
func (discard) WriteString(string) {}

// Channel groups the LPG attributes of one LED color.
type Channel struct {
	Brightness Sink
	Blink      Sink
	DutyPcts   Sink
	StartIdx   Sink
	PauseLo    Sink
	PauseHi    Sink
	RampStepMs Sink
}

func (ch *Channel) normalize() {
	for _, s := range []*Sink{&ch.Brightness, &ch.Blink, &ch.DutyPcts, &ch.StartIdx, &ch.PauseLo, &ch.PauseHi, &ch.RampStepMs} {
		if *s == nil {
			*s = Discard
		}
	}
}

// writeRamp programs one channel's share of the blink ramp. Writing the duty
// table latches blinking in hardware, so neither the blink flag nor the
// brightness attribute is touched on this path.
func (ch *Channel) writeRamp(value, startIdx, offMs, pauseHi, stepMs int) {
	ch.StartIdx.WriteInt(startIdx)
	ch.DutyPcts.WriteString(scaledDutyPercents(value))
	ch.PauseLo.WriteInt(offMs)
	ch.PauseHi.WriteInt(pauseHi)
	ch.RampStepMs.WriteInt(stepMs)
}

// Outputs collects every hardware sink the controller drives. Nil sinks and
// a zero LCDMax are normalized to Discard and the 255 default.
type Outputs struct {
	LCD      Sink
	LCDMax   int
	Keyboard Sink
	Buttons  []Sink
	Red      Channel
	Green    Channel
	Blue     Channel
}

func (o *Outputs) normalize() {
	if o.LCD == nil {
		o.LCD = Discard
	}
	if o.LCDMax <= 0 {
		o.LCDMax = maxBrightness
	}
	if o.Keyboard == nil {
		o.Keyboard = Discard
	}
	for i, b := range o.Buttons {
		if b == nil {
			o.Buttons[i] = Discard
		}
	}
	o.Red.normalize()
	o.Green.normalize()
	o.Blue.normalize()
}

// Controller is the state arbiter. It retains the last state per logical
// source and re-renders outputs whenever any retained state changes. A
// single mutex serializes every mutation and every sink write, so renders
// never interleave.
type Controller struct {
	mu  sync.Mutex
	out Outputs

	notification State
	attention    State
	battery      State

	lcdOn      bool
	sliderOpen bool
}

// New creates a Controller driving the given outputs. Everything starts
// dark: no source lit, LCD off, slider closed.
func New(out Outputs) *Controller {
	out.normalize()
	return &Controller{out: out}
}

// SupportedTypes returns the types SetLight accepts, in enum order.
func (c *Controller) SupportedTypes() []Type {
	return []Type{TypeBacklight, TypeButtons, TypeBattery, TypeNotifications, TypeAttention}
}

// SetLight applies one light request. Unsupported types return
// ErrNotSupported without touching state or sinks.
func (c *Controller) SetLight(t Type, s State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch t {
	case TypeBacklight:
		c.setBacklightLocked(s)
	case TypeButtons:
		c.setButtonsLocked(s)
	case TypeBattery:
		c.battery = s
		c.renderIndicatorLocked()
	case TypeNotifications:
		s.Color = overrideBrightness(s.Color)
		c.notification = s
		c.renderIndicatorLocked()
	case TypeAttention:
		c.attention = s
		c.renderIndicatorLocked()
	default:
		return ErrNotSupported
	}
	return nil
}

// SliderChanged records the slider position and re-renders the keyboard
// backlight. The shared RGB LED is not touched.
func (c *Controller) SliderChanged(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sliderOpen = open
	c.renderKeyboardLocked()
}

func (c *Controller) setBacklightLocked(s State) {
	// LCD-on gates the keyboard backlight and deliberately tests the full
	// 32-bit color, alpha included.
	c.lcdOn = s.Color != 0

	brightness := luminance(s.Color)
	if c.out.LCDMax != maxBrightness {
		scaled := brightness * c.out.LCDMax / maxBrightness
		log.Trace().Int("from", brightness).Int("to", scaled).Msg("Scaling brightness to panel range")
		brightness = scaled
	}
	c.out.LCD.WriteInt(brightness)

	c.renderKeyboardLocked()
}

func (c *Controller) renderKeyboardLocked() {
	value := 0
	if c.sliderOpen && c.lcdOn {
		value = maxBrightness
	}
	log.Debug().
		Bool("slider_open", c.sliderOpen).
		Bool("lcd_on", c.lcdOn).
		Int("value", value).
		Msg("Keyboard backlight")
	c.out.Keyboard.WriteInt(value)
}

func (c *Controller) setButtonsLocked(s State) {
	brightness := luminance(s.Color)
	for _, button := range c.out.Buttons {
		button.WriteInt(brightness)
	}
}

// renderIndicatorLocked picks the highest-priority lit source for the shared
// RGB LED: notification, then attention, then battery. With nothing lit the
// LED is switched off completely, brightness zeros first, blink flags after,
// so no mode survives the transition.
func (c *Controller) renderIndicatorLocked() {
	switch {
	case c.notification.lit():
		c.renderStateLocked(c.notification)
	case c.attention.lit():
		c.renderStateLocked(c.attention)
	case c.battery.lit():
		c.renderStateLocked(c.battery)
	default:
		c.out.Red.Brightness.WriteInt(0)
		c.out.Green.Brightness.WriteInt(0)
		c.out.Blue.Brightness.WriteInt(0)
		c.out.Red.Blink.WriteInt(0)
		c.out.Green.Blink.WriteInt(0)
		c.out.Blue.Blink.WriteInt(0)
	}
}

func (c *Controller) renderStateLocked(s State) {
	var onMs, offMs int
	if s.Flash == FlashTimed {
		onMs, offMs = int(s.FlashOnMs), int(s.FlashOffMs)
	}

	red, green, blue := s.rgb()

	if onMs > 0 && offMs > 0 {
		stepMs, pauseHi := blinkTiming(onMs)
		log.Debug().
			Uint32("color", s.Color).
			Int("on_ms", onMs).
			Int("off_ms", offMs).
			Int("step_ms", stepMs).
			Int("pause_hi", pauseHi).
			Msg("Blinking indicator")

		c.out.Red.writeRamp(red, redStartIdx, offMs, pauseHi, stepMs)
		c.out.Green.writeRamp(green, greenStartIdx, offMs, pauseHi, stepMs)
		c.out.Blue.writeRamp(blue, blueStartIdx, offMs, pauseHi, stepMs)
		return
	}

	log.Debug().Uint32("color", s.Color).Msg("Steady indicator")
	if red == 0 && green == 0 && blue == 0 {
		c.out.Red.Blink.WriteInt(0)
		c.out.Green.Blink.WriteInt(0)
		c.out.Blue.Blink.WriteInt(0)
	}
	c.out.Red.Brightness.WriteInt(red)
	c.out.Green.Brightness.WriteInt(green)
	c.out.Blue.Brightness.WriteInt(blue)
}
