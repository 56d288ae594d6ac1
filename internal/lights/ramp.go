package lights

import (
	"strconv"
	"strings"
)

// The LPG hardware plays an 8-entry duty table forward and back, so one blink
// ramp spans 16 steps of rampStepMs each. All three channels share a single
// 24-entry table, addressed by disjoint start offsets.
const (
	rampSize      = 8
	rampStepMs    = 50
	maxBrightness = 255
	redStartIdx   = 0
	greenStartIdx = rampSize
	blueStartIdx  = rampSize * 2
)

var brightnessRamp = [rampSize]int{0, 12, 25, 37, 50, 72, 85, 100}

// luminance folds a masked ARGB color into a single 0..255 brightness using
// the 77/150/29 perceptual weights (they sum to 256).
func luminance(color uint32) int {
	color &= 0x00ffffff
	return int((77*(color>>16&0xff) + 150*(color>>8&0xff) + 29*(color&0xff)) >> 8)
}

// scaledDutyPercents renders the ramp for one channel value as the
// comma-joined percentage list the duty_pcts attribute expects.
func scaledDutyPercents(value int) string {
	var b strings.Builder
	for i, pct := range brightnessRamp {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(pct * value / maxBrightness))
	}
	return b.String()
}

// blinkTiming derives the ramp step duration and the post-ramp hold from the
// requested on duration. When the default 800ms ramp does not fit, the step
// shrinks (integer division) and the hold is forced to zero.
func blinkTiming(onMs int) (stepMs, pauseHi int) {
	stepMs = rampStepMs
	pauseHi = onMs - stepMs*rampSize*2
	if stepMs*rampSize*2 > onMs {
		stepMs = onMs / (rampSize * 2)
		pauseHi = 0
	}
	return stepMs, pauseHi
}

// overrideBrightness applies the notification brightness byte packed in the
// color's alpha position. Values strictly between 0 and 255 rescale each
// non-zero channel by brightness/255 with integer truncation; the result has
// a zero alpha byte. 0 and 255 leave the color untouched. The per-channel
// truncation can desaturate mixed colors; callers depend on that exact
// rounding.
func overrideBrightness(color uint32) uint32 {
	brightness := color >> 24 & 0xff
	if brightness == 0 || brightness == maxBrightness {
		return color
	}

	red := color >> 16 & 0xff
	green := color >> 8 & 0xff
	blue := color & 0xff
	if red > 0 {
		red = red * brightness / maxBrightness
	}
	if green > 0 {
		green = green * brightness / maxBrightness
	}
	if blue > 0 {
		blue = blue * brightness / maxBrightness
	}
	return red<<16 | green<<8 | blue
}
