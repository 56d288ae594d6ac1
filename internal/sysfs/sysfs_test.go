package sysfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"glowd/internal/metrics"
)

// fakeAttr creates a writable attribute file the way LED class drivers
// expose them, rooted in a temp dir.
func fakeAttr(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestOpenMissingAttr(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "brightness")); err == nil {
		t.Fatal("Open succeeded on a missing attribute")
	}
}

func TestWriteInt(t *testing.T) {
	dir := t.TempDir()
	path := fakeAttr(t, dir, "brightness", "")

	attr, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	attr.WriteInt(128)
	if got := readBack(t, path); got != "128\n" {
		t.Errorf("attribute content = %q, want %q", got, "128\n")
	}

	// Every write replaces the previous value.
	attr.WriteInt(7)
	if got := readBack(t, path); got != "7\n" {
		t.Errorf("attribute content = %q, want %q", got, "7\n")
	}
}

func TestWriteString(t *testing.T) {
	dir := t.TempDir()
	path := fakeAttr(t, dir, "duty_pcts", "")

	attr, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	attr.WriteString("0,12,25,37,50,72,85,100")
	if got := readBack(t, path); got != "0,12,25,37,50,72,85,100\n" {
		t.Errorf("attribute content = %q, want %q", got, "0,12,25,37,50,72,85,100\n")
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	path := fakeAttr(t, dir, "brightness", "")

	attr, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	// Pull the attribute out from under the sink; the write must neither
	// return an error nor recreate the file, only count the failure.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	counter := metrics.SysfsWriteErrors.WithLabelValues(label(path))
	before := testutil.ToFloat64(counter)
	attr.WriteInt(1)
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("write error counter = %v, want %v", got, before+1)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("failed write recreated the attribute: %v", err)
	}
}

func TestReadInt(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"plain", "4095\n", 4095, false},
		{"padded", "  255 \n", 255, false},
		{"garbage", "bright\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := fakeAttr(t, dir, "max_brightness_"+tt.name, tt.content)
			got, err := ReadInt(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ReadInt(%q) succeeded with %d", tt.content, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ReadInt(%q) = %d, want %d", tt.content, got, tt.want)
			}
		})
	}

	if _, err := ReadInt(filepath.Join(dir, "nope")); err == nil {
		t.Error("ReadInt succeeded on a missing attribute")
	}
}

func TestOpenLED(t *testing.T) {
	dir := t.TempDir()
	names := []string{"brightness", "blink", "duty_pcts", "start_idx", "pause_lo", "pause_hi", "ramp_step_ms"}
	for _, name := range names {
		fakeAttr(t, dir, name, "0\n")
	}

	led, err := OpenLED(dir)
	if err != nil {
		t.Fatal(err)
	}

	led.Brightness.WriteInt(255)
	if got := readBack(t, filepath.Join(dir, "brightness")); got != "255\n" {
		t.Errorf("brightness = %q, want %q", got, "255\n")
	}

	// A directory missing any LPG attribute is rejected at open time.
	incomplete := t.TempDir()
	fakeAttr(t, incomplete, "brightness", "0\n")
	if _, err := OpenLED(incomplete); err == nil {
		t.Error("OpenLED succeeded on an incomplete LED directory")
	}
}
