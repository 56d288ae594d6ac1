// Package input resolves the slider's input device by name and decodes its
// lid switch events from the kernel evdev stream.
package input

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel input ABI constants. Only the switch event class and the lid code
// matter to the slider monitor.
const (
	evSw  = 0x05
	swLid = 0x00
	swCnt = 0x11
)

// ioctl request pieces from linux/ioctl.h.
const (
	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
	iocRead      = 2
)

// ior encodes a read ioctl request number.
func ior(typ byte, nr, size uintptr) uintptr {
	return iocRead<<iocDirShift | uintptr(typ)<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

func ioctl(fd, req, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg); errno != 0 {
		return errno
	}
	return nil
}

// Event is one kernel input_event record. The timestamp uses the platform
// timeval layout, so the struct decodes verbatim on 32 and 64 bit.
type Event struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Device is an open evdev node.
type Device struct {
	f    *os.File
	path string
}

// OpenByName scans dir for the event node whose driver-reported name
// matches name exactly. Nodes that cannot be opened or queried are skipped:
// during boot the directory fills up gradually.
func OpenByName(dir, name string) (*Device, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan input devices: %w", err)
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		if got, err := deviceName(f); err == nil && got == name {
			return &Device{f: f, path: path}, nil
		}
		f.Close()
	}

	return nil, fmt.Errorf("input device %q not found in %s", name, dir)
}

// deviceName queries the driver-reported device name (EVIOCGNAME).
func deviceName(f *os.File) (string, error) {
	var buf [256]byte
	req := ior('E', 0x06, uintptr(len(buf)-1))
	if err := ioctl(f.Fd(), req, uintptr(unsafe.Pointer(&buf[0]))); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf[:], 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return string(buf[:]), nil
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Close closes the node, unblocking any pending ReadEvent.
func (d *Device) Close() error { return d.f.Close() }

// ReadEvent blocks until one input_event arrives.
func (d *Device) ReadEvent() (Event, error) {
	var ev Event
	err := binary.Read(d.f, binary.NativeEndian, &ev)
	return ev, err
}

// SwitchState reports whether the given switch is currently asserted
// (EVIOCGSW). For the lid switch, asserted means closed.
func (d *Device) SwitchState(code uint) (bool, error) {
	var bits [(swCnt + 7) / 8]byte
	req := ior('E', 0x1b, uintptr(len(bits)))
	if err := ioctl(d.f.Fd(), req, uintptr(unsafe.Pointer(&bits[0]))); err != nil {
		return false, err
	}
	return bits[code/8]&(1<<(code%8)) != 0, nil
}
