package dbusapi

import (
	"testing"

	"glowd/internal/lights"
)

func TestSetLightDispatchesToApply(t *testing.T) {
	var gotID string
	var gotType lights.Type
	var gotState lights.State
	s := NewServer("system", func(id string, ty lights.Type, st lights.State) error {
		gotID, gotType, gotState = id, ty, st
		return nil
	}, nil)

	if derr := s.SetLight("notifications", 0x80FF0000, 1, 1000, 500, 0); derr != nil {
		t.Fatalf("SetLight: %v", derr)
	}
	if gotID == "" {
		t.Error("apply did not receive a request id")
	}
	if gotType != lights.TypeNotifications {
		t.Errorf("type = %v, want notifications", gotType)
	}
	if gotState.Color != 0x80FF0000 || gotState.Flash != lights.FlashTimed {
		t.Errorf("state = %+v", gotState)
	}
	if gotState.FlashOnMs != 1000 || gotState.FlashOffMs != 500 {
		t.Errorf("flash timing = %d/%d, want 1000/500", gotState.FlashOnMs, gotState.FlashOffMs)
	}
}

func TestSetLightUnknownTypeRejected(t *testing.T) {
	s := NewServer("system", func(string, lights.Type, lights.State) error {
		t.Error("apply invoked for unknown type")
		return nil
	}, nil)

	derr := s.SetLight("disco", 0xFF0000, 0, 0, 0, 0)
	if derr == nil {
		t.Fatal("SetLight accepted an unknown light type")
	}
	if derr.Name != errNotSupported {
		t.Errorf("error name = %q, want %q", derr.Name, errNotSupported)
	}
}

func TestSetLightUnsupportedFromApply(t *testing.T) {
	s := NewServer("system", func(string, lights.Type, lights.State) error {
		return lights.ErrNotSupported
	}, nil)

	derr := s.SetLight("keyboard", 0, 0, 0, 0, 0)
	if derr == nil || derr.Name != errNotSupported {
		t.Fatalf("error = %v, want %s", derr, errNotSupported)
	}
}

func TestGetSupportedTypes(t *testing.T) {
	s := NewServer("system", nil, func() []lights.Type {
		return []lights.Type{lights.TypeBacklight, lights.TypeButtons}
	})

	names, derr := s.GetSupportedTypes()
	if derr != nil {
		t.Fatal(derr)
	}
	want := []string{"backlight", "buttons"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestConnectRejectsUnknownBus(t *testing.T) {
	if _, err := connect("intergalactic"); err == nil {
		t.Error("connect accepted an unknown bus name")
	}
}
