// Package dbusapi implements the org.glowd.Lights1 D-Bus interface.
package dbusapi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"glowd/internal/lights"
	"glowd/internal/metrics"
)

const (
	// BusName is the well-known bus name to claim.
	BusName = "org.glowd.Lights1"
	// ObjectPath is the lights object path.
	ObjectPath = "/org/glowd/Lights1"
	// InterfaceName is the lights interface name.
	InterfaceName = "org.glowd.Lights1"

	errNotSupported = InterfaceName + ".Error.NotSupported"
)

// ApplyFunc renders a light request. It returns lights.ErrNotSupported
// for types outside the supported set.
type ApplyFunc func(requestID string, t lights.Type, s lights.State) error

// Server exposes light control on the system or session bus.
type Server struct {
	conn *dbus.Conn
	bus  string

	apply     ApplyFunc
	supported func() []lights.Type

	mu      sync.Mutex
	running bool
}

// NewServer creates a Server. bus selects "system" (default) or "session".
func NewServer(bus string, apply ApplyFunc, supported func() []lights.Type) *Server {
	return &Server{
		bus:       bus,
		apply:     apply,
		supported: supported,
	}
}

func connect(bus string) (*dbus.Conn, error) {
	switch bus {
	case "", "system":
		return dbus.SystemBus()
	case "session":
		return dbus.SessionBus()
	default:
		return nil, fmt.Errorf("unknown bus %q", bus)
	}
}

// Start connects to the configured bus and exports the lights service.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := connect(s.bus)
	if err != nil {
		return fmt.Errorf("failed to connect to %s bus: %w", s.bus, err)
	}
	s.conn = conn

	if err := conn.Export(s, ObjectPath, InterfaceName); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    InterfaceName,
				Methods: lightsMethods(),
				Signals: lightsSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	log.Info().
		Str("bus", s.bus).
		Str("interface", InterfaceName).
		Str("path", ObjectPath).
		Msg("D-Bus lights service started")
	return nil
}

// WatchName invokes onLost when the claimed name or the connection is
// lost while the server is running. The bus daemon delivers NameLost
// directly to the owning connection; the signal channel closes when
// the connection itself drops.
func (s *Server) WatchName(onLost func(error)) {
	ch := make(chan *dbus.Signal, 8)
	s.conn.Signal(ch)

	go func() {
		for sig := range ch {
			if sig.Name != "org.freedesktop.DBus.NameLost" || len(sig.Body) != 1 {
				continue
			}
			if name, _ := sig.Body[0].(string); name == BusName && s.isRunning() {
				onLost(fmt.Errorf("lost bus name %s", BusName))
				return
			}
		}
		if s.isRunning() {
			onLost(fmt.Errorf("dbus connection closed"))
		}
	}()
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop releases the bus name. The connection is shared and stays open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			log.Warn().Err(err).Msg("Failed to release bus name")
		}
	}

	log.Info().Msg("D-Bus lights service stopped")
	return nil
}

// SetLight applies a light request.
// D-Bus method: SetLight(suiiii) -> nothing
func (s *Server) SetLight(lightType string, color uint32, flashMode, flashOnMs, flashOffMs, brightnessMode int32) *dbus.Error {
	requestID := uuid.NewString()

	t, err := lights.ParseType(lightType)
	if err != nil {
		metrics.SetLightUnsupported.Inc()
		log.Debug().
			Str("request_id", requestID).
			Str("light_type", lightType).
			Msg("Rejected unknown light type")
		return dbus.NewError(errNotSupported, []interface{}{lightType})
	}

	state := lights.State{
		Color:      color,
		Flash:      lights.Flash(flashMode),
		FlashOnMs:  flashOnMs,
		FlashOffMs: flashOffMs,
		Brightness: lights.BrightnessMode(brightnessMode),
	}

	log.Debug().
		Str("request_id", requestID).
		Str("light_type", t.String()).
		Str("color", fmt.Sprintf("%#08x", color)).
		Msg("SetLight called")

	if err := s.apply(requestID, t, state); err != nil {
		if errors.Is(err, lights.ErrNotSupported) {
			return dbus.NewError(errNotSupported, []interface{}{t.String()})
		}
		return dbus.MakeFailedError(err)
	}
	return nil
}

// GetSupportedTypes returns the canonical names of the supported light types.
// D-Bus method: GetSupportedTypes() -> as
func (s *Server) GetSupportedTypes() ([]string, *dbus.Error) {
	types := s.supported()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return names, nil
}

// lightsMethods returns the D-Bus method introspection data.
func lightsMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "SetLight",
			Args: []introspect.Arg{
				{Name: "light_type", Type: "s", Direction: "in"},
				{Name: "color", Type: "u", Direction: "in"},
				{Name: "flash_mode", Type: "i", Direction: "in"},
				{Name: "flash_on_ms", Type: "i", Direction: "in"},
				{Name: "flash_off_ms", Type: "i", Direction: "in"},
				{Name: "brightness_mode", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "GetSupportedTypes",
			Args: []introspect.Arg{
				{Name: "types", Type: "as", Direction: "out"},
			},
		},
	}
}

// lightsSignals returns the D-Bus signal introspection data.
func lightsSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "LightChanged",
			Args: []introspect.Arg{
				{Name: "light_type", Type: "s"},
				{Name: "color", Type: "u"},
				{Name: "flash_mode", Type: "i"},
			},
		},
		{
			Name: "SliderStateChanged",
			Args: []introspect.Arg{
				{Name: "open", Type: "b"},
			},
		},
	}
}
