package app

import (
	"github.com/rs/zerolog/log"

	"glowd/internal/config"
	"glowd/internal/dbusapi"
	"glowd/internal/lights"
)

// DBusService exposes the lights API on the bus.
type DBusService struct {
	Server *dbusapi.Server
}

// NewDBusService creates a new DBusService.
func NewDBusService(cfg *config.Config, light *LightService, controller *lights.Controller) *DBusService {
	return &DBusService{
		Server: dbusapi.NewServer(cfg.DBus.Bus, light.Apply, controller.SupportedTypes),
	}
}

// Start claims the bus name and begins watching for its loss. Losing
// the name while running is fatal for the daemon.
func (s *DBusService) Start(onFatal func(error)) error {
	if err := s.Server.Start(); err != nil {
		return err
	}
	s.Server.WatchName(onFatal)
	return nil
}

// Stop releases the bus name.
func (s *DBusService) Stop() {
	if err := s.Server.Stop(); err != nil {
		log.Warn().Err(err).Msg("D-Bus service stop error")
	}
}
