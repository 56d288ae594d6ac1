package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"glowd/internal/config"
	"glowd/internal/db"
	"glowd/internal/dbusapi"
	"glowd/internal/eventbus"
	"glowd/internal/health"
	"glowd/internal/ledger"
	"glowd/internal/lights"
	"glowd/internal/sysfs"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger
	Bus    *eventbus.Bus

	// Light pipeline
	Controller *lights.Controller
	Light      *LightService

	// High-level services
	Monitor *MonitorService
	DBus    *DBusService
	Health  *health.Server
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Open the configured output sinks and build the controller
	out, err := buildOutputs(cfg.Lights)
	if err != nil {
		return nil, err
	}
	s.Controller = lights.New(out)

	// Event bus decouples bookkeeping from the render path
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// Ledger storage is optional; an empty path disables it
	if cfg.Database.Path != "" {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.DB = database
		s.Ledger = ledger.New(database.DB)
	} else {
		log.Info().Msg("No database path configured, ledger disabled")
	}

	s.Light = NewLightService(s.Controller, s.Bus)

	s.Monitor = NewMonitorService(cfg, s.Light)

	if cfg.DBus.IsEnabled() {
		s.DBus = NewDBusService(cfg, s.Light, s.Controller)
	} else {
		log.Warn().Msg("D-Bus service is disabled, lights can only react to the slider")
	}

	if cfg.Healthcheck.IsEnabled() {
		addr := fmt.Sprintf("%s:%d", cfg.Healthcheck.Host, cfg.Healthcheck.Port)
		s.Health = health.NewServer(addr, cfg.ShutdownTimeout.Duration())
	}

	return s, nil
}

// Start starts all services in the correct order.
// The onFatalError callback is invoked when a running service fails for good.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Subscribers attach before producers start so no event is missed
	if s.Ledger != nil {
		registerLedgerHandlers(s.Bus, s.Ledger)
		go s.runLedgerCleanup(ctx)
	}

	if s.DBus != nil {
		if err := s.DBus.Start(onFatalError); err != nil {
			return err
		}
		registerSignalHandlers(s.Bus, s.DBus.Server)
	}

	s.Monitor.Start(ctx)

	if s.Health != nil {
		s.Health.Start(ctx)
		s.Health.SetReady(true)
	}

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases resources producers-first: the D-Bus surface stops taking
// requests, the bus drains its queue, then the database closes under it.
func (s *Services) Close() {
	if s.DBus != nil {
		s.DBus.Stop()
	}
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		s.Bus.Close(ctx)
		cancel()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

// buildOutputs opens the configured sysfs sinks. Unset groups stay nil;
// the controller renders them as discards.
func buildOutputs(cfg config.LightsConfig) (lights.Outputs, error) {
	var out lights.Outputs

	if cfg.LCD.Brightness != "" {
		attr, err := sysfs.Open(cfg.LCD.Brightness)
		if err != nil {
			return out, err
		}
		out.LCD = attr
	}
	if cfg.LCD.MaxBrightness != "" {
		max, err := sysfs.ReadInt(cfg.LCD.MaxBrightness)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.LCD.MaxBrightness).Msg("Cannot read panel max brightness, assuming 255")
		} else {
			out.LCDMax = max
		}
	}

	if cfg.Keyboard.Brightness != "" {
		attr, err := sysfs.Open(cfg.Keyboard.Brightness)
		if err != nil {
			return out, err
		}
		out.Keyboard = attr
	}

	for _, path := range cfg.Buttons {
		attr, err := sysfs.Open(path)
		if err != nil {
			return out, err
		}
		out.Buttons = append(out.Buttons, attr)
	}

	var err error
	if out.Red, err = ledChannel(cfg.RGB.Red); err != nil {
		return out, err
	}
	if out.Green, err = ledChannel(cfg.RGB.Green); err != nil {
		return out, err
	}
	if out.Blue, err = ledChannel(cfg.RGB.Blue); err != nil {
		return out, err
	}

	return out, nil
}

// ledChannel opens the LPG attributes of one LED class directory. An
// empty dir yields a zero channel, which normalizes to discards.
func ledChannel(dir string) (lights.Channel, error) {
	if dir == "" {
		return lights.Channel{}, nil
	}
	led, err := sysfs.OpenLED(dir)
	if err != nil {
		return lights.Channel{}, err
	}
	return lights.Channel{
		Brightness: led.Brightness,
		Blink:      led.Blink,
		DutyPcts:   led.DutyPcts,
		StartIdx:   led.StartIdx,
		PauseLo:    led.PauseLo,
		PauseHi:    led.PauseHi,
		RampStepMs: led.RampStepMs,
	}, nil
}

// registerLedgerHandlers records bus events in the ledger.
func registerLedgerHandlers(bus *eventbus.Bus, l *ledger.Ledger) {
	bus.Subscribe(eventbus.EventTypeLight, func(event eventbus.Event) {
		requestID, _ := event.Data["request_id"].(string)
		lightType, _ := event.Data["light_type"].(string)
		color, _ := event.Data["color"].(uint32)
		flash, _ := event.Data["flash"].(string)
		onMs, _ := event.Data["flash_on_ms"].(int32)
		offMs, _ := event.Data["flash_off_ms"].(int32)

		err := l.Append(ledger.Entry{
			RequestID:  requestID,
			Kind:       ledger.KindSetLight,
			LightType:  lightType,
			Color:      color,
			Flash:      flash,
			FlashOnMs:  onMs,
			FlashOffMs: offMs,
		})
		if err != nil {
			log.Error().Err(err).Str("request_id", requestID).Msg("Failed to append light event to ledger")
		}
	})

	bus.Subscribe(eventbus.EventTypeSlider, func(event eventbus.Event) {
		requestID, _ := event.Data["request_id"].(string)
		open, _ := event.Data["open"].(bool)

		err := l.Append(ledger.Entry{
			RequestID:  requestID,
			Kind:       ledger.KindSlider,
			SliderOpen: open,
		})
		if err != nil {
			log.Error().Err(err).Str("request_id", requestID).Msg("Failed to append slider event to ledger")
		}
	})
}

// registerSignalHandlers mirrors bus events as D-Bus signals.
func registerSignalHandlers(bus *eventbus.Bus, server *dbusapi.Server) {
	bus.Subscribe(eventbus.EventTypeLight, func(event eventbus.Event) {
		lightType, _ := event.Data["light_type"].(string)
		color, _ := event.Data["color"].(uint32)
		flashMode, _ := event.Data["flash_mode"].(int32)

		if err := server.EmitLightChanged(lightType, color, flashMode); err != nil {
			log.Warn().Err(err).Msg("Failed to emit LightChanged signal")
		}
	})

	bus.Subscribe(eventbus.EventTypeSlider, func(event eventbus.Event) {
		open, _ := event.Data["open"].(bool)

		if err := server.EmitSliderStateChanged(open); err != nil {
			log.Warn().Err(err).Msg("Failed to emit SliderStateChanged signal")
		}
	})
}

// runLedgerCleanup periodically purges ledger entries past retention.
func (s *Services) runLedgerCleanup(ctx context.Context) {
	retention := s.cfg.Ledger.RetentionPeriod.Duration()
	interval := s.cfg.Ledger.CleanupInterval.Duration()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.Ledger.DeleteOlderThan(retention)
			if err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old ledger entries")
			} else if deleted > 0 {
				log.Info().Int64("deleted", deleted).Dur("retention", retention).Msg("Cleaned up old ledger entries")
			}
		}
	}
}
