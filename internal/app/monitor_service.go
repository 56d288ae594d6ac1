package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"glowd/internal/config"
	"glowd/internal/input"
)

// MonitorService runs the keyboard slider monitor.
type MonitorService struct {
	monitor *input.Monitor
}

// NewMonitorService creates a new MonitorService feeding the light service.
func NewMonitorService(cfg *config.Config, light *LightService) *MonitorService {
	return &MonitorService{
		monitor: &input.Monitor{
			DeviceName: cfg.Slider.DeviceName,
			DevicesDir: cfg.Slider.DevicesDir,
			Backoff:    cfg.Slider.RetryBackoff.Duration(),
			OnChange:   light.HandleSlider,
		},
	}
}

// Start begins the monitor loop. It runs until ctx is cancelled.
func (s *MonitorService) Start(ctx context.Context) {
	go func() {
		if err := s.monitor.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Slider monitor error")
		}
	}()
}
