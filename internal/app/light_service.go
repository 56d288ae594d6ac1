package app

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"glowd/internal/eventbus"
	"glowd/internal/lights"
	"glowd/internal/metrics"
)

// LightService applies light requests to the controller and fans out
// bookkeeping events on the bus.
type LightService struct {
	controller *lights.Controller
	bus        *eventbus.Bus
}

// NewLightService creates a new LightService.
func NewLightService(controller *lights.Controller, bus *eventbus.Bus) *LightService {
	return &LightService{
		controller: controller,
		bus:        bus,
	}
}

// Apply renders a light request under its request ID.
func (s *LightService) Apply(requestID string, t lights.Type, state lights.State) error {
	metrics.SetLightRequests.WithLabelValues(t.String()).Inc()

	if err := s.controller.SetLight(t, state); err != nil {
		if errors.Is(err, lights.ErrNotSupported) {
			metrics.SetLightUnsupported.Inc()
		}
		log.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("light_type", t.String()).
			Msg("Light request rejected")
		return err
	}

	log.Info().
		Str("request_id", requestID).
		Str("light_type", t.String()).
		Str("color", fmt.Sprintf("%#08x", state.Color)).
		Str("flash", state.Flash.String()).
		Msg("Light request applied")

	s.bus.Publish(eventbus.Event{
		Type: eventbus.EventTypeLight,
		Data: map[string]interface{}{
			"request_id":   requestID,
			"light_type":   t.String(),
			"color":        state.Color,
			"flash":        state.Flash.String(),
			"flash_mode":   int32(state.Flash),
			"flash_on_ms":  state.FlashOnMs,
			"flash_off_ms": state.FlashOffMs,
		},
	})
	return nil
}

// HandleSlider propagates a slider transition to the controller.
func (s *LightService) HandleSlider(open bool) {
	s.controller.SliderChanged(open)

	s.bus.Publish(eventbus.Event{
		Type: eventbus.EventTypeSlider,
		Data: map[string]interface{}{
			"request_id": uuid.NewString(),
			"open":       open,
		},
	})
}
