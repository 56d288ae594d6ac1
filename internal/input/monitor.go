package input

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"glowd/internal/metrics"
)

const (
	defaultDevicesDir = "/dev/input"
	defaultBackoff    = time.Second
)

// Monitor watches a named input device for lid switch transitions and
// reports the derived slider position (open when the switch reads 0). It
// never gives up: event nodes may not exist at boot and can come and go
// with the driver, so every failure is retried after a fixed backoff with
// the device re-resolved by name.
type Monitor struct {
	DeviceName string
	DevicesDir string
	Backoff    time.Duration
	OnChange   func(open bool)
}

// Run blocks until ctx is cancelled and always returns nil: device failures
// are handled locally and never surfaced.
func (m *Monitor) Run(ctx context.Context) error {
	dir := m.DevicesDir
	if dir == "" {
		dir = defaultDevicesDir
	}
	backoff := m.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		dev, err := OpenByName(dir, m.DeviceName)
		if err != nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("Slider device unavailable, retrying")
			metrics.SliderReconnects.Inc()
			if !sleep(ctx, backoff) {
				return nil
			}
			continue
		}

		log.Info().Str("path", dev.Path()).Str("device", m.DeviceName).Msg("Watching slider device")
		m.reportInitial(dev)

		err = m.consume(ctx, dev)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Dur("backoff", backoff).Msg("Slider device read failed, reconnecting")
		metrics.SliderReconnects.Inc()
		if !sleep(ctx, backoff) {
			return nil
		}
	}
}

// reportInitial syncs with the current switch position so reconnects
// converge on hardware truth instead of waiting for the next transition.
func (m *Monitor) reportInitial(dev *Device) {
	closed, err := dev.SwitchState(swLid)
	if err != nil {
		log.Debug().Err(err).Msg("Cannot query initial lid state")
		return
	}
	m.report(!closed)
}

// consume reads events until the device fails or ctx is cancelled. A
// watcher goroutine closes the device on cancellation, unblocking the
// pending read.
func (m *Monitor) consume(ctx context.Context, dev *Device) error {
	defer dev.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			dev.Close()
		case <-done:
		}
	}()

	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		if ev.Type != evSw || ev.Code != swLid {
			continue
		}
		m.report(ev.Value == 0)
	}
}

func (m *Monitor) report(open bool) {
	log.Debug().Bool("open", open).Msg("Slider changed")
	metrics.SliderEvents.Inc()
	if open {
		metrics.SliderOpen.Set(1)
	} else {
		metrics.SliderOpen.Set(0)
	}
	if m.OnChange != nil {
		m.OnChange(open)
	}
}

// sleep waits for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
