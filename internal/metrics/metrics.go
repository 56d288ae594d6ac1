// Package metrics holds the daemon's Prometheus collectors, registered on
// the default registry and served by the health endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "glowd"

var (
	// SetLightRequests counts applied light requests per light type.
	SetLightRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lights",
		Name:      "set_light_requests_total",
		Help:      "Light requests applied, by light type.",
	}, []string{"type"})

	// SetLightUnsupported counts rejected requests for unsupported types.
	SetLightUnsupported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lights",
		Name:      "set_light_unsupported_total",
		Help:      "Light requests rejected because the type is not supported.",
	})

	// SliderOpen mirrors the last reported slider position (1 open, 0 closed).
	SliderOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "slider",
		Name:      "open",
		Help:      "Current slider position, 1 when open.",
	})

	// SliderEvents counts slider position reports, including the initial
	// sync after a device connect.
	SliderEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "slider",
		Name:      "events_total",
		Help:      "Slider position reports, including initial sync after connect.",
	})

	// SliderReconnects counts monitor reconnect attempts after failures.
	SliderReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "slider",
		Name:      "reconnects_total",
		Help:      "Input device reconnect attempts after open or read failures.",
	})

	// SysfsWriteErrors counts swallowed write failures per sink.
	SysfsWriteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sysfs",
		Name:      "write_errors_total",
		Help:      "Sysfs attribute write failures, by sink.",
	}, []string{"sink"})

	// LedgerEvents counts rows appended to the transitions ledger.
	LedgerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "events_total",
		Help:      "Events appended to the transitions ledger, by kind.",
	}, []string{"kind"})

	// BusDropped counts bookkeeping events dropped by the event bus.
	BusDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "dropped_total",
		Help:      "Events dropped because the bus queue was full or closing.",
	})
)
