// Package metrics exposes Prometheus collectors for the live client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lostfound"

// Frame results.
const (
	FrameAccepted  = "accepted"
	FrameIgnored   = "ignored"
	FrameMalformed = "malformed"
)

// Refresh kinds.
const (
	RefreshReports = "reports"
	RefreshMatches = "matches"
)

var (
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Event-stream frames received, partitioned by decode result.",
		},
		[]string{"result"},
	)

	reconnectsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnect attempts scheduled after a failure.",
		},
	)

	gaveUpTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "gave_up_total",
			Help:      "Times the client stopped retrying after the attempt ceiling.",
		},
	)

	streamState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "state",
			Help:      "Current connection state (0 idle, 1 connecting, 2 open, 3 closed, 4 gave up).",
		},
	)

	highlightsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "board",
			Name:      "highlights_active",
			Help:      "Reports currently flagged as new.",
		},
	)

	refreshRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "board",
			Name:      "refresh_requests_total",
			Help:      "Refresh requests issued to the REST gateway, partitioned by kind.",
		},
		[]string{"kind"},
	)
)

// Register attaches the collectors to reg.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		framesTotal,
		reconnectsScheduled,
		gaveUpTotal,
		streamState,
		highlightsActive,
		refreshRequests,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the collectors registered on reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveFrame counts a received frame.
func ObserveFrame(result string) {
	framesTotal.WithLabelValues(result).Inc()
}

// ObserveReconnectScheduled counts a scheduled retry.
func ObserveReconnectScheduled() {
	reconnectsScheduled.Inc()
}

// ObserveGaveUp counts a terminal give-up.
func ObserveGaveUp() {
	gaveUpTotal.Inc()
}

// SetStreamState records the connection state as its ordinal.
func SetStreamState(state int) {
	streamState.Set(float64(state))
}

// SetHighlightsActive records the highlight set size.
func SetHighlightsActive(n int) {
	highlightsActive.Set(float64(n))
}

// ObserveRefresh counts a refresh request of the given kind.
func ObserveRefresh(kind string) {
	refreshRequests.WithLabelValues(kind).Inc()
}
