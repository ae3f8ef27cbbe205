package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "envolve_active_connections",
		Help: "Currently open client connections.",
	})
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envolve_rooms_created_total",
		Help: "Rooms created since start.",
	})
	JoinsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envolve_joins_rejected_total",
		Help: "Join attempts rejected because the room was unknown.",
	})
	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envolve_messages_relayed_total",
		Help: "Application frames forwarded by the relay.",
	})
	ForwardsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envolve_forwards_dropped_total",
		Help: "Frames dropped because the destination was unreachable.",
	})
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
