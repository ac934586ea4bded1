package api

import (
	"strconv"

	"github.com/matt-steen/project-board/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered per server so tests can use their own registry.
//
//   - board_api_requests_total{route,code}
//   - board_api_status_updates_total{status}
//   - board_api_timers_total{action}
type metrics struct {
	requests      *prometheus.CounterVec
	statusUpdates *prometheus.CounterVec
	timers        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "board_api_requests_total",
			Help: "Requests handled, by route and status code.",
		}, []string{"route", "code"}),
		statusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "board_api_status_updates_total",
			Help: "Accepted project status changes, by new status.",
		}, []string{"status"}),
		timers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "board_api_timers_total",
			Help: "Timers started and stopped.",
		}, []string{"action"}),
	}
}

func (m *metrics) observeRequest(route string, code int) {
	if route == "" {
		route = "unmatched"
	}

	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *metrics) observeStatusUpdate(status db.Status) {
	m.statusUpdates.WithLabelValues(status.String()).Inc()
}

func (m *metrics) observeTimer(action string) {
	m.timers.WithLabelValues(action).Inc()
}
