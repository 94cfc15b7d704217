package observability

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec

	mutations *CounterVec

	wsConnections *Gauge
	wsAccepted    *Counter
	wsPruned      *Counter
	wsDropped     *Counter
	notifications *CounterVec

	busReceived *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process-wide metrics, or nil when metrics are off.
// Every method on *Metrics is nil-safe.
func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("signage_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"signage_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		),
		mutations:     NewCounterVec("signage_mutations_total", "Coordinator mutations by operation/outcome.", []string{"op", "outcome"}),
		wsConnections: NewGauge("signage_ws_connections", "Currently registered display connections."),
		wsAccepted:    NewCounter("signage_ws_accepted_total", "Display connections accepted."),
		wsPruned:      NewCounter("signage_ws_pruned_total", "Connections removed by the heartbeat for missing liveness."),
		wsDropped:     NewCounter("signage_ws_dropped_total", "Messages dropped because a connection queue was full."),
		notifications: NewCounterVec("signage_notifications_total", "Notifications broadcast by type.", []string{"type"}),
		busReceived:   NewCounterVec("signage_bus_messages_total", "Messages received from the pub/sub bus by outcome.", []string{"outcome"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.mutations,
		m.wsConnections,
		m.wsAccepted,
		m.wsPruned,
		m.wsDropped,
		m.notifications,
		m.busReceived,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ObserveMutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.Inc(op, outcome)
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.wsConnections.Set(float64(n))
}

func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.wsAccepted.Inc()
}

func (m *Metrics) IncPruned() {
	if m == nil {
		return
	}
	m.wsPruned.Inc()
}

func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.wsDropped.Inc()
}

func (m *Metrics) IncNotification(kind string) {
	if m == nil {
		return
	}
	m.notifications.Inc(kind)
}

func (m *Metrics) IncBusMessage(outcome string) {
	if m == nil {
		return
	}
	m.busReceived.Inc(outcome)
}
