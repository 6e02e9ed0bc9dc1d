package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	PersonsCreated  prometheus.Counter
	PersonsDeleted  prometheus.Counter
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates and registers the application metrics on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PersonsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadastro_persons_created_total",
			Help: "Total number of persons registered",
		}),
		PersonsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadastro_persons_deleted_total",
			Help: "Total number of persons removed",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cadastro_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
}

// IncrementPersonsCreated increments the persons created counter by 1
func (m *Metrics) IncrementPersonsCreated() {
	m.PersonsCreated.Inc()
}

func (m *Metrics) IncrementPersonsDeleted() {
	m.PersonsDeleted.Inc()
}

// ObserveRequest records one served request. A zero status means the handler
// never wrote a header, which net/http reports as 200.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
