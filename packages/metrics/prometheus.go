package metrics

import (
	"strconv"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus exports request counts, durations and errors. It is safe for
// concurrent use.
type Prometheus struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// NewPrometheus creates a collector on the default registerer.
func NewPrometheus() *Prometheus {
	return NewPrometheusWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusWithRegistry creates a collector using the supplied registerer.
func NewPrometheusWithRegistry(registry prometheus.Registerer) *Prometheus {
	return &Prometheus{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hitclient_requests_total",
				Help: "Total number of requests that settled",
			},
			[]string{"method", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hitclient_request_duration_seconds",
				Help:    "Duration of requests in seconds, interceptors included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hitclient_errors_total",
				Help: "Total number of failed requests by error code",
			},
			[]string{"method", "code"},
		),
	}
}

// Install registers the collector's interceptors on c. Request interceptors
// installed earlier run after the start stamp and count toward the duration.
func (p *Prometheus) Install(c *client.Client) {
	c.Interceptors.Request.Use(stampStart, nil)
	c.Interceptors.Response.Use(observe(p.record))
}

func (p *Prometheus) record(o outcome) {
	status := "none"
	if o.status > 0 {
		status = strconv.Itoa(o.status)
	}

	p.requestsTotal.WithLabelValues(o.method, status).Inc()
	p.requestDuration.WithLabelValues(o.method, status).Observe(o.duration.Seconds())
	if o.err != nil {
		p.errorsTotal.WithLabelValues(o.method, o.code).Inc()
	}
}
