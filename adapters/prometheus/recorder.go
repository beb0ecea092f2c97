package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-delivery-relay/core"
)

// Recorder implements core.MetricsRecorder on a dedicated registry. Metric
// names it does not know are dropped.
type Recorder struct {
	registry *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry:   registry,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
		labels:     map[string][]string{},
	}

	r.counter(core.MetricProviderRequests, "Outbound provider calls by operation and status class", "operation", "status")
	r.histogram(core.MetricProviderRequestDuration, "Outbound provider call duration", "operation")
	r.counter(core.MetricWebhookEvents, "Webhook callbacks by provider status and outcome", "event_type", "outcome")
	r.counter(core.MetricNotifications, "Notifications created by reconciliation", "title")

	r.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
	r.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	registry.MustRegister(r.httpRequests, r.httpDuration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	vec, ok := r.counters[name]
	if !ok {
		return
	}
	vec.With(r.labelValues(name, tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	vec, ok := r.histograms[name]
	if !ok {
		return
	}
	vec.With(r.labelValues(name, tags)).Observe(value)
}

func (r *Recorder) ObserveHTTP(method string, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (r *Recorder) counter(name string, help string, labels ...string) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: MetricName(name), Help: help}, labels)
	r.registry.MustRegister(vec)
	r.counters[name] = vec
	r.labels[name] = labels
}

func (r *Recorder) histogram(name string, help string, labels ...string) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricName(name),
		Help:    help,
		Buckets: prometheus.DefBuckets,
	}, labels)
	r.registry.MustRegister(vec)
	r.histograms[name] = vec
	r.labels[name] = labels
}

// labelValues fills every declared label so missing tags never panic.
func (r *Recorder) labelValues(name string, tags map[string]string) prometheus.Labels {
	declared := r.labels[name]
	out := make(prometheus.Labels, len(declared))
	for _, label := range declared {
		value := tags[label]
		if value == "" {
			value = "unknown"
		}
		out[label] = value
	}
	return out
}

// MetricName converts a dotted relay metric name to Prometheus form.
func MetricName(name string) string {
	out := []byte(name)
	for i, ch := range out {
		if ch == '.' || ch == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}

var _ core.MetricsRecorder = (*Recorder)(nil)
