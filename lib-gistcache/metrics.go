package gistcache

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestCount    prometheus.Counter
	resolveCounters map[string]prometheus.Counter
	cacheCounters   map[string]prometheus.Counter
	evictionCount   prometheus.Counter
	expireCount     prometheus.Counter
	errorCounters   map[ErrorType]prometheus.Counter
	resolveTime     prometheus.Summary
	upstreamTime    prometheus.Summary
}

func newCounter(namespace, name string, labels prometheus.Labels) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        fmt.Sprintf("%s_count", name),
		ConstLabels: labels,
	})
}

func NewMetrics(namespace string) *Metrics {
	resolves := map[string]prometheus.Counter{}
	for _, source := range []string{"cache", "upstream"} {
		resolves[source] = newCounter(namespace, "resolve", prometheus.Labels{"source": source})
	}

	caches := map[string]prometheus.Counter{}
	for _, result := range []string{"hit", "miss"} {
		caches[result] = newCounter(namespace, "cache", prometheus.Labels{"cache": result})
	}

	errs := map[ErrorType]prometheus.Counter{}
	for _, typ := range []ErrorType{TypeNotFound, TypeRateLimited, TypeUpstreamError, TypeTimeout, TypeTransportError, TypeArgumentError} {
		errs[typ] = newCounter(namespace, "resolve_error", prometheus.Labels{"type": typ.String()})
	}

	return &Metrics{
		requestCount: newCounter(namespace, "received_request", nil),

		resolveCounters: resolves,
		cacheCounters:   caches,

		evictionCount: newCounter(namespace, "cache_eviction", nil),
		expireCount:   newCounter(namespace, "cache_expire", nil),

		errorCounters: errs,

		resolveTime: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "resolve_duration_seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		upstreamTime: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "upstream_duration_seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}

func (m *Metrics) HTTPHandler() (http.Handler, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestCount.Describe(ch)

	for _, c := range m.resolveCounters {
		c.Describe(ch)
	}
	for _, c := range m.cacheCounters {
		c.Describe(ch)
	}

	m.evictionCount.Describe(ch)
	m.expireCount.Describe(ch)

	for _, c := range m.errorCounters {
		c.Describe(ch)
	}

	m.resolveTime.Describe(ch)
	m.upstreamTime.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.requestCount.Collect(ch)

	for _, c := range m.resolveCounters {
		c.Collect(ch)
	}
	for _, c := range m.cacheCounters {
		c.Collect(ch)
	}

	m.evictionCount.Collect(ch)
	m.expireCount.Collect(ch)

	for _, c := range m.errorCounters {
		c.Collect(ch)
	}

	m.resolveTime.Collect(ch)
	m.upstreamTime.Collect(ch)
}

// Start is collector of one request. The returned function reports where the
// response came from.
func (m *Metrics) Start() func(cached bool) {
	m.requestCount.Inc()

	timer := prometheus.NewTimer(m.resolveTime)
	return func(cached bool) {
		timer.ObserveDuration()

		if cached {
			m.resolveCounters["cache"].Inc()
		} else {
			m.resolveCounters["upstream"].Inc()
		}
	}
}

func (m *Metrics) CacheHit() {
	m.cacheCounters["hit"].Inc()
}

func (m *Metrics) CacheMiss() {
	m.cacheCounters["miss"].Inc()
}

func (m *Metrics) Eviction() {
	m.evictionCount.Inc()
}

func (m *Metrics) Expire(count int) {
	m.expireCount.Add(float64(count))
}

func (m *Metrics) UpstreamTime(d time.Duration) {
	m.upstreamTime.Observe(d.Seconds())
}

func (m *Metrics) Error(err error) {
	var e Error
	if errors.As(err, &e) {
		if counter, ok := m.errorCounters[e.Type]; ok {
			counter.Inc()
		}
	}
}
