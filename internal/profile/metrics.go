package profile

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports profiler timings and annotations to Prometheus.
type Metrics struct {
	duration *prometheus.HistogramVec
	groups   *prometheus.CounterVec
	fitted   *prometheus.CounterVec
}

// NewMetrics registers the query metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vcq_query_phase_duration_seconds",
			Help:    "Time spent per query phase",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"group"}),
		groups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vcq_query_phases_total",
			Help: "Number of query phases opened, by group",
		}, []string{"group"}),
		fitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vcq_subqueries_total",
			Help: "Number of executed subqueries by whether the slice alone answers them",
		}, []string{"fitted"}),
	}
}

// Profiler returns a root profiler reporting into m.
func (m *Metrics) Profiler(group string) Profiler {
	m.groups.WithLabelValues(group).Inc()
	return &observed{m: m, group: group}
}

type observed struct {
	m     *Metrics
	group string

	mu      sync.Mutex
	started time.Time
}

func (o *observed) AddNested(group string) Profiler {
	return o.m.Profiler(group)
}

func (o *observed) SetAnnotation(key string, value any) {
	if key != FittedAnnotation {
		return
	}
	if fitted, ok := value.(bool); ok {
		label := "false"
		if fitted {
			label = "true"
		}
		o.m.fitted.WithLabelValues(label).Inc()
	}
}

func (o *observed) StartTimer() {
	o.mu.Lock()
	o.started = time.Now()
	o.mu.Unlock()
}

func (o *observed) StopTimer() {
	o.mu.Lock()
	started := o.started
	o.started = time.Time{}
	o.mu.Unlock()
	if started.IsZero() {
		return
	}
	o.m.duration.WithLabelValues(o.group).Observe(time.Since(started).Seconds())
}
