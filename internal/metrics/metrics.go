// Package metrics exposes daemon activity as Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warpdl/warplock/common"
)

const namespace = "warplock"

// Collectors records timer engine activity. It implements engine.Observer.
type Collectors struct {
	armed     *prometheus.CounterVec
	cancelled *prometheus.CounterVec
	fired     *prometheus.CounterVec
	lateness  *prometheus.HistogramVec
	locks     *prometheus.CounterVec
	lockTime  prometheus.Histogram
	requests  *prometheus.CounterVec
}

// New creates unregistered collectors.
func New() *Collectors {
	return &Collectors{
		armed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "armed_total",
			Help:      "Number of timers armed.",
		}, []string{"mode"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "cancelled_total",
			Help:      "Number of timers stopped before firing.",
		}, []string{"mode"}),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "fired_total",
			Help:      "Number of timers that reached their target.",
		}, []string{"mode"}),
		lateness: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "lateness_seconds",
			Help:      "Delay between a timer's target and its firing.",
			Buckets:   []float64{.01, .05, .1, .25, 1, 5, 60, 3600},
		}, []string{"mode"}),
		locks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "attempts_total",
			Help:      "Number of screen lock attempts by outcome.",
		}, []string{"result"}),
		lockTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "duration_seconds",
			Help:      "Time taken by the lock invoker.",
			Buckets:   prometheus.DefBuckets,
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Number of requests handled by method and transport.",
		}, []string{"method", "transport"}),
	}
}

// Register registers every collector with r. Collectors that are already
// registered are kept.
func (c *Collectors) Register(r prometheus.Registerer, extra ...prometheus.Collector) error {
	cs := append([]prometheus.Collector{c.armed, c.cancelled, c.fired, c.lateness, c.locks, c.lockTime, c.requests}, extra...)
	for _, col := range cs {
		if err := r.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Collectors) TimerArmed(mode common.Mode) {
	c.armed.WithLabelValues(string(mode)).Inc()
}

func (c *Collectors) TimerCancelled(mode common.Mode) {
	c.cancelled.WithLabelValues(string(mode)).Inc()
}

func (c *Collectors) TimerFired(mode common.Mode, late time.Duration) {
	c.fired.WithLabelValues(string(mode)).Inc()
	c.lateness.WithLabelValues(string(mode)).Observe(late.Seconds())
}

func (c *Collectors) LockAttempted(success bool, took time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	c.locks.WithLabelValues(result).Inc()
	c.lockTime.Observe(took.Seconds())
}

// RequestHandled counts one request served over transport.
func (c *Collectors) RequestHandled(method, transport string) {
	c.requests.WithLabelValues(method, transport).Inc()
}

// ActiveTimers returns a gauge reporting count() for each mode.
func ActiveTimers(count func(common.Mode) int) prometheus.Collector {
	return &activeTimers{
		count: count,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "timer", "active"),
			"Number of armed timers.",
			[]string{"mode"}, nil,
		),
	}
}

type activeTimers struct {
	count func(common.Mode) int
	desc  *prometheus.Desc
}

func (a *activeTimers) Describe(ch chan<- *prometheus.Desc) { ch <- a.desc }

func (a *activeTimers) Collect(ch chan<- prometheus.Metric) {
	for _, m := range common.Modes {
		ch <- prometheus.MustNewConstMetric(a.desc, prometheus.GaugeValue, float64(a.count(m)), string(m))
	}
}

// ConnectedClients returns a gauge reporting n().
func ConnectedClients(n func() int) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connected_clients",
		Help:      "Number of socket connections registered for notifications.",
	}, func() float64 { return float64(n()) })
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
