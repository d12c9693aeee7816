package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mixrelay"

// Swap request results.
const (
	ResultOK          = "ok"
	ResultClientError = "client_error"
	ResultServerError = "server_error"
)

// Round results.
const (
	RoundOK     = "ok"
	RoundFailed = "failed"
	RoundPanic  = "panic"
)

// Registry holds all relay metrics.
type Registry struct {
	registry *prometheus.Registry

	SwapRequests  *prometheus.CounterVec
	Rounds        *prometheus.CounterVec
	RoundDuration prometheus.Histogram
	GateWait      *prometheus.HistogramVec
	BuildInfo     *prometheus.GaugeVec
}

// NewRegistry creates a registry with the relay metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		SwapRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "swap_requests_total",
			Help:      "Swap RPC requests by result",
		}, []string{"result"}),

		Rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "executions_total",
			Help:      "Round executions by result",
		}, []string{"result"}),

		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "duration_seconds",
			Help:      "Round execution time",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),

		GateWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "gate_wait_seconds",
			Help:      "Time spent waiting for exclusive engine access",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information, value is always 1",
		}, []string{"version", "commit", "go_version"}),
	}

	r.registry.MustRegister(
		r.SwapRequests,
		r.Rounds,
		r.RoundDuration,
		r.GateWait,
		r.BuildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Registerer exposes the underlying registry for components that register
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for reading values back.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// SetBuildInfo records the running build.
func (r *Registry) SetBuildInfo(version, commit, goVersion string) {
	if r == nil {
		return
	}
	r.BuildInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// ObserveSwap counts one swap request with the given result.
func (r *Registry) ObserveSwap(result string) {
	if r == nil {
		return
	}
	r.SwapRequests.WithLabelValues(result).Inc()
}

// ObserveRound counts one round and records how long it ran.
func (r *Registry) ObserveRound(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.Rounds.WithLabelValues(result).Inc()
	r.RoundDuration.Observe(d.Seconds())
}

// ObserveGateWait records the time op waited for engine access.
// Its signature matches service.WithWaitObserver.
func (r *Registry) ObserveGateWait(op string, d time.Duration) {
	if r == nil {
		return
	}
	r.GateWait.WithLabelValues(op).Observe(d.Seconds())
}
