package explore

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes live exploration counters as Prometheus gauges, for the
// reference CLI's optional metrics endpoint (spec's domain stack: "Metrics —
// Exploration counters… as live gauges").
type Metrics struct {
	explored        prometheus.Gauge
	exploredBlocked prometheus.Gauge
	duplicates      prometheus.Gauge
	errorsFound     prometheus.Gauge
}

// NewMetrics registers a fresh set of gauges on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		explored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gmc", Subsystem: "explore", Name: "executions_explored",
			Help: "Fully-explored, error-free, non-blocked executions.",
		}),
		exploredBlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gmc", Subsystem: "explore", Name: "executions_blocked",
			Help: "Executions that quiesced with a thread still blocked.",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gmc", Subsystem: "explore", Name: "revisits_deduplicated",
			Help: "Backward revisits suppressed as already-explored duplicates.",
		}),
		errorsFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gmc", Subsystem: "explore", Name: "errors_found",
			Help: "Verification errors found across the run so far.",
		}),
	}
	reg.MustRegister(m.explored, m.exploredBlocked, m.duplicates, m.errorsFound)
	return m
}

// Sample pushes r's current counters into the gauges.
func (m *Metrics) Sample(r *Result) {
	m.explored.Set(float64(r.Explored()))
	m.exploredBlocked.Set(float64(r.ExploredBlocked()))
	m.duplicates.Set(float64(r.Duplicates()))
	m.errorsFound.Set(float64(len(r.Errors())))
}
