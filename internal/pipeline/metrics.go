package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes stage counters on a private registry the CLI can
// optionally serve over /metrics (ambient observability, not a spec.md
// feature — carried the way brawer-wikidata-qrank's webserver commands
// expose their own registry).
type Metrics struct {
	Registry *prometheus.Registry

	TilesProcessed   *prometheus.CounterVec
	AlgorithmicFails *prometheus.CounterVec
	HistogramBins    prometheus.Counter
	StageSeconds     *prometheus.HistogramVec
}

// NewMetrics builds and registers the pipeline's metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		TilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "tiles_processed_total",
			Help:      "Tiles processed, by stage.",
		}, []string{"stage"}),
		AlgorithmicFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "algorithmic_rejects_total",
			Help:      "Tiles or stages rejected for algorithmic reasons, by stage.",
		}, []string{"stage"}),
		HistogramBins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodmap",
			Name:      "histogram_bins_evaluated_total",
			Help:      "Total Kittler-Illingworth candidate bins evaluated across all tiles.",
		}),
		StageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodmap",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each orchestrator stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}

	reg.MustRegister(m.TilesProcessed, m.AlgorithmicFails, m.HistogramBins, m.StageSeconds)
	return m
}
