package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"naver-map-bookmarker/models"
)

// Metrics counts row outcomes and selector hits for one run. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Rows            *prometheus.CounterVec
	RowSeconds      prometheus.Histogram
	SelectorHits    *prometheus.CounterVec
	SelectorMisses  *prometheus.CounterVec
	LastRunUnixTime prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Rows: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "naver_bookmarker_rows_total",
			Help: "Total number of processed rows by outcome.",
		}, []string{"status", "stage"}),
		RowSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "naver_bookmarker_row_duration_seconds",
			Help:    "Time spent on a single row, excluding the inter-row delay.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		}),
		SelectorHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "naver_bookmarker_selector_hits_total",
			Help: "Number of times a selector candidate matched.",
		}, []string{"stage", "selector"}),
		SelectorMisses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "naver_bookmarker_selector_misses_total",
			Help: "Number of times a selector candidate timed out.",
		}, []string{"stage", "selector"}),
		LastRunUnixTime: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "naver_bookmarker_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
}

// ObserveRow records one row outcome.
func (m *Metrics) ObserveRow(r *models.RowResult) {
	if m == nil {
		return
	}
	status := "failure"
	if r.OK() {
		status = "success"
	}
	m.Rows.WithLabelValues(status, string(r.Stage)).Inc()
	m.RowSeconds.Observe(r.Duration.Seconds())
}

// ObserveSelector records whether a selector candidate matched.
func (m *Metrics) ObserveSelector(stage models.Stage, selector string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.SelectorHits.WithLabelValues(string(stage), selector).Inc()
		return
	}
	m.SelectorMisses.WithLabelValues(string(stage), selector).Inc()
}

// MarkFinished stamps the end of a run.
func (m *Metrics) MarkFinished() {
	if m == nil {
		return
	}
	m.LastRunUnixTime.SetToCurrentTime()
}

// WriteTextfile dumps everything in g to path in the text exposition format,
// for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
