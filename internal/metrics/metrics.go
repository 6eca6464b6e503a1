// Package metrics counts what a run produced and writes it as a Prometheus
// textfile for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry *prometheus.Registry

	rows             *prometheus.CounterVec
	samples          prometheus.Counter
	artifactsSkipped prometheus.Counter
	stageDuration    *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labgraph_rows_total",
			Help: "Rows written per table.",
		}, []string{"table"}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labgraph_samples_total",
			Help: "Samples processed.",
		}),
		artifactsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labgraph_artifacts_skipped_total",
			Help: "Characterization artifact files that were not loaded.",
		}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "labgraph_stage_duration_seconds",
			Help: "Wall time of the last run of each stage.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.rows, r.samples, r.artifactsSkipped, r.stageDuration)
	return r
}

func (r *Recorder) AddRows(table string, n int) {
	r.rows.WithLabelValues(table).Add(float64(n))
}

func (r *Recorder) SampleDone() {
	r.samples.Inc()
}

func (r *Recorder) ArtifactSkipped() {
	r.artifactsSkipped.Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
