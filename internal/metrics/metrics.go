// Package metrics exposes prometheus instrumentation for contact filtering.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/chatguard/internal/model"
)

// Stage names which part of the pipeline produced a verdict.
type Stage string

const (
	StageBypass   Stage = "bypass"
	StageEmpty    Stage = "empty"
	StageScanner  Stage = "scanner"
	StageAnalyzer Stage = "analyzer"
)

// Recorder holds the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	evaluations *prometheus.CounterVec
	patternHits *prometheus.CounterVec
	riskScore   prometheus.Histogram
	latency     prometheus.Histogram
	buffers     prometheus.Gauge
	reloads     *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		// evaluations counts verdicts by outcome and deciding stage
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatguard_evaluations_total",
				Help: "Message evaluations by outcome and deciding stage",
			},
			[]string{"outcome", "stage"},
		),
		patternHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatguard_pattern_hits_total",
				Help: "Triggered detection signals by tag",
			},
			[]string{"tag"},
		),
		riskScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatguard_risk_score",
				Help:    "Distribution of risk scores",
				Buckets: []float64{0, 15, 25, 40, 60, 80, 100, 150},
			},
		),
		latency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatguard_evaluation_seconds",
				Help:    "Evaluation latency in seconds",
				Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
			},
		),
		buffers: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "chatguard_buffers",
				Help: "Conversation buffers currently held",
			},
		),
		reloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatguard_config_reloads_total",
				Help: "Reason wording reloads by result",
			},
			[]string{"result"},
		),
	}
}

// Observe records one verdict.
func (r *Recorder) Observe(res model.FilterResult, stage Stage, took time.Duration) {
	if r == nil {
		return
	}
	outcome := "allowed"
	if res.IsBlocked {
		outcome = "blocked"
	}
	r.evaluations.WithLabelValues(outcome, string(stage)).Inc()
	for _, p := range res.Patterns {
		r.patternHits.WithLabelValues(string(p)).Inc()
	}
	if stage != StageBypass && stage != StageEmpty {
		r.riskScore.Observe(float64(res.RiskScore))
	}
	r.latency.Observe(took.Seconds())
}

// SetBuffers reports the current buffer count.
func (r *Recorder) SetBuffers(n int) {
	if r == nil {
		return
	}
	r.buffers.Set(float64(n))
}

// ObserveReload counts one hot-reload attempt.
func (r *Recorder) ObserveReload(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.reloads.WithLabelValues(result).Inc()
}
