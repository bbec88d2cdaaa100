// Package metrics exposes Prometheus instrumentation for study sessions.
package metrics

import (
	"context"
	"fmt"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for study sessions.
//
// All metrics are prefixed with "synth_study_".
//
// Metrics:
//   - synth_study_sessions_total{outcome} - sessions started, resumed, restarted, completed
//   - synth_study_answers_graded_total{band} - graded answers by score band
//   - synth_study_grading_failures_total{kind} - timeout, canceled or remote
//   - synth_study_grading_duration_seconds - latency of the grading call
//   - synth_study_checkpoint_writes_total{result} - saved or failed
type Metrics struct {
	SessionsTotal        *prometheus.CounterVec
	AnswersGradedTotal   *prometheus.CounterVec
	GradingFailuresTotal *prometheus.CounterVec
	GradingDuration      prometheus.Histogram
	CheckpointWrites     *prometheus.CounterVec
}

// New creates the study metrics and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them on promhttp.Handler().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synth_study_sessions_total",
				Help: "Total number of study session lifecycle transitions",
			},
			[]string{"outcome"}, // "started", "resumed", "restarted", "completed"
		),

		AnswersGradedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synth_study_answers_graded_total",
				Help: "Total number of graded answers by score band",
			},
			[]string{"band"},
		),

		GradingFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synth_study_grading_failures_total",
				Help: "Total number of failed grading calls by failure kind",
			},
			[]string{"kind"},
		),

		GradingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name: "synth_study_grading_duration_seconds",
				Help: "Duration of answer grading calls in seconds",
				// Grading is an AI call on the backend and routinely takes several seconds.
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
			},
		),

		CheckpointWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synth_study_checkpoint_writes_total",
				Help: "Total number of progress checkpoint writes by result",
			},
			[]string{"result"}, // "saved" or "failed"
		),
	}
}

// HandleEvent implements events.EventHandler so Metrics can be registered
// directly on the study event emitter.
func (m *Metrics) HandleEvent(_ context.Context, event *events.StudyEvent) error {
	switch event.Type {
	case events.SessionStarted:
		m.SessionsTotal.WithLabelValues("started").Inc()
	case events.SessionResumed:
		m.SessionsTotal.WithLabelValues("resumed").Inc()
	case events.SessionRestarted:
		m.SessionsTotal.WithLabelValues("restarted").Inc()
	case events.SessionCompleted:
		m.SessionsTotal.WithLabelValues("completed").Inc()
	case events.AnswerGraded:
		var p events.AnswerPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decoding %s payload: %w", event.Type, err)
		}
		m.AnswersGradedTotal.WithLabelValues(string(domain.BandForScore(p.Score))).Inc()
		m.GradingDuration.Observe(p.Latency.Seconds())
	case events.AnswerFailed:
		var p events.AnswerPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decoding %s payload: %w", event.Type, err)
		}
		kind := p.FailureKind
		if kind == "" {
			kind = "remote"
		}
		m.GradingFailuresTotal.WithLabelValues(kind).Inc()
		m.GradingDuration.Observe(p.Latency.Seconds())
	case events.CheckpointSaved:
		m.CheckpointWrites.WithLabelValues("saved").Inc()
	case events.CheckpointFailed:
		m.CheckpointWrites.WithLabelValues("failed").Inc()
	}
	return nil
}
