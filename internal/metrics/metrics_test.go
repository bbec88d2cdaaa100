package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/synth-study/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emit(t *testing.T, m *Metrics, eventType events.EventType, payload interface{}) {
	t.Helper()
	event, err := events.NewStudyEvent(eventType, 1, payload)
	require.NoError(t, err)
	require.NoError(t, m.HandleEvent(context.Background(), event))
}

func TestMetricsHandleEvent(t *testing.T) {
	t.Parallel() // Enable parallel execution

	m := New(prometheus.NewRegistry())

	emit(t, m, events.SessionStarted, events.SessionPayload{TotalCards: 2})
	emit(t, m, events.AnswerGraded, events.AnswerPayload{CardID: 1, Score: 0.8, Latency: 2 * time.Second})
	emit(t, m, events.AnswerGraded, events.AnswerPayload{CardID: 2, Score: 0.4, Latency: time.Second})
	emit(t, m, events.AnswerFailed, events.AnswerPayload{CardID: 2, FailureKind: "timeout"})
	emit(t, m, events.AnswerFailed, events.AnswerPayload{CardID: 2})
	emit(t, m, events.CheckpointSaved, events.CheckpointPayload{CurrentCardIndex: 1})
	emit(t, m, events.CheckpointFailed, events.CheckpointPayload{CurrentCardIndex: 2})
	emit(t, m, events.SessionCompleted, events.SessionPayload{TotalCards: 2, CardsCompleted: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersGradedTotal.WithLabelValues("excellent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersGradedTotal.WithLabelValues("fair")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GradingFailuresTotal.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GradingFailuresTotal.WithLabelValues("remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckpointWrites.WithLabelValues("saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckpointWrites.WithLabelValues("failed")))

	var histogram dto.Metric
	require.NoError(t, m.GradingDuration.Write(&histogram))
	assert.Equal(t, uint64(4), histogram.GetHistogram().GetSampleCount())
}

func TestMetricsRegistersOncePerRegistry(t *testing.T) {
	t.Parallel() // Enable parallel execution

	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "duplicate registration should panic")
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

func TestMetricsBadPayload(t *testing.T) {
	t.Parallel() // Enable parallel execution

	m := New(prometheus.NewRegistry())
	err := m.HandleEvent(context.Background(), &events.StudyEvent{
		Type:    events.AnswerGraded,
		Payload: []byte("{"),
	})
	assert.Error(t, err)
}
