package study_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/events"
	"github.com/phrazzld/synth-study/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeckID int64 = 7

func newController(t *testing.T, b study.Backend, opts ...study.Option) *study.Controller {
	t.Helper()
	opts = append([]study.Option{study.WithLogger(discardLogger())}, opts...)
	return study.New(b, testDeckID, opts...)
}

func TestNewPanicsOnNilBackend(t *testing.T) {
	t.Parallel() // Enable parallel execution

	assert.Panics(t, func() { study.New(nil, testDeckID) })
}

func TestTwoCardSessionEndToEnd(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(2)...)
	b.SubmitAnswerFn = scoring(0.9, 0.3)
	rec, emitter := newEventRecorder()
	c := newController(t, b, study.WithEmitter(emitter))
	ctx := context.Background()

	assert.Equal(t, study.StateInitializing, c.State())
	require.NoError(t, c.Start(ctx))
	assert.Equal(t, 2, b.Reads(), "Start should issue exactly two reads")

	snap := c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 0, snap.Index)
	require.NotNil(t, snap.Card)
	assert.Equal(t, "Question A", snap.Card.Question)
	assert.Empty(t, snap.Card.Answer, "reference answer must be hidden while answering")
	assert.InDelta(t, 50.0, snap.Percent, 0.001)

	result, err := c.Submit(ctx, "  first answer  ")
	require.NoError(t, err)
	assert.Equal(t, 0.9, result.Score)
	assert.Equal(t, []string{"  first answer  "}, b.Submissions(), "answer should be sent as typed")
	assert.Empty(t, b.Checkpoints(), "no checkpoint before advancing")

	snap = c.Snapshot()
	assert.Equal(t, study.StateShowingResult, snap.State)
	assert.Equal(t, "Answer A", snap.Card.Answer)
	require.NotNil(t, snap.LastResult)
	assert.Equal(t, 1, snap.Completed)

	require.NoError(t, c.Advance(ctx))
	snap = c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 1, snap.Index)
	assert.Nil(t, snap.LastResult)
	assert.InDelta(t, 100.0, snap.Percent, 0.001)

	_, err = c.Submit(ctx, "second answer")
	require.NoError(t, err)
	require.NoError(t, c.Advance(ctx))
	assert.Equal(t, study.StateCompleted, c.State())

	want := []domain.CheckpointRequest{
		{CurrentCardIndex: 1, TotalCards: 2, CardsCompleted: 1, IsCompleted: false},
		{CurrentCardIndex: 2, TotalCards: 2, CardsCompleted: 2, IsCompleted: true},
	}
	if diff := cmp.Diff(want, b.Checkpoints()); diff != "" {
		t.Errorf("checkpoints mismatch (-want +got):\n%s", diff)
	}

	summary := c.Summary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Graded)
	assert.InDelta(t, 0.6, summary.AverageScore, 1e-9)
	assert.Equal(t, 1, summary.CorrectCount)
	assert.Equal(t, 60, summary.AveragePercent())

	assert.Equal(t, []events.EventType{
		events.SessionStarted,
		events.AnswerGraded,
		events.CheckpointSaved,
		events.AnswerGraded,
		events.CheckpointSaved,
		events.SessionCompleted,
	}, rec.Types())
}

func TestStartFetchesCardsAndProgressConcurrently(t *testing.T) {
	t.Parallel() // Enable parallel execution

	cardsEntered := make(chan struct{})
	progressEntered := make(chan struct{})

	// Each read blocks until the other one has been issued, so reads made
	// one after the other time out instead of meeting.
	rendezvous := func(mine, theirs chan struct{}) error {
		close(mine)
		select {
		case <-theirs:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("reads were not issued concurrently")
		}
	}

	b := &mockBackend{
		FetchCardsFn: func(ctx context.Context, deckID int64) ([]domain.Card, error) {
			if err := rendezvous(cardsEntered, progressEntered); err != nil {
				return nil, err
			}
			return testCards(2), nil
		},
		FetchProgressFn: func(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
			if err := rendezvous(progressEntered, cardsEntered); err != nil {
				return nil, err
			}
			return &domain.StudyProgress{CurrentCardIndex: 1, TotalCards: 2, CardsCompleted: 1}, nil
		},
	}
	c := newController(t, b)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 2, b.Reads())

	snap := c.Snapshot()
	assert.Equal(t, study.StateAwaitingResumeDecision, snap.State,
		"both reads should have completed before leaving Initializing")
	require.NotNil(t, snap.Prior)
	assert.Equal(t, 1, snap.Prior.CurrentCardIndex)
}

func TestStartLoadError(t *testing.T) {
	t.Parallel() // Enable parallel execution

	boom := errors.New("backend down")
	b := &mockBackend{
		FetchCardsFn: func(ctx context.Context, deckID int64) ([]domain.Card, error) {
			return nil, boom
		},
	}
	c := newController(t, b)

	err := c.Start(context.Background())
	require.Error(t, err)

	var le *study.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, testDeckID, le.DeckID)
	assert.ErrorIs(t, err, boom)

	snap := c.Snapshot()
	assert.Equal(t, study.StateLoadError, snap.State)
	assert.True(t, snap.State.Terminal())
	assert.Contains(t, snap.Error, "backend down")

	_, err = c.Submit(context.Background(), "anything")
	assert.ErrorIs(t, err, study.ErrWrongState)
}

func TestStartEmptyDeck(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards()
	c := newController(t, b)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, study.StateEmptyDeck, c.State())
	assert.Empty(t, b.Submissions())
	assert.Empty(t, b.Checkpoints())
}

func TestStartProgressFetchFailureTreatedAsAbsent(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(3)...)
	b.FetchProgressFn = func(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
		return nil, errors.New("progress service unavailable")
	}
	c := newController(t, b)

	require.NoError(t, c.Start(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 0, snap.Index)
	assert.Nil(t, snap.Prior)
}

func TestStartIgnoresCompletedCheckpoint(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(3)...)
	b.FetchProgressFn = func(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
		return &domain.StudyProgress{CurrentCardIndex: 3, TotalCards: 3, CardsCompleted: 3, IsCompleted: true}, nil
	}
	c := newController(t, b)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, study.StateAnswering, c.State())
}

func resumableBackend(cards int, index, completed int) *mockBackend {
	b := withCards(testCards(cards)...)
	b.FetchProgressFn = func(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
		return &domain.StudyProgress{
			ID:               99,
			CurrentCardIndex: index,
			TotalCards:       cards,
			CardsCompleted:   completed,
			Deck:             domain.DeckRef{ID: deckID, Name: "Biology"},
		}, nil
	}
	return b
}

func TestResumeSeedsPlaceholders(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := resumableBackend(5, 2, 2)
	b.SubmitAnswerFn = scoring(0.8, 0.4, 0.9)
	c := newController(t, b)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	snap := c.Snapshot()
	assert.Equal(t, study.StateAwaitingResumeDecision, snap.State)
	require.NotNil(t, snap.Prior)
	assert.Equal(t, 2, snap.Prior.CurrentCardIndex)
	assert.InDelta(t, 40.0, snap.Percent, 0.001)

	require.NoError(t, c.Resume(ctx))
	snap = c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 2, snap.Results)
	assert.Equal(t, "Question C", snap.Card.Question)

	for i := 0; i < 3; i++ {
		_, err := c.Submit(ctx, "answer")
		require.NoError(t, err)
		require.NoError(t, c.Advance(ctx))
	}
	assert.Equal(t, study.StateCompleted, c.State())

	checkpoints := b.Checkpoints()
	require.Len(t, checkpoints, 3)
	assert.Equal(t, domain.CheckpointRequest{CurrentCardIndex: 3, TotalCards: 5, CardsCompleted: 3}, checkpoints[0])
	assert.Equal(t,
		domain.CheckpointRequest{CurrentCardIndex: 5, TotalCards: 5, CardsCompleted: 5, IsCompleted: true},
		checkpoints[2])

	results := c.Results()
	require.Len(t, results, 5)
	assert.False(t, results[0].Graded())
	assert.False(t, results[1].Graded())
	assert.True(t, results[2].Graded())

	summary := c.Summary()
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 3, summary.Graded)
	assert.Equal(t, 2, summary.Placeholders)
	assert.InDelta(t, 0.7, summary.AverageScore, 1e-9)
	assert.Equal(t, 2, summary.CorrectCount)
}

func TestResumeClampsOutOfRangeCheckpoint(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := resumableBackend(3, -4, 9)
	c := newController(t, b)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Resume(ctx))

	snap := c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 3, snap.Completed)
	assert.Equal(t, 3, snap.Results)
}

func TestResumePastLastCardCompletes(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := resumableBackend(3, 3, 3)
	c := newController(t, b)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Resume(ctx))

	assert.Equal(t, study.StateCompleted, c.State())
	assert.Equal(t,
		[]domain.CheckpointRequest{{CurrentCardIndex: 3, TotalCards: 3, CardsCompleted: 3, IsCompleted: true}},
		b.Checkpoints())

	summary := c.Summary()
	assert.Equal(t, 3, summary.Placeholders)
	assert.Zero(t, summary.AverageScore)
}

func TestWithResumeSkipsDecision(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := resumableBackend(4, 1, 1)
	rec, emitter := newEventRecorder()
	c := newController(t, b, study.WithResume(true), study.WithEmitter(emitter))

	require.NoError(t, c.Start(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, []events.EventType{events.SessionResumed}, rec.Types())
}

func TestRestart(t *testing.T) {
	t.Parallel() // Enable parallel execution

	tests := []struct {
		name     string
		clearErr error
	}{
		{name: "clear succeeds"},
		{name: "clear fails", clearErr: errors.New("delete failed")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel() // Enable parallel execution

			b := resumableBackend(4, 2, 2)
			b.ClearProgressFn = func(ctx context.Context, deckID int64) error {
				return tc.clearErr
			}
			c := newController(t, b)
			ctx := context.Background()

			require.NoError(t, c.Start(ctx))
			require.NoError(t, c.Restart(ctx))

			assert.Equal(t, 1, b.Clears())
			snap := c.Snapshot()
			assert.Equal(t, study.StateAnswering, snap.State)
			assert.Equal(t, 0, snap.Index)
			assert.Equal(t, 0, snap.Completed)
			assert.Equal(t, 0, snap.Results)
			assert.Nil(t, snap.Prior)
		})
	}
}

func TestResumeAndRestartRequireDecisionState(t *testing.T) {
	t.Parallel() // Enable parallel execution

	c := newController(t, withCards(testCards(2)...))
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	var se *study.StateError
	err := c.Resume(ctx)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "resume", se.Operation)
	assert.Equal(t, study.StateAnswering, se.State)
	assert.ErrorIs(t, c.Restart(ctx), study.ErrWrongState)
	assert.ErrorIs(t, c.Advance(ctx), study.ErrWrongState)
}

func TestSubmitEmptyAnswer(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(1)...)
	c := newController(t, b)
	require.NoError(t, c.Start(context.Background()))

	for _, answer := range []string{"", "   ", "\n\t "} {
		_, err := c.Submit(context.Background(), answer)
		require.Error(t, err)
		assert.True(t, study.IsValidation(err))
		assert.ErrorIs(t, err, study.ErrEmptyAnswer)
	}

	assert.Empty(t, b.Submissions(), "blank answers must not reach the backend")
	assert.Equal(t, study.StateAnswering, c.State())
}

func TestSubmitSendsAnswerAsTyped(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(1)...)
	c := newController(t, b)
	require.NoError(t, c.Start(context.Background()))

	_, err := c.Submit(context.Background(), "  foo\n bar  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"  foo\n bar  "}, b.Submissions())
}

func TestSubmitGradingFailureKeepsCard(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(2)...)
	attempts := 0
	b.SubmitAnswerFn = func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("grader returned 500")
		}
		return &domain.StudySession{ID: 1, Score: 0.75, Confidence: 0.5}, nil
	}
	rec, emitter := newEventRecorder()
	c := newController(t, b, study.WithEmitter(emitter))
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	_, err := c.Submit(ctx, "answer")
	var ge *study.GradingError
	require.ErrorAs(t, err, &ge)
	assert.False(t, ge.Timeout())
	assert.Equal(t, study.FailureRemote, ge.Kind)
	assert.Equal(t, int64(1), ge.CardID)

	snap := c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0, snap.Completed)
	assert.False(t, snap.Submitting)

	result, err := c.Submit(ctx, "answer")
	require.NoError(t, err, "retry on the same card should succeed")
	assert.Equal(t, 0.75, result.Score)
	assert.Equal(t, []events.EventType{events.SessionStarted, events.AnswerFailed, events.AnswerGraded}, rec.Types())
}

func TestSubmitRejectsOutOfRangeScore(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(1)...)
	b.SubmitAnswerFn = func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
		return &domain.StudySession{ID: 1, Score: 1.4}, nil
	}
	c := newController(t, b)
	require.NoError(t, c.Start(context.Background()))

	_, err := c.Submit(context.Background(), "answer")
	var ge *study.GradingError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, domain.ErrScoreOutOfRange)
	assert.Equal(t, study.StateAnswering, c.State())
}

func TestSubmitTimeout(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(1)...)
	b.SubmitAnswerFn = func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := newController(t, b, study.WithGradingTimeout(20*time.Millisecond))
	require.NoError(t, c.Start(context.Background()))

	_, err := c.Submit(context.Background(), "slow answer")
	var ge *study.GradingError
	require.ErrorAs(t, err, &ge)
	assert.True(t, ge.Timeout())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, study.StateAnswering, c.State())
}

func TestSubmitCanceledByCaller(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(1)...)
	b.SubmitAnswerFn = func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := newController(t, b)
	require.NoError(t, c.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Submit(ctx, "answer")
	var ge *study.GradingError
	require.ErrorAs(t, err, &ge)
	assert.False(t, ge.Timeout())
	assert.Equal(t, study.FailureCanceled, ge.Kind)
}

// blockingBackend returns a backend whose SubmitAnswer signals entered and
// waits for release.
func blockingBackend(cards int) (b *mockBackend, entered chan struct{}, release chan struct{}) {
	entered = make(chan struct{}, 1)
	release = make(chan struct{})
	b = withCards(testCards(cards)...)
	b.SubmitAnswerFn = func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
		entered <- struct{}{}
		<-release
		return &domain.StudySession{ID: 1, Score: 0.9, Confidence: 0.9}, nil
	}
	return b, entered, release
}

func TestSubmitWhileInFlight(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b, entered, release := blockingBackend(2)
	c := newController(t, b)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = c.Submit(ctx, "first")
	}()
	<-entered

	assert.True(t, c.Snapshot().Submitting)
	_, err := c.Submit(ctx, "second")
	assert.ErrorIs(t, err, study.ErrSubmissionInFlight)
	assert.ErrorIs(t, c.Advance(ctx), study.ErrOperationInFlight)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, []string{"first"}, b.Submissions())
	assert.Equal(t, study.StateShowingResult, c.State())
}

func TestDiscardDropsPendingResult(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b, entered, release := blockingBackend(2)
	c := newController(t, b)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "answer")
		done <- err
	}()
	<-entered

	c.Discard()
	close(release)

	assert.ErrorIs(t, <-done, study.ErrDiscarded)
	assert.True(t, c.Discarded())

	snap := c.Snapshot()
	assert.Equal(t, study.StateAnswering, snap.State)
	assert.Equal(t, 0, snap.Completed)
	assert.Equal(t, 0, snap.Results)
	assert.Empty(t, b.Checkpoints())

	_, err := c.Submit(ctx, "again")
	assert.ErrorIs(t, err, study.ErrDiscarded)
}

func TestCheckpointFailureDoesNotBlock(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(2)...)
	b.SaveProgressFn = func(ctx context.Context, deckID int64, req domain.CheckpointRequest) (*domain.StudyProgress, error) {
		return nil, errors.New("write refused")
	}
	rec, emitter := newEventRecorder()
	c := newController(t, b, study.WithEmitter(emitter))
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	for i := 0; i < 2; i++ {
		_, err := c.Submit(ctx, "answer")
		require.NoError(t, err)
		require.NoError(t, c.Advance(ctx), "checkpoint failure must not surface")
	}

	assert.Equal(t, study.StateCompleted, c.State())
	assert.Len(t, b.Checkpoints(), 2, "exactly one write per advance")
	assert.Contains(t, rec.Types(), events.CheckpointFailed)
	assert.NotContains(t, rec.Types(), events.CheckpointSaved)
}

func TestResetAfterCompletion(t *testing.T) {
	t.Parallel() // Enable parallel execution

	b := withCards(testCards(1)...)
	c := newController(t, b)
	ctx := context.Background()

	assert.ErrorIs(t, c.Reset(), study.ErrWrongState)

	require.NoError(t, c.Start(ctx))
	_, err := c.Submit(ctx, "answer")
	require.NoError(t, err)
	require.NoError(t, c.Advance(ctx))
	require.Equal(t, study.StateCompleted, c.State())

	require.NoError(t, c.Reset())
	snap := c.Snapshot()
	assert.Equal(t, study.StateInitializing, snap.State)
	assert.Equal(t, 0, snap.Results)
	assert.Zero(t, c.Summary().Total)
	assert.Len(t, b.Checkpoints(), 1, "reset must not touch server progress")
	assert.Equal(t, 0, b.Clears())

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, study.StateAnswering, c.State())
}

func TestStartOnlyFromInitializing(t *testing.T) {
	t.Parallel() // Enable parallel execution

	c := newController(t, withCards(testCards(1)...))
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), study.ErrWrongState)
}

func TestPanickingEventHandlerDoesNotBreakSession(t *testing.T) {
	t.Parallel() // Enable parallel execution

	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(events.HandlerFunc(func(ctx context.Context, e *events.StudyEvent) error {
		panic("handler bug")
	}))
	rec, recorder := newEventRecorder()
	emitter.RegisterHandler(events.HandlerFunc(recorder.EmitEvent))

	b := withCards(testCards(1)...)
	c := newController(t, b, study.WithEmitter(emitter))
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	_, err := c.Submit(ctx, "answer")
	require.NoError(t, err)
	require.NoError(t, c.Advance(ctx))

	assert.Equal(t, study.StateCompleted, c.State())
	assert.Contains(t, rec.Types(), events.SessionCompleted)
}
