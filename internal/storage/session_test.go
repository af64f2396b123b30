package storage

import (
	"fmt"
	"sync"
	"testing"

	"onboarding_bot/internal/catalog"
	"onboarding_bot/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, prompts ...string) *MemorySessionStore {
	t.Helper()
	if len(prompts) == 0 {
		prompts = []string{"Q1", "Q2", "Q3"}
	}
	c, err := catalog.New(prompts)
	require.NoError(t, err)
	return NewMemorySessionStore(c)
}

func TestBeginCreatesEmptySession(t *testing.T) {
	s := newStore(t)

	session := s.Begin("U1")
	assert.Equal(t, "U1", session.UserID)
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Empty(t, session.Answers)
	assert.False(t, session.Completed)

	got, err := s.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Get("nobody")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRecordAnswerSequence(t *testing.T) {
	s := newStore(t)
	s.Begin("U1")

	for k, text := range []string{"A", "B", "C"} {
		session, err := s.RecordAnswer("U1", text)
		require.NoError(t, err)
		assert.Equal(t, k+1, session.CurrentIndex)
		assert.Len(t, session.Answers, k+1)
		assert.Equal(t, fmt.Sprintf("Q%d", k+1), session.Answers[k].Question)
		assert.Equal(t, text, session.Answers[k].Response)
	}

	session, err := s.Get("U1")
	require.NoError(t, err)
	assert.True(t, session.Completed)

	_, err = s.RecordAnswer("U1", "late")
	assert.ErrorIs(t, err, core.ErrInterviewAlreadyComplete)

	session, err = s.Get("U1")
	require.NoError(t, err)
	assert.Len(t, session.Answers, 3, "late answer must not change state")
}

func TestRecordAnswerWithoutSession(t *testing.T) {
	s := newStore(t)

	_, err := s.RecordAnswer("U1", "hello")
	assert.ErrorIs(t, err, core.ErrNoActiveSession)
	assert.Equal(t, 0, s.Len(), "no session may be created by a rejected answer")
}

func TestRecordAnswerAtRejectsStaleIndex(t *testing.T) {
	s := newStore(t)
	s.Begin("U1")

	_, err := s.RecordAnswerAt("U1", 0, "A")
	require.NoError(t, err)

	_, err = s.RecordAnswerAt("U1", 0, "A again")
	assert.ErrorIs(t, err, core.ErrStaleAnswer)

	_, err = s.RecordAnswerAt("U1", 2, "skip ahead")
	assert.ErrorIs(t, err, core.ErrStaleAnswer)

	session, err := s.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentIndex)
}

func TestBeginResetsProgress(t *testing.T) {
	s := newStore(t)
	s.Begin("U1")
	_, err := s.RecordAnswer("U1", "A")
	require.NoError(t, err)

	session := s.Begin("U1")
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Empty(t, session.Answers)
}

func TestEndIsIdempotent(t *testing.T) {
	s := newStore(t)
	s.Begin("U1")

	s.End("U1")
	s.End("U1")
	s.End("never-existed")

	_, err := s.Get("U1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	s := newStore(t)
	s.Begin("U1")
	session, err := s.RecordAnswer("U1", "A")
	require.NoError(t, err)

	session.Answers[0].Response = "tampered"

	got, err := s.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Answers[0].Response)
}

func TestMarkHandoffAttempt(t *testing.T) {
	s := newStore(t, "Q1")
	_, err := s.MarkHandoffAttempt("U1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	s.Begin("U1")
	session, err := s.MarkHandoffAttempt("U1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.HandoffAttempts)
}

func TestUsersSorted(t *testing.T) {
	s := newStore(t)
	s.Begin("U2")
	s.Begin("U1")
	s.Begin("U3")

	assert.Equal(t, []string{"U1", "U2", "U3"}, s.Users())
	assert.Equal(t, 3, s.Len())
}

func TestConcurrentIndexedAnswersApplyOnce(t *testing.T) {
	s := newStore(t)
	s.Begin("U1")

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.RecordAnswerAt("U1", 0, fmt.Sprintf("answer-%d", i))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, stale int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, core.ErrStaleAnswer):
			stale++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, stale)

	session, err := s.Get("U1")
	require.NoError(t, err)
	assert.Len(t, session.Answers, 1)
}
