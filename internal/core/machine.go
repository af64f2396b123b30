package core

import (
	"context"
	"fmt"

	"onboarding_bot/internal/catalog"
	"onboarding_bot/src/logger"
	"onboarding_bot/src/model"
)

// Machine advances interviews one answer at a time.
//
// Per member the states are NoSession -> InProgress(0..N-1) -> Completed -> removed.
// Progress is a single monotonic index, so each inbound answer is attributed to
// the next unanswered question. All work for one member (start, submit, retry)
// runs under that member's lock; different members proceed in parallel.
type Machine struct {
	store    SessionStore
	catalog  *catalog.Catalog
	prompter Prompter
	notifier Notifier
	observer Observer
	locks    *keyedMutex
}

// Option customizes a Machine
type Option func(*Machine)

// WithObserver attaches lifecycle hooks
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

// NewMachine wires a state machine to its collaborators
func NewMachine(store SessionStore, c *catalog.Catalog, prompter Prompter, notifier Notifier, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		catalog:  c,
		prompter: prompter,
		notifier: notifier,
		observer: nopObserver{},
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins (or restarts) a member's interview and asks the first question
func (m *Machine) Start(ctx context.Context, userID string) error {
	unlock := m.locks.Lock(userID)
	defer unlock()

	m.store.Begin(userID)
	m.observer.InterviewStarted()

	logger.Info().Str("user_id", userID).Int("questions", m.catalog.Size()).Msg("Interview started")

	if err := m.prompter.SendIntro(ctx, userID, m.catalog.Size()); err != nil {
		return &DeliveryError{Op: "send_intro", UserID: userID, Err: err}
	}
	return m.ask(ctx, userID, 0)
}

// SubmitAnswer records text against the member's current question
func (m *Machine) SubmitAnswer(ctx context.Context, userID, text string) (model.Session, error) {
	return m.submit(ctx, userID, func() (model.Session, error) {
		return m.store.RecordAnswer(userID, text)
	})
}

// SubmitAnswerAt records text only if index is still the member's current question.
// Used by interactive prompts, where a stale or repeated click must not count twice.
func (m *Machine) SubmitAnswerAt(ctx context.Context, userID string, index int, text string) (model.Session, error) {
	return m.submit(ctx, userID, func() (model.Session, error) {
		return m.store.RecordAnswerAt(userID, index, text)
	})
}

// RetryHandoff re-delivers a completed interview whose earlier hand-off failed
func (m *Machine) RetryHandoff(ctx context.Context, userID string) error {
	unlock := m.locks.Lock(userID)
	defer unlock()

	session, err := m.store.Get(userID)
	if err != nil {
		return err
	}
	if !session.Completed {
		return fmt.Errorf("%w: %d of %d answered", ErrNotCompleted, session.CurrentIndex, m.catalog.Size())
	}
	return m.handoff(ctx, session)
}

// Status returns a snapshot of the member's session
func (m *Machine) Status(userID string) (model.Session, error) {
	return m.store.Get(userID)
}

// Size is the number of questions per interview
func (m *Machine) Size() int {
	return m.catalog.Size()
}

func (m *Machine) submit(ctx context.Context, userID string, record func() (model.Session, error)) (model.Session, error) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	session, err := record()
	if err != nil {
		return model.Session{}, err
	}
	m.observer.AnswerRecorded()

	logger.Debug().
		Str("user_id", userID).
		Int("answered", session.CurrentIndex).
		Int("total", m.catalog.Size()).
		Msg("Answer recorded")

	if !session.Completed {
		return session, m.ask(ctx, userID, session.CurrentIndex)
	}

	m.observer.InterviewCompleted()
	logger.Info().Str("user_id", userID).Msg("Interview completed")

	// The member is thanked even when the hand-off below fails; the retry is an admin concern.
	ackErr := m.prompter.SendCompletionAck(ctx, userID)
	if ackErr != nil {
		logger.Warn().Err(ackErr).Str("user_id", userID).Msg("Failed to send completion acknowledgement")
	}

	if err := m.handoff(ctx, session); err != nil {
		return session, err
	}
	if ackErr != nil {
		return session, &DeliveryError{Op: "send_completion_ack", UserID: userID, Err: ackErr}
	}
	return session, nil
}

func (m *Machine) ask(ctx context.Context, userID string, index int) error {
	question, err := m.catalog.Get(index)
	if err != nil {
		return err
	}
	if err := m.prompter.SendQuestion(ctx, userID, question, m.catalog.Size()); err != nil {
		return &DeliveryError{Op: "send_question", UserID: userID, Err: err}
	}
	return nil
}

// handoff must be called with the member's lock held
func (m *Machine) handoff(ctx context.Context, session model.Session) error {
	if marked, err := m.store.MarkHandoffAttempt(session.UserID); err == nil {
		session = marked
	}

	if err := m.notifier.Notify(ctx, session.UserID, session.Answers); err != nil {
		m.observer.HandoffFailed()
		logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Int("attempt", session.HandoffAttempts).
			Msg("Hand-off failed, keeping session for retry")
		return &HandoffError{UserID: session.UserID, Err: err}
	}

	m.store.End(session.UserID)
	m.observer.HandoffSucceeded()
	logger.Info().
		Str("user_id", session.UserID).
		Int("attempt", session.HandoffAttempts).
		Msg("Hand-off delivered, session removed")
	return nil
}
