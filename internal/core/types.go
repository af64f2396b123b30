package core

import (
	"context"

	"onboarding_bot/src/model"
)

// SessionStore owns every interview session, keyed by member id
type SessionStore interface {
	Begin(userID string) model.Session
	Get(userID string) (model.Session, error)
	RecordAnswer(userID, text string) (model.Session, error)
	RecordAnswerAt(userID string, index int, text string) (model.Session, error)
	MarkHandoffAttempt(userID string) (model.Session, error)
	End(userID string)
}

// Prompter renders questionnaire messages into a member's direct channel
type Prompter interface {
	SendIntro(ctx context.Context, userID string, total int) error
	SendQuestion(ctx context.Context, userID string, question model.Question, total int) error
	SendCompletionAck(ctx context.Context, userID string) error
}

// Notifier delivers a completed interview to the administrator
type Notifier interface {
	Notify(ctx context.Context, userID string, answers []model.Answer) error
}

// Observer receives lifecycle events, typically for metrics
type Observer interface {
	InterviewStarted()
	AnswerRecorded()
	InterviewCompleted()
	HandoffSucceeded()
	HandoffFailed()
}

type nopObserver struct{}

func (nopObserver) InterviewStarted()   {}
func (nopObserver) AnswerRecorded()     {}
func (nopObserver) InterviewCompleted() {}
func (nopObserver) HandoffSucceeded()   {}
func (nopObserver) HandoffFailed()      {}
