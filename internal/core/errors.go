package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveSession means an answer arrived for a member with no interview in progress
	ErrNoActiveSession = errors.New("no active interview session")
	// ErrInterviewAlreadyComplete means every question has already been answered
	ErrInterviewAlreadyComplete = errors.New("interview already complete")
	// ErrStaleAnswer means an indexed answer targets a question that is not the current one
	ErrStaleAnswer = errors.New("answer does not match the current question")
	// ErrSessionNotFound is returned by lookups for members without a session
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotCompleted is returned when a hand-off retry targets an unfinished interview
	ErrNotCompleted = errors.New("interview not completed")
)

// DeliveryError is a failed call to the chat platform
type DeliveryError struct {
	Op     string
	UserID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %s for %s: %v", e.Op, e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// HandoffError is a failed delivery of a completed interview to the administrator.
// The session is kept so the hand-off can be retried.
type HandoffError struct {
	UserID string
	Err    error
}

func (e *HandoffError) Error() string {
	return fmt.Sprintf("hand-off failed for %s: %v", e.UserID, e.Err)
}

func (e *HandoffError) Unwrap() error { return e.Err }

// IsDeliveryError reports whether err came from the chat platform
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}

// IsHandoffError reports whether err is a failed hand-off
func IsHandoffError(err error) bool {
	var he *HandoffError
	return errors.As(err, &he)
}
