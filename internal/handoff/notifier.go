// Package handoff delivers completed interviews to the administrator.
package handoff

import (
	"context"
	"fmt"
	"time"

	"onboarding_bot/internal/core"
	"onboarding_bot/src/logger"
	"onboarding_bot/src/model"

	"github.com/slack-go/slack"
)

// Messenger is the part of the gateway the hand-off needs
type Messenger interface {
	SendDM(ctx context.Context, userID, fallback string, blocks ...slack.Block) error
	DisplayName(ctx context.Context, userID string) (string, error)
	SendErrorNotice(ctx context.Context, adminID, notice string) error
}

// Medium is how a transcript reaches the administrator
type Medium interface {
	Name() string
	Deliver(ctx context.Context, adminID string, t model.Transcript) error
}

// Notifier resolves the member's name, delivers through a medium and raises
// an error notice when delivery fails
type Notifier struct {
	adminID   string
	medium    Medium
	messenger Messenger
	now       func() time.Time
}

var _ core.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier for one administrator
func NewNotifier(adminID string, medium Medium, messenger Messenger) *Notifier {
	return &Notifier{
		adminID:   adminID,
		medium:    medium,
		messenger: messenger,
		now:       time.Now,
	}
}

// Notify hands the answers to the administrator. Failures are returned so the
// state machine can keep the session for a retry.
func (n *Notifier) Notify(ctx context.Context, userID string, answers []model.Answer) error {
	name, err := n.messenger.DisplayName(ctx, userID)
	if err != nil {
		err = fmt.Errorf("resolve display name: %w", err)
		n.raise(ctx, userID, err)
		return err
	}

	transcript := model.Transcript{
		UserID:      userID,
		DisplayName: name,
		Answers:     answers,
		CompletedAt: n.now(),
	}

	if err := n.medium.Deliver(ctx, n.adminID, transcript); err != nil {
		err = fmt.Errorf("%s hand-off: %w", n.medium.Name(), err)
		n.raise(ctx, userID, err)
		return err
	}

	logger.Info().
		Str("user_id", userID).
		Str("medium", n.medium.Name()).
		Int("answers", len(answers)).
		Msg("Transcript delivered to admin")
	return nil
}

// raise is best effort: the admin channel may be the thing that is broken
func (n *Notifier) raise(ctx context.Context, userID string, cause error) {
	notice := fmt.Sprintf(
		"Could not deliver the questionnaire from <@%s>: %v\nTheir answers are kept. Run `/onboarding-retry <@%s>` to try again.",
		userID, cause, userID,
	)
	if err := n.messenger.SendErrorNotice(ctx, n.adminID, notice); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to send error notice to admin")
	}
}
