package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"onboarding_bot/internal/core"
	"onboarding_bot/internal/gateway"
	"onboarding_bot/src/logger"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// Member-facing replies
const (
	msgNoActiveSession = "I don't have an active questionnaire for you right now."
	msgAlreadyAnswered = "That question has already been answered, so I skipped this response."
	msgEmptyAnswer     = "Please type a response before submitting."
)

// HandleJoin welcomes a new member and schedules their questionnaire
func (b *Bot) HandleJoin(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("join event without a user")
	}

	if b.cfg.JoinPolicy == JoinPolicyDedupe && b.alreadyOnboarding(userID) {
		b.recorder.JoinHandled("duplicate")
		logger.Info().Str("user_id", userID).Msg("Ignoring repeated join, member already onboarding")
		return nil
	}

	first, err := b.ledger.MarkJoined(ctx, userID, b.now())
	if err != nil {
		// fail open
		logger.Warn().Err(err).Str("user_id", userID).Msg("Join ledger unavailable")
		first = true
	}
	if !first && b.cfg.JoinPolicy == JoinPolicyDedupe {
		b.recorder.JoinHandled("duplicate")
		logger.Info().Str("user_id", userID).Msg("Ignoring repeated join, member already on record")
		return nil
	}

	if err := b.gateway.SendWelcome(ctx, userID); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to send welcome message")
		b.notifyAdmin(ctx, fmt.Sprintf("Could not send the welcome message to <@%s>: %v", userID, err))
	}

	handle, err := b.scheduler.Schedule(userID, b.cfg.Delay, b.startInterview)
	if err != nil {
		b.recorder.JoinHandled("error")
		return fmt.Errorf("schedule interview for %s: %w", userID, err)
	}

	b.recorder.JoinHandled("scheduled")
	logger.Info().
		Str("user_id", userID).
		Str("trigger", string(handle)).
		Dur("delay", b.cfg.Delay).
		Msg("Questionnaire scheduled")
	return nil
}

func (b *Bot) alreadyOnboarding(userID string) bool {
	if len(b.scheduler.Pending(userID)) > 0 {
		return true
	}
	_, err := b.machine.Status(userID)
	return err == nil
}

// startInterview is the scheduled action. Under dedupe it leaves a session
// started in the meantime (by /test-messages) alone.
func (b *Bot) startInterview(ctx context.Context, userID string) error {
	if b.cfg.JoinPolicy == JoinPolicyDedupe {
		if _, err := b.machine.Status(userID); err == nil {
			logger.Info().Str("user_id", userID).Msg("Skipping scheduled start, questionnaire already underway")
			return nil
		}
	}
	if err := b.machine.Start(ctx, userID); err != nil {
		b.notifyAdmin(ctx, fmt.Sprintf("Could not start the questionnaire for <@%s>: %v", userID, err))
		return err
	}
	return nil
}

// HandleBlockActions handles button clicks on question prompts
func (b *Bot) HandleBlockActions(ctx context.Context, callback slack.InteractionCallback) error {
	userID := callback.User.ID
	for _, action := range callback.ActionCallback.BlockActions {
		if action == nil {
			continue
		}
		switch action.ActionID {
		case gateway.ActionSubmitResponse:
			index, err := strconv.Atoi(action.Value)
			if err != nil {
				return fmt.Errorf("bad question index %q: %w", action.Value, err)
			}
			text, ok := gateway.AnswerFromState(callback.BlockActionState)
			if !ok || strings.TrimSpace(text) == "" {
				b.tell(ctx, userID, msgEmptyAnswer)
				continue
			}
			if err := b.submitAt(ctx, userID, index, text); err != nil {
				return err
			}

		case gateway.ActionOpenModal:
			index, err := strconv.Atoi(action.Value)
			if err != nil {
				return fmt.Errorf("bad question index %q: %w", action.Value, err)
			}
			if err := b.openQuestionModal(ctx, userID, callback.TriggerID, index); err != nil {
				return err
			}

		default:
			logger.Debug().Str("action_id", action.ActionID).Msg("Ignoring unknown block action")
		}
	}
	return nil
}

func (b *Bot) openQuestionModal(ctx context.Context, userID, triggerID string, index int) error {
	session, err := b.machine.Status(userID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			b.tell(ctx, userID, msgNoActiveSession)
			return nil
		}
		return err
	}
	if session.Completed || session.CurrentIndex != index {
		b.tell(ctx, userID, msgAlreadyAnswered)
		return nil
	}

	question, err := b.catalog.Get(index)
	if err != nil {
		return err
	}
	if err := b.gateway.OpenModal(ctx, triggerID, gateway.QuestionModal(question, b.catalog.Size())); err != nil {
		return &core.DeliveryError{Op: "open_modal", UserID: userID, Err: err}
	}
	return nil
}

// HandleViewSubmission handles a submitted question modal
func (b *Bot) HandleViewSubmission(ctx context.Context, callback slack.InteractionCallback) error {
	if callback.View.CallbackID != gateway.CallbackQuestionForm {
		logger.Debug().Str("callback_id", callback.View.CallbackID).Msg("Ignoring unknown view submission")
		return nil
	}

	index, err := strconv.Atoi(callback.View.PrivateMetadata)
	if err != nil {
		return fmt.Errorf("bad question index %q: %w", callback.View.PrivateMetadata, err)
	}
	text, ok := gateway.AnswerFromView(callback.View)
	if !ok || strings.TrimSpace(text) == "" {
		b.tell(ctx, callback.User.ID, msgEmptyAnswer)
		return nil
	}
	return b.submitAt(ctx, callback.User.ID, index, text)
}

// HandleMessage treats a direct message as the answer to the current question
// when questions are asked as plain text
func (b *Bot) HandleMessage(ctx context.Context, ev *slackevents.MessageEvent) error {
	if b.cfg.Renderer != gateway.RendererText {
		return nil
	}
	if ev == nil || ev.BotID != "" || ev.SubType != "" || ev.ChannelType != "im" || ev.User == "" {
		return nil
	}
	if strings.TrimSpace(ev.Text) == "" {
		return nil
	}

	_, err := b.machine.SubmitAnswer(ctx, ev.User, ev.Text)
	return b.answerOutcome(ctx, ev.User, err)
}

func (b *Bot) submitAt(ctx context.Context, userID string, index int, text string) error {
	_, err := b.machine.SubmitAnswerAt(ctx, userID, index, text)
	return b.answerOutcome(ctx, userID, err)
}

// answerOutcome maps a submission error to what the member and the admin see
func (b *Bot) answerOutcome(ctx context.Context, userID string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrNoActiveSession):
		b.tell(ctx, userID, msgNoActiveSession)
		return nil
	case errors.Is(err, core.ErrInterviewAlreadyComplete), errors.Is(err, core.ErrStaleAnswer):
		logger.Info().Err(err).Str("user_id", userID).Msg("Discarded answer")
		b.tell(ctx, userID, msgAlreadyAnswered)
		return nil
	case core.IsHandoffError(err):
		// the notifier has already raised it with the admin
		return err
	default:
		b.notifyAdmin(ctx, fmt.Sprintf("Questionnaire for <@%s> hit an error: %v", userID, err))
		return err
	}
}
