package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"onboarding_bot/internal/core"
	"onboarding_bot/src/logger"

	"github.com/slack-go/slack"
)

// Slash commands
const (
	CommandTestMessages = "/test-messages"
	CommandRetry        = "/onboarding-retry"
	CommandStatus       = "/onboarding-status"
	CommandReset        = "/onboarding-reset"
)

const msgAuthorizationDenied = "Sorry, only the workspace admin can run this command for another member."

// escaped mentions look like <@U123> or <@U123|name>
var mentionPattern = regexp.MustCompile(`^<@([A-Z0-9]+)(?:\|[^>]*)?>$`)

// parseTarget returns the mentioned member, "" when text is empty, or an error
func parseTarget(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	m := mentionPattern.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("expected a member mention like @name, got %q", text)
	}
	return m[1], nil
}

// HandleCommand runs a slash command and replies to the caller privately
func (b *Bot) HandleCommand(ctx context.Context, cmd slack.SlashCommand) error {
	reply, err := b.runCommand(ctx, cmd)
	b.recorder.CommandHandled(cmd.Command, err)

	if err != nil {
		logger.Warn().Err(err).Str("command", cmd.Command).Str("user_id", cmd.UserID).Msg("Command failed")
		reply = commandErrorReply(err)
	}
	if reply == "" {
		return nil
	}
	if sendErr := b.gateway.SendEphemeral(ctx, cmd.ChannelID, cmd.UserID, reply); sendErr != nil {
		return fmt.Errorf("reply to %s: %w", cmd.Command, sendErr)
	}
	return nil
}

func commandErrorReply(err error) string {
	switch {
	case errors.Is(err, ErrAuthorizationDenied):
		return msgAuthorizationDenied
	case errors.Is(err, core.ErrSessionNotFound):
		return "There is no saved questionnaire for that member."
	case errors.Is(err, core.ErrNotCompleted):
		return "That member hasn't finished the questionnaire yet."
	case core.IsHandoffError(err):
		return fmt.Sprintf("Delivery failed again: %v", errors.Unwrap(err))
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

func (b *Bot) runCommand(ctx context.Context, cmd slack.SlashCommand) (string, error) {
	target, err := parseTarget(cmd.Text)
	if err != nil {
		return "", err
	}

	switch cmd.Command {
	case CommandTestMessages:
		return b.testMessages(ctx, cmd.UserID, target)
	case CommandRetry:
		return b.retryHandoff(ctx, cmd.UserID, target)
	case CommandStatus:
		return b.status(ctx, cmd.UserID, target)
	case CommandReset:
		return b.reset(ctx, cmd.UserID, target)
	default:
		return "", fmt.Errorf("unknown command %s", cmd.Command)
	}
}

func (b *Bot) isAdmin(userID string) bool {
	return userID == b.cfg.AdminID
}

// testMessages starts the questionnaire immediately. Anyone may start their own;
// only the admin may start one for someone else.
func (b *Bot) testMessages(ctx context.Context, caller, target string) (string, error) {
	if target == "" {
		target = caller
	}
	if target != caller && !b.isAdmin(caller) {
		return "", ErrAuthorizationDenied
	}

	logger.Info().Str("caller", caller).Str("user_id", target).Msg("Manual questionnaire trigger")
	if b.cfg.JoinPolicy == JoinPolicyDedupe {
		b.cancelPending(target)
	}
	if err := b.machine.Start(ctx, target); err != nil {
		return "", err
	}
	if target == caller {
		return "Questionnaire started. Check your direct messages.", nil
	}
	return fmt.Sprintf("Questionnaire started for <@%s>.", target), nil
}

func (b *Bot) retryHandoff(ctx context.Context, caller, target string) (string, error) {
	if !b.isAdmin(caller) {
		return "", ErrAuthorizationDenied
	}
	if target == "" {
		return "", fmt.Errorf("usage: %s @member", CommandRetry)
	}

	if err := b.machine.RetryHandoff(ctx, target); err != nil {
		return "", err
	}
	return fmt.Sprintf("Delivered the questionnaire from <@%s>.", target), nil
}

// reset drops the member's scheduled starts and join record so their next
// join is treated as a first one. A questionnaire in progress is kept.
func (b *Bot) reset(ctx context.Context, caller, target string) (string, error) {
	if !b.isAdmin(caller) {
		return "", ErrAuthorizationDenied
	}
	if target == "" {
		return "", fmt.Errorf("usage: %s @member", CommandReset)
	}

	cancelled := b.cancelPending(target)
	if err := b.ledger.Forget(ctx, target); err != nil {
		return "", fmt.Errorf("forget join of %s: %w", target, err)
	}

	logger.Info().Str("caller", caller).Str("user_id", target).Int("cancelled", cancelled).Msg("Onboarding reset")
	return fmt.Sprintf("Reset <@%s>: %d scheduled start(s) cancelled, join record cleared.", target, cancelled), nil
}

func (b *Bot) cancelPending(userID string) int {
	n := 0
	for _, p := range b.scheduler.Pending(userID) {
		if b.scheduler.Cancel(p.Handle) {
			n++
		}
	}
	return n
}

func (b *Bot) status(ctx context.Context, caller, target string) (string, error) {
	if !b.isAdmin(caller) {
		return "", ErrAuthorizationDenied
	}
	if target != "" {
		return b.memberStatus(ctx, target)
	}

	var users []string
	if b.sessions != nil {
		users = b.sessions.Users()
	}
	pending := b.scheduler.All()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d questionnaire(s) in progress, %d start(s) scheduled.", len(users), len(pending))
	for _, u := range users {
		session, err := b.machine.Status(u)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "\n• <@%s>: %s", u, progress(session.CurrentIndex, b.machine.Size(), session.Completed, session.HandoffAttempts))
	}

	for _, p := range pending {
		fmt.Fprintf(&sb, "\n• <@%s> starts %s", p.UserID, p.FireAt.Format("2006-01-02 15:04 MST"))
	}
	return sb.String(), nil
}

func (b *Bot) memberStatus(ctx context.Context, userID string) (string, error) {
	var lines []string

	session, err := b.machine.Status(userID)
	switch {
	case err == nil:
		lines = append(lines, "Questionnaire: "+progress(session.CurrentIndex, b.machine.Size(), session.Completed, session.HandoffAttempts))
	case errors.Is(err, core.ErrSessionNotFound):
		lines = append(lines, "Questionnaire: none in progress")
	default:
		return "", err
	}

	for _, p := range b.scheduler.Pending(userID) {
		lines = append(lines, "Scheduled start: "+p.FireAt.Format("2006-01-02 15:04 MST"))
	}

	rec, err := b.ledger.Lookup(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Join ledger lookup failed")
	} else if rec != nil {
		lines = append(lines, "Joined: "+rec.JoinedAt.Format("2006-01-02 15:04 MST"))
	}

	return fmt.Sprintf("<@%s>\n%s", userID, strings.Join(lines, "\n")), nil
}

func progress(answered, total int, completed bool, attempts int) string {
	if completed {
		return fmt.Sprintf("completed, hand-off pending after %d failed attempt(s)", attempts)
	}
	return fmt.Sprintf("%d of %d answered", answered, total)
}
