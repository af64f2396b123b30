// Package gateway wraps the Slack Web API calls the bot makes: opening direct
// channels, posting messages, opening modals and resolving member names.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"onboarding_bot/src/logger"

	"github.com/slack-go/slack"
)

// SlackGateway caches direct channel ids per member; it is safe for concurrent use.
type SlackGateway struct {
	api *slack.Client

	mu  sync.Mutex
	dms map[string]string
}

// NewSlackGateway wraps an authenticated Slack client
func NewSlackGateway(api *slack.Client) *SlackGateway {
	return &SlackGateway{
		api: api,
		dms: make(map[string]string),
	}
}

// OpenDM returns the id of the direct channel with userID
func (g *SlackGateway) OpenDM(ctx context.Context, userID string) (string, error) {
	g.mu.Lock()
	if id, ok := g.dms[userID]; ok {
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	channel, _, _, err := g.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return "", fmt.Errorf("conversations.open %s: %w", userID, err)
	}

	g.mu.Lock()
	g.dms[userID] = channel.ID
	g.mu.Unlock()

	return channel.ID, nil
}

// Post sends a message to a channel. fallback is the notification text shown
// by clients that cannot render blocks.
func (g *SlackGateway) Post(ctx context.Context, channelID, fallback string, blocks ...slack.Block) error {
	opts := []slack.MsgOption{slack.MsgOptionText(fallback, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}

	_, ts, err := g.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return fmt.Errorf("chat.postMessage %s: %w", channelID, err)
	}

	logger.Debug().Str("channel", channelID).Str("ts", ts).Msg("Message posted")
	return nil
}

// SendDM opens (or reuses) the direct channel with userID and posts to it
func (g *SlackGateway) SendDM(ctx context.Context, userID, fallback string, blocks ...slack.Block) error {
	channelID, err := g.OpenDM(ctx, userID)
	if err != nil {
		return err
	}
	return g.Post(ctx, channelID, fallback, blocks...)
}

// SendEphemeral posts text only userID can see, used for command replies
func (g *SlackGateway) SendEphemeral(ctx context.Context, channelID, userID, text string) error {
	_, err := g.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postEphemeral %s: %w", channelID, err)
	}
	return nil
}

// DisplayName resolves a member's real name, falling back to the display name and handle
func (g *SlackGateway) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := g.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("users.info %s: %w", userID, err)
	}

	switch {
	case user.RealName != "":
		return user.RealName, nil
	case user.Profile.DisplayName != "":
		return user.Profile.DisplayName, nil
	case user.Name != "":
		return user.Name, nil
	default:
		return userID, nil
	}
}

// OpenModal opens a modal in response to an interaction carrying triggerID
func (g *SlackGateway) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := g.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("views.open: %w", err)
	}
	return nil
}

// SendWelcome greets a new member in their direct channel
func (g *SlackGateway) SendWelcome(ctx context.Context, userID string) error {
	return g.SendDM(ctx, userID, WelcomeFallback, WelcomeBlocks()...)
}

// SendErrorNotice tells the administrator something needs attention
func (g *SlackGateway) SendErrorNotice(ctx context.Context, adminID, notice string) error {
	return g.SendDM(ctx, adminID, notice, ErrorNoticeBlocks(notice)...)
}
