package bot

import (
	"context"
	"errors"
	"fmt"

	"onboarding_bot/src/logger"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/sync/errgroup"
)

// Acker acknowledges a Socket Mode envelope
type Acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Listen runs the Socket Mode connection and dispatches its events until ctx
// is cancelled. In-flight handlers are waited for before it returns.
func (b *Bot) Listen(ctx context.Context, client *socketmode.Client) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := client.RunContext(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("socket mode: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case evt, ok := <-client.Events:
				if !ok {
					return nil
				}
				b.Dispatch(gctx, client, evt)
			}
		}
	})

	err := g.Wait()
	b.Wait()
	return err
}

// Dispatch acknowledges one envelope and hands it to its handler
func (b *Bot) Dispatch(ctx context.Context, acker Acker, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logger.Info().Msg("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnected:
		logger.Info().Msg("Connected to Slack with Socket Mode")
	case socketmode.EventTypeConnectionError:
		logger.Warn().Interface("data", evt.Data).Msg("Socket Mode connection failed, retrying")
	case socketmode.EventTypeHello, socketmode.EventTypeDisconnect:
		logger.Debug().Str("type", string(evt.Type)).Msg("Socket Mode lifecycle event")

	case socketmode.EventTypeEventsAPI:
		b.ack(acker, evt)
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			logger.Warn().Msg("Ignoring malformed Events API envelope")
			return
		}
		b.dispatchEventsAPI(ctx, eventsAPIEvent)

	case socketmode.EventTypeInteractive:
		b.ack(acker, evt)
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			logger.Warn().Msg("Ignoring malformed interaction envelope")
			return
		}
		switch callback.Type {
		case slack.InteractionTypeBlockActions:
			b.spawn(ctx, "block_actions", func(ctx context.Context) error {
				return b.HandleBlockActions(ctx, callback)
			})
		case slack.InteractionTypeViewSubmission:
			b.spawn(ctx, "view_submission", func(ctx context.Context) error {
				return b.HandleViewSubmission(ctx, callback)
			})
		default:
			logger.Debug().Str("interaction", string(callback.Type)).Msg("Ignoring interaction")
		}

	case socketmode.EventTypeSlashCommand:
		b.ack(acker, evt)
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			logger.Warn().Msg("Ignoring malformed slash command envelope")
			return
		}
		b.spawn(ctx, "slash_command", func(ctx context.Context) error {
			return b.HandleCommand(ctx, cmd)
		})

	default:
		logger.Debug().Str("type", string(evt.Type)).Msg("Ignoring Socket Mode event")
	}
}

func (b *Bot) dispatchEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch inner := event.InnerEvent.Data.(type) {
	case *slackevents.TeamJoinEvent:
		if inner.User == nil {
			logger.Warn().Msg("team_join without a user")
			return
		}
		userID := inner.User.ID
		b.spawn(ctx, "team_join", func(ctx context.Context) error {
			return b.HandleJoin(ctx, userID)
		})
	case *slackevents.MessageEvent:
		b.spawn(ctx, "message", func(ctx context.Context) error {
			return b.HandleMessage(ctx, inner)
		})
	default:
		logger.Debug().Str("event", event.InnerEvent.Type).Msg("Ignoring Events API event")
	}
}

// ack must come before any slow work
func (b *Bot) ack(acker Acker, evt socketmode.Event) {
	if evt.Request == nil {
		return
	}
	acker.Ack(*evt.Request)
}
