// Package bot turns inbound Slack events into state machine calls.
//
// Each event is handled on its own goroutine behind a single error boundary:
// handler errors and panics are logged, reported and never reach the event loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"onboarding_bot/internal/catalog"
	"onboarding_bot/internal/core"
	"onboarding_bot/internal/scheduler"
	"onboarding_bot/src/logger"
	"onboarding_bot/src/storage"

	"github.com/slack-go/slack"
)

// Join policies
const (
	// JoinPolicyDedupe ignores a join for a member who is already scheduled, interviewing or on record
	JoinPolicyDedupe = "dedupe"
	// JoinPolicyRestart schedules a fresh interview on every join
	JoinPolicyRestart = "restart"
)

// ErrAuthorizationDenied is returned when a non-admin targets another member
var ErrAuthorizationDenied = errors.New("authorization denied")

// Gateway is the outbound surface the handlers use
type Gateway interface {
	SendDM(ctx context.Context, userID, fallback string, blocks ...slack.Block) error
	SendEphemeral(ctx context.Context, channelID, userID, text string) error
	SendWelcome(ctx context.Context, userID string) error
	SendErrorNotice(ctx context.Context, adminID, notice string) error
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}

// SessionLister reports members with an interview in progress
type SessionLister interface {
	Users() []string
}

// Recorder counts handled events
type Recorder interface {
	JoinHandled(outcome string)
	CommandHandled(command string, err error)
	EventFailed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) JoinHandled(string)           {}
func (nopRecorder) CommandHandled(string, error) {}
func (nopRecorder) EventFailed(string)           {}

// Config is the behaviour the bot needs from the process configuration
type Config struct {
	AdminID    string
	Delay      time.Duration
	Renderer   string
	JoinPolicy string
}

// Deps are the collaborators wired in by main
type Deps struct {
	Machine   *core.Machine
	Catalog   *catalog.Catalog
	Scheduler *scheduler.Scheduler
	Ledger    storage.JoinLedger
	Sessions  SessionLister
	Gateway   Gateway
	Recorder  Recorder
}

// Bot handles every inbound event
type Bot struct {
	cfg       Config
	machine   *core.Machine
	catalog   *catalog.Catalog
	scheduler *scheduler.Scheduler
	ledger    storage.JoinLedger
	sessions  SessionLister
	gateway   Gateway
	recorder  Recorder
	now       func() time.Time

	inflight sync.WaitGroup
}

// New validates cfg and wires the bot
func New(cfg Config, deps Deps) (*Bot, error) {
	if cfg.AdminID == "" {
		return nil, fmt.Errorf("admin user id is required")
	}
	if deps.Machine == nil || deps.Catalog == nil || deps.Scheduler == nil || deps.Gateway == nil {
		return nil, fmt.Errorf("machine, catalog, scheduler and gateway are required")
	}
	switch cfg.JoinPolicy {
	case "":
		cfg.JoinPolicy = JoinPolicyDedupe
	case JoinPolicyDedupe, JoinPolicyRestart:
	default:
		return nil, fmt.Errorf("unknown join policy %q", cfg.JoinPolicy)
	}

	b := &Bot{
		cfg:       cfg,
		machine:   deps.Machine,
		catalog:   deps.Catalog,
		scheduler: deps.Scheduler,
		ledger:    deps.Ledger,
		sessions:  deps.Sessions,
		gateway:   deps.Gateway,
		recorder:  deps.Recorder,
		now:       time.Now,
	}
	if b.ledger == nil {
		b.ledger = storage.NewMemoryLedger(0)
	}
	if b.recorder == nil {
		b.recorder = nopRecorder{}
	}
	return b, nil
}

// Wait blocks until every in-flight handler has returned
func (b *Bot) Wait() {
	b.inflight.Wait()
}

// spawn runs fn on its own goroutine behind the error boundary
func (b *Bot) spawn(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.guard(ctx, kind, fn)
	}()
}

// guard is the error boundary for one event
func (b *Bot) guard(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			b.recorder.EventFailed(kind)
			logger.Error().Interface("panic", r).Str("event", kind).Msg("Recovered from panic in event handler")
		}
	}()

	if err := fn(ctx); err != nil {
		b.recorder.EventFailed(kind)
		logger.Error().Err(err).Str("event", kind).Msg("Event handler failed")
	}
}

// notifyAdmin is best effort
func (b *Bot) notifyAdmin(ctx context.Context, notice string) {
	if err := b.gateway.SendErrorNotice(ctx, b.cfg.AdminID, notice); err != nil {
		logger.Error().Err(err).Msg("Failed to send error notice to admin")
	}
}

// tell sends a short plain message to a member's direct channel
func (b *Bot) tell(ctx context.Context, userID, text string) {
	if err := b.gateway.SendDM(ctx, userID, text); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to send notice to member")
	}
}
