package gateway

import (
	"context"
	"fmt"
	"strings"

	"onboarding_bot/internal/core"
	"onboarding_bot/src/model"

	"github.com/slack-go/slack"
)

// Renderer kinds accepted by NewPrompter
const (
	RendererBlocks = "blocks"
	RendererModal  = "modal"
	RendererText   = "text"
)

// Messenger is the part of the gateway a prompter needs
type Messenger interface {
	SendDM(ctx context.Context, userID, fallback string, blocks ...slack.Block) error
}

type questionBlocks func(q model.Question, total int) []slack.Block

// Prompter renders the questionnaire into a member's direct channel
type Prompter struct {
	kind      string
	messenger Messenger
	question  questionBlocks
}

var _ core.Prompter = (*Prompter)(nil)

// NewPrompter picks the question layout for kind: blocks, modal or text
func NewPrompter(kind string, messenger Messenger) (*Prompter, error) {
	p := &Prompter{kind: strings.ToLower(kind), messenger: messenger}
	switch p.kind {
	case RendererBlocks:
		p.question = InlineQuestionBlocks
	case RendererModal:
		p.question = ModalQuestionBlocks
	case RendererText:
		p.question = TextQuestionBlocks
	default:
		return nil, fmt.Errorf("unknown renderer %q", kind)
	}
	return p, nil
}

// Kind is the renderer name
func (p *Prompter) Kind() string {
	return p.kind
}

func (p *Prompter) SendIntro(ctx context.Context, userID string, total int) error {
	return p.messenger.SendDM(ctx, userID, "Career Readiness Questionnaire", IntroBlocks(total)...)
}

func (p *Prompter) SendQuestion(ctx context.Context, userID string, q model.Question, total int) error {
	fallback := fmt.Sprintf("Question %d of %d: %s", q.Index+1, total, q.Prompt)
	return p.messenger.SendDM(ctx, userID, fallback, p.question(q, total)...)
}

func (p *Prompter) SendCompletionAck(ctx context.Context, userID string) error {
	return p.messenger.SendDM(ctx, userID, "Thank you for completing the questionnaire!", CompletionBlocks()...)
}
