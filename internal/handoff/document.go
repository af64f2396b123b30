package handoff

import (
	"context"
	"fmt"
	"strings"

	"onboarding_bot/src/logger"
	"onboarding_bot/src/model"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/compose"
	"github.com/slack-go/slack"
)

// Document is the content handed to a DocumentService
type Document struct {
	Title   string
	Summary string
	Body    string
}

// Text is the full document text in reading order
func (d *Document) Text() string {
	var b strings.Builder
	b.WriteString(d.Title)
	b.WriteString("\n\n")
	if d.Summary != "" {
		b.WriteString("Summary\n")
		b.WriteString(d.Summary)
		b.WriteString("\n\n")
	}
	b.WriteString(d.Body)
	return b.String()
}

// DocumentService creates a document and returns a link to it.
// shareWith, when set, is an email address granted access.
type DocumentService interface {
	Create(ctx context.Context, doc *Document, shareWith string) (string, error)
}

// ContentBuilder assembles document content from a transcript
type ContentBuilder struct {
	assemble compose.Runnable[model.Transcript, *Document]
	summary  compose.Runnable[model.Transcript, string]
}

// NewContentBuilder compiles the assembly graph. summary may be nil.
func NewContentBuilder(ctx context.Context, summary compose.Runnable[model.Transcript, string]) (*ContentBuilder, error) {
	graph := compose.NewGraph[model.Transcript, *Document]()

	validate := compose.InvokableLambda(func(ctx context.Context, t model.Transcript) (model.Transcript, error) {
		if len(t.Answers) == 0 {
			return t, fmt.Errorf("transcript for %s has no answers", t.UserID)
		}
		if t.DisplayName == "" {
			t.DisplayName = t.UserID
		}
		return t, nil
	})

	assemble := compose.InvokableLambda(func(ctx context.Context, t model.Transcript) (*Document, error) {
		return &Document{
			Title: fmt.Sprintf("Career Readiness Questionnaire: %s (%s)", t.DisplayName, t.CompletedAt.Format("2006-01-02")),
			Body:  documentBody(t),
		}, nil
	})

	if err := graph.AddLambdaNode("validate", validate); err != nil {
		return nil, fmt.Errorf("failed to add validate node: %w", err)
	}
	if err := graph.AddLambdaNode("assemble", assemble); err != nil {
		return nil, fmt.Errorf("failed to add assemble node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "validate"); err != nil {
		return nil, fmt.Errorf("failed to add start edge: %w", err)
	}
	if err := graph.AddEdge("validate", "assemble"); err != nil {
		return nil, fmt.Errorf("failed to add validate to assemble edge: %w", err)
	}
	if err := graph.AddEdge("assemble", compose.END); err != nil {
		return nil, fmt.Errorf("failed to add end edge: %w", err)
	}

	runnable, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile document graph: %w", err)
	}

	return &ContentBuilder{assemble: runnable, summary: summary}, nil
}

// Build produces the document. A failing summary is logged and left out;
// it never blocks the hand-off.
func (b *ContentBuilder) Build(ctx context.Context, t model.Transcript) (*Document, error) {
	doc, err := b.assemble.Invoke(ctx, t)
	if err != nil {
		return nil, err
	}

	if b.summary != nil {
		summary, err := b.summary.Invoke(ctx, t)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", t.UserID).Msg("Summary generation failed, continuing without it")
		} else {
			doc.Summary = strings.TrimSpace(summary)
		}
	}

	return doc, nil
}

func documentBody(t model.Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Member: %s (%s)\nCompleted: %s\n\n", t.DisplayName, t.UserID, t.CompletedAt.Format("2006-01-02 15:04 MST"))
	for _, a := range t.Answers {
		fmt.Fprintf(&b, "%s\n%s\n\n", a.Question, a.Response)
	}

	// machine-readable copy for pasting into spreadsheets
	if raw, err := sonic.Marshal(t.Answers); err == nil {
		b.WriteString("Raw responses\n")
		b.Write(raw)
		b.WriteString("\n")
	}
	return b.String()
}

// DocumentMedium creates an external document and sends the administrator its link
type DocumentMedium struct {
	builder   *ContentBuilder
	docs      DocumentService
	messenger Messenger
	shareWith string
}

// NewDocumentMedium creates the document medium. shareWith may be empty.
func NewDocumentMedium(builder *ContentBuilder, docs DocumentService, messenger Messenger, shareWith string) *DocumentMedium {
	return &DocumentMedium{
		builder:   builder,
		docs:      docs,
		messenger: messenger,
		shareWith: shareWith,
	}
}

func (m *DocumentMedium) Name() string { return "document" }

func (m *DocumentMedium) Deliver(ctx context.Context, adminID string, t model.Transcript) error {
	doc, err := m.builder.Build(ctx, t)
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	link, err := m.docs.Create(ctx, doc, m.shareWith)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	text := fmt.Sprintf("%s completed the questionnaire. Responses: <%s|%s>", t.DisplayName, link, doc.Title)
	return m.messenger.SendDM(ctx, adminID, text, DocumentLinkBlocks(t, link, doc.Title)...)
}

// DocumentLinkBlocks is the short admin message pointing at the created document
func DocumentLinkBlocks(t model.Transcript, link, title string) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(TranscriptTitle(t), headerLimit), false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("<@%s> answered %d questions.\n<%s|%s>", t.UserID, len(t.Answers), link, title), false, false), nil, nil),
	}
}
