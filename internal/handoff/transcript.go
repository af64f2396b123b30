package handoff

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"onboarding_bot/src/model"

	"github.com/slack-go/slack"
)

// sectionLimit is Slack's maximum length of a section block's text
const sectionLimit = 3000

// headerLimit is Slack's maximum length of a header block's text
const headerLimit = 150

// messageBlockLimit is Slack's maximum number of blocks in one message
const messageBlockLimit = 50

// TranscriptMedium sends the full question and answer list as a Slack message
type TranscriptMedium struct {
	messenger Messenger
}

// NewTranscriptMedium creates the plain message medium
func NewTranscriptMedium(messenger Messenger) *TranscriptMedium {
	return &TranscriptMedium{messenger: messenger}
}

func (m *TranscriptMedium) Name() string { return "transcript" }

// Deliver posts the transcript, spread over several messages when it has
// more blocks than one message may carry
func (m *TranscriptMedium) Deliver(ctx context.Context, adminID string, t model.Transcript) error {
	title := TranscriptTitle(t)
	parts := splitBlocks(TranscriptBlocks(t), messageBlockLimit)
	for i, blocks := range parts {
		fallback := title
		if len(parts) > 1 {
			fallback = fmt.Sprintf("%s (%d/%d)", title, i+1, len(parts))
		}
		if err := m.messenger.SendDM(ctx, adminID, fallback, blocks...); err != nil {
			return fmt.Errorf("transcript part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func splitBlocks(blocks []slack.Block, limit int) [][]slack.Block {
	var parts [][]slack.Block
	for len(blocks) > limit {
		parts = append(parts, blocks[:limit])
		blocks = blocks[limit:]
	}
	return append(parts, blocks)
}

// TranscriptTitle heads every hand-off message
func TranscriptTitle(t model.Transcript) string {
	return "New Questionnaire Response from " + t.DisplayName
}

// FormatAnswers renders answers as "*question*\nanswer" pairs separated by blank lines
func FormatAnswers(answers []model.Answer) string {
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		parts = append(parts, formatAnswer(a))
	}
	return strings.Join(parts, "\n\n")
}

// TranscriptBlocks splits the formatted answers across as many sections as Slack requires
func TranscriptBlocks(t model.Transcript) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(TranscriptTitle(t), headerLimit), false, false)),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("<@%s> · completed %s", t.UserID, t.CompletedAt.Format("2006-01-02 15:04 MST")), false, false)),
	}

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, current.String(), false, false), nil, nil))
		current.Reset()
	}

	for _, a := range t.Answers {
		chunk := truncate(formatAnswer(a), sectionLimit)
		if current.Len() > 0 && current.Len()+2+len(chunk) > sectionLimit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(chunk)
	}
	flush()

	return blocks
}

func formatAnswer(a model.Answer) string {
	return fmt.Sprintf("*%s*\n%s", a.Question, a.Response)
}

// truncate cuts s to at most limit bytes without splitting a rune
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const ellipsis = "…"
	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
