package gateway

import (
	"fmt"
	"strconv"

	"onboarding_bot/src/model"

	"github.com/slack-go/slack"
)

// Interaction identifiers shared by the renderers and the inbound handlers
const (
	ActionSubmitResponse = "submit_response"
	ActionOpenModal      = "open_answer_modal"
	ActionQuestionInput  = "question_response"
	CallbackQuestionForm = "question_modal"
	BlockAnswerInput     = "answer_block"

	WelcomeFallback = "Welcome to the Launch!"
)

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(markdown(text), nil, nil)
}

func header(text string) *slack.HeaderBlock {
	return slack.NewHeaderBlock(plain(text))
}

// WelcomeBlocks is the day-one checklist sent when a member joins
func WelcomeBlocks() []slack.Block {
	return []slack.Block{
		header("Welcome to the Launch! 🚀"),
		section("This space is *YOURS* – a dynamic community for all things career growth, networking, job opportunities, and more. " +
			"Whether you're seeking advice, job leads, or connections with like-minded professionals, you're in the right place."),
		header("Your Day 1 Checklist:"),
		section("*1. Set Up Your Profile* – Make it personal! Create your username, upload a photo, and share a little about yourself.\n\n" +
			"*2. Introduce Yourself* – Head to the #introduction channel and tell us who you are, what you're excited about, and what you're hoping to achieve here.\n\n" +
			"*3. Fill Out the Career Readiness Questionnaire* – Check your DMs and complete the questionnaire so we can support you in the best way possible."),
		section("*4. Explore the Workspace* – Take a tour of our channels!"),
		section("• #introduction – Meet others and share your goals\n" +
			"• #career-advice – Career tips and tricks\n" +
			"• #networking – Connect with fellow professionals\n" +
			"• #job-opportunities – Keep an eye out for new roles\n" +
			"• #resources – All the tools and guides you need\n" +
			"• #announcements – Stay up to date with important updates and events!"),
		section("*5. Post Questions* – Have a question? Drop it in the appropriate channel – we're all here to help each other out!"),
		section("*It's go time!* 🎉\nSee you in the community!"),
	}
}

// IntroBlocks opens the questionnaire
func IntroBlocks(total int) []slack.Block {
	return []slack.Block{
		header("Career Readiness Questionnaire"),
		section(fmt.Sprintf("Welcome! Please take a moment to answer these %d questions to help us better understand your career goals and needs.", total)),
	}
}

// QuestionTitle is the "Question k of N" heading shared by every renderer
func QuestionTitle(q model.Question, total int) string {
	return fmt.Sprintf("*Question %d of %d*\n%s", q.Index+1, total, q.Prompt)
}

// InlineQuestionBlocks asks a question with an input and a submit button in the message itself
func InlineQuestionBlocks(q model.Question, total int) []slack.Block {
	input := slack.NewPlainTextInputBlockElement(nil, ActionQuestionInput)
	input.Multiline = true

	return []slack.Block{
		section(QuestionTitle(q, total)),
		&slack.InputBlock{
			Type:     slack.MBTInput,
			BlockID:  questionBlockID(q.Index),
			Label:    plain("Your Response"),
			Element:  input,
			Optional: false,
		},
		slack.NewActionBlock("",
			slack.NewButtonBlockElement(ActionSubmitResponse, strconv.Itoa(q.Index), plain("Submit Response")),
		),
	}
}

// ModalQuestionBlocks asks a question with a button that opens the answer modal
func ModalQuestionBlocks(q model.Question, total int) []slack.Block {
	return []slack.Block{
		section(QuestionTitle(q, total)),
		slack.NewActionBlock("",
			slack.NewButtonBlockElement(ActionOpenModal, strconv.Itoa(q.Index), plain("Answer")),
		),
	}
}

// QuestionModal is the modal opened by the Answer button
func QuestionModal(q model.Question, total int) slack.ModalViewRequest {
	input := slack.NewPlainTextInputBlockElement(nil, ActionQuestionInput)
	input.Multiline = true

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackQuestionForm,
		PrivateMetadata: strconv.Itoa(q.Index),
		Title:           plain(fmt.Sprintf("Question %d of %d", q.Index+1, total)),
		Submit:          plain("Submit"),
		Close:           plain("Cancel"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			section(q.Prompt),
			&slack.InputBlock{
				Type:    slack.MBTInput,
				BlockID: BlockAnswerInput,
				Label:   plain("Your Response"),
				Element: input,
			},
		}},
	}
}

// TextQuestionBlocks asks a question answered by replying in the conversation
func TextQuestionBlocks(q model.Question, total int) []slack.Block {
	return []slack.Block{
		section(QuestionTitle(q, total)),
		slack.NewContextBlock("", markdown("_Reply to this message to answer._")),
	}
}

// CompletionBlocks thanks the member
func CompletionBlocks() []slack.Block {
	return []slack.Block{
		section("Thank you for completing the questionnaire! Your responses have been recorded."),
	}
}

// ErrorNoticeBlocks formats an administrator alert
func ErrorNoticeBlocks(notice string) []slack.Block {
	return []slack.Block{
		header("Onboarding bot needs attention"),
		section(notice),
	}
}

// AnswerFromState pulls the typed response out of an interaction's block state.
// Inline prompts use one block per question, so every block is searched.
func AnswerFromState(state *slack.BlockActionStates) (string, bool) {
	if state == nil {
		return "", false
	}
	for _, actions := range state.Values {
		if action, ok := actions[ActionQuestionInput]; ok {
			return action.Value, true
		}
	}
	return "", false
}

func questionBlockID(index int) string {
	return "question_" + strconv.Itoa(index)
}

// AnswerFromView pulls the typed response out of a submitted question modal
func AnswerFromView(view slack.View) (string, bool) {
	if view.State == nil {
		return "", false
	}
	action, ok := view.State.Values[BlockAnswerInput][ActionQuestionInput]
	if !ok {
		return "", false
	}
	return action.Value, true
}
