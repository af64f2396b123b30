package summary

import (
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// MaxBullets caps how many points a summary keeps
const MaxBullets = 5

func getSystemTemplate() string {
	return `You help a career coach onboard new members of a career community.

			-Goal-
			Summarize one member's questionnaire answers so the coach can prepare a first conversation.

			STRICT RULES:
			1. Use ONLY facts stated in the answers. Do not guess or invent details
			2. Write at most {MB} bullet points, one line each, starting with "- "
			3. Cover their field and background, what they want from the community, their job search status, and follow-ups for the coach
			4. Skip a topic when the answers say nothing about it
			5. No headings, greetings or closing remarks

			When complete, return {CD}`
}

func getUserTemplate() string {
	return `Member: {name}

			Answers:
			{responses}`
}

// CreateSummaryTemplate builds the chat template. It expects the variables
// "name" and "responses".
func CreateSummaryTemplate() prompt.ChatTemplate {
	replacer := strings.NewReplacer(
		"{MB}", strconv.Itoa(MaxBullets),
		"{CD}", CompletionDelimiter,
		"\t\t\t", "",
	)

	messages := []schema.MessagesTemplate{
		schema.SystemMessage(replacer.Replace(getSystemTemplate())),
		schema.UserMessage(replacer.Replace(getUserTemplate())),
	}

	return prompt.FromMessages(schema.FString, messages...)
}
