// Package catalog holds the ordered, immutable questionnaire prompts.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"onboarding_bot/src/model"
)

// ErrIndexOutOfRange is returned by Get for an ordinal outside [0, Size)
var ErrIndexOutOfRange = errors.New("question index out of range")

// Catalog is safe for concurrent use because it is never mutated after New.
type Catalog struct {
	questions []model.Question
}

// New builds a catalog from prompts in order. Prompts are trimmed; blank ones are rejected.
func New(prompts []string) (*Catalog, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("catalog: at least one question is required")
	}

	questions := make([]model.Question, 0, len(prompts))
	for i, p := range prompts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("catalog: question %d is blank", i+1)
		}
		questions = append(questions, model.Question{Index: i, Prompt: p})
	}

	return &Catalog{questions: questions}, nil
}

// Default returns the built-in career readiness questionnaire
func Default() *Catalog {
	c, err := New(defaultPrompts)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the question at index
func (c *Catalog) Get(index int) (model.Question, error) {
	if index < 0 || index >= len(c.questions) {
		return model.Question{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.questions))
	}
	return c.questions[index], nil
}

// Size is the number of questions
func (c *Catalog) Size() int {
	return len(c.questions)
}

// Questions returns a copy of every question in order
func (c *Catalog) Questions() []model.Question {
	return append([]model.Question(nil), c.questions...)
}

var defaultPrompts = []string{
	"1. What do you hope to gain from being a part of this Slack community?",
	"2. Are there any specific career readiness topics you're most interested in improving or learning more about?",
	"3. What career field are you currently in, or what field would you like to pursue?",
	"4. Can you share a bit about your professional background?",
	"5. What job tasks do you excel at and truly enjoy doing?",
	"6. Are there any job tasks that you find challenging or less enjoyable?",
	"7. Are you currently exploring new job opportunities? If so, which cities and states are you focusing on?",
	"8. Share one job you're qualified for that you'd love to have. What excites you about working there?",
	"9. Share one job you're qualified for but wouldn't want to take. Why does it not appeal to you?",
	"10. What industries are you most passionate about or interested in exploring?",
	"11. What is the highest level of education you've completed?",
	"12. Do you have an updated resume ready to go?",
	"13. Is your LinkedIn profile up to date?",
}
