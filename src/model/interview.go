package model

import "time"

// Question is one immutable catalog entry
type Question struct {
	Index  int    `json:"index" yaml:"-"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Answer pairs a prompt with the member's response, in catalog order
type Answer struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

// Session is one member's interview progress.
// len(Answers) always equals CurrentIndex.
type Session struct {
	UserID          string    `json:"user_id"`
	CurrentIndex    int       `json:"current_index"`
	Answers         []Answer  `json:"answers"`
	Completed       bool      `json:"completed"`
	HandoffAttempts int       `json:"handoff_attempts"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Clone returns a copy that does not share the answers slice
func (s Session) Clone() Session {
	out := s
	out.Answers = append([]Answer(nil), s.Answers...)
	return out
}

// Transcript is what a hand-off medium delivers to the administrator
type Transcript struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Answers     []Answer  `json:"answers"`
	CompletedAt time.Time `json:"completed_at"`
}
