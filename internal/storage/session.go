package storage

import (
	"sort"
	"sync"
	"time"

	"onboarding_bot/internal/catalog"
	"onboarding_bot/internal/core"
	"onboarding_bot/src/model"
)

// MemorySessionStore keeps interview sessions in process memory.
// A single mutex guards the map so each operation is atomic; the interview
// state machine serializes whole submissions per member on top of this.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	catalog  *catalog.Catalog
	now      func() time.Time
}

var _ core.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty store bound to a catalog
func NewMemorySessionStore(c *catalog.Catalog) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*model.Session),
		catalog:  c,
		now:      time.Now,
	}
}

// Begin creates a fresh session, silently replacing any existing one for the member
func (m *MemorySessionStore) Begin(userID string) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	session := &model.Session{
		UserID:    userID,
		Answers:   []model.Answer{},
		StartedAt: now,
		UpdatedAt: now,
	}
	m.sessions[userID] = session
	return session.Clone()
}

// Get returns a snapshot of the member's session
func (m *MemorySessionStore) Get(userID string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[userID]
	if !exists {
		return model.Session{}, core.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// RecordAnswer attributes text to the member's next unanswered question
func (m *MemorySessionStore) RecordAnswer(userID, text string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.answerable(userID)
	if err != nil {
		return model.Session{}, err
	}
	return m.appendAnswer(session, text)
}

// RecordAnswerAt is RecordAnswer for submissions that know which question they answer
func (m *MemorySessionStore) RecordAnswerAt(userID string, index int, text string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.answerable(userID)
	if err != nil {
		return model.Session{}, err
	}
	if index != session.CurrentIndex {
		return model.Session{}, core.ErrStaleAnswer
	}
	return m.appendAnswer(session, text)
}

// MarkHandoffAttempt counts a hand-off attempt for a completed session
func (m *MemorySessionStore) MarkHandoffAttempt(userID string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[userID]
	if !exists {
		return model.Session{}, core.ErrSessionNotFound
	}
	session.HandoffAttempts++
	session.UpdatedAt = m.now()
	return session.Clone(), nil
}

// End removes the member's session; absent sessions are not an error
func (m *MemorySessionStore) End(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len is the number of sessions, in progress or awaiting hand-off
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Users lists members with a session, sorted
func (m *MemorySessionStore) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// answerable must be called with mu held
func (m *MemorySessionStore) answerable(userID string) (*model.Session, error) {
	session, exists := m.sessions[userID]
	if !exists {
		return nil, core.ErrNoActiveSession
	}
	if session.CurrentIndex >= m.catalog.Size() {
		return nil, core.ErrInterviewAlreadyComplete
	}
	return session, nil
}

// appendAnswer must be called with mu held
func (m *MemorySessionStore) appendAnswer(session *model.Session, text string) (model.Session, error) {
	question, err := m.catalog.Get(session.CurrentIndex)
	if err != nil {
		return model.Session{}, err
	}

	session.Answers = append(session.Answers, model.Answer{
		Question: question.Prompt,
		Response: text,
	})
	session.CurrentIndex++
	session.Completed = session.CurrentIndex == m.catalog.Size()
	session.UpdatedAt = m.now()

	return session.Clone(), nil
}
