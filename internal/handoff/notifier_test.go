package handoff

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"onboarding_bot/src/model"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentDM struct {
	userID   string
	fallback string
	blocks   []slack.Block
}

type fakeMessenger struct {
	mu        sync.Mutex
	dms       []sentDM
	notices   []string
	names     map[string]string
	dmErr     error
	nameErr   error
	noticeErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{names: map[string]string{"U1": "Ann Lee"}}
}

func (m *fakeMessenger) SendDM(_ context.Context, userID, fallback string, blocks ...slack.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dmErr != nil {
		return m.dmErr
	}
	m.dms = append(m.dms, sentDM{userID: userID, fallback: fallback, blocks: blocks})
	return nil
}

func (m *fakeMessenger) DisplayName(_ context.Context, userID string) (string, error) {
	if m.nameErr != nil {
		return "", m.nameErr
	}
	if name, ok := m.names[userID]; ok {
		return name, nil
	}
	return userID, nil
}

func (m *fakeMessenger) SendErrorNotice(_ context.Context, adminID, notice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, adminID+": "+notice)
	return m.noticeErr
}

func sampleAnswers() []model.Answer {
	return []model.Answer{
		{Question: "What is your name?", Response: "Ann"},
		{Question: "What field are you in?", Response: "Data science"},
	}
}

func TestNotifier_DeliversTranscript(t *testing.T) {
	messenger := newFakeMessenger()
	n := NewNotifier("UADMIN", NewTranscriptMedium(messenger), messenger)
	n.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	err := n.Notify(context.Background(), "U1", sampleAnswers())
	require.NoError(t, err)

	require.Len(t, messenger.dms, 1)
	dm := messenger.dms[0]
	assert.Equal(t, "UADMIN", dm.userID)
	assert.Equal(t, "New Questionnaire Response from Ann Lee", dm.fallback)
	assert.NotEmpty(t, dm.blocks)
	assert.Empty(t, messenger.notices)
}

func TestNotifier_NameLookupFailureIsHandoffFailure(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.nameErr = errors.New("user_not_found")
	n := NewNotifier("UADMIN", NewTranscriptMedium(messenger), messenger)

	err := n.Notify(context.Background(), "U1", sampleAnswers())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_not_found")

	assert.Empty(t, messenger.dms)
	require.Len(t, messenger.notices, 1)
	assert.Contains(t, messenger.notices[0], "/onboarding-retry")
}

func TestNotifier_DeliveryFailureRaisesNotice(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.dmErr = errors.New("channel_not_found")
	n := NewNotifier("UADMIN", NewTranscriptMedium(messenger), messenger)

	err := n.Notify(context.Background(), "U1", sampleAnswers())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "transcript hand-off"))

	require.Len(t, messenger.notices, 1)
	assert.True(t, strings.HasPrefix(messenger.notices[0], "UADMIN: "))
	assert.Contains(t, messenger.notices[0], "<@U1>")
}

func TestNotifier_NoticeFailureDoesNotMaskCause(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.dmErr = errors.New("channel_not_found")
	messenger.noticeErr = errors.New("rate_limited")
	n := NewNotifier("UADMIN", NewTranscriptMedium(messenger), messenger)

	err := n.Notify(context.Background(), "U1", sampleAnswers())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
	assert.NotContains(t, err.Error(), "rate_limited")
}
