package bot

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"onboarding_bot/internal/catalog"
	"onboarding_bot/internal/core"
	"onboarding_bot/internal/gateway"
	"onboarding_bot/internal/handoff"
	"onboarding_bot/internal/scheduler"
	sessionstore "onboarding_bot/internal/storage"
	"onboarding_bot/src/storage"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = "UADMIN"

type dm struct {
	userID   string
	fallback string
}

type fakeGateway struct {
	mu         sync.Mutex
	dms        []dm
	ephemerals []string
	notices    []string
	welcomes   []string
	modals     []slack.ModalViewRequest
	failDMTo   map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failDMTo: map[string]bool{}}
}

func (g *fakeGateway) SendDM(_ context.Context, userID, fallback string, _ ...slack.Block) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDMTo[userID] {
		return errors.New("channel_not_found")
	}
	g.dms = append(g.dms, dm{userID: userID, fallback: fallback})
	return nil
}

func (g *fakeGateway) SendEphemeral(_ context.Context, _, _, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ephemerals = append(g.ephemerals, text)
	return nil
}

func (g *fakeGateway) SendWelcome(_ context.Context, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.welcomes = append(g.welcomes, userID)
	return nil
}

func (g *fakeGateway) SendErrorNotice(_ context.Context, _, notice string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notices = append(g.notices, notice)
	return nil
}

func (g *fakeGateway) OpenModal(_ context.Context, _ string, view slack.ModalViewRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modals = append(g.modals, view)
	return nil
}

func (g *fakeGateway) DisplayName(_ context.Context, userID string) (string, error) {
	return "Member " + userID, nil
}

func (g *fakeGateway) setFailDM(userID string, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failDMTo[userID] = fail
}

func (g *fakeGateway) dmsTo(userID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, d := range g.dms {
		if d.userID == userID {
			out = append(out, d.fallback)
		}
	}
	return out
}

func (g *fakeGateway) lastEphemeral() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.ephemerals) == 0 {
		return ""
	}
	return g.ephemerals[len(g.ephemerals)-1]
}

func (g *fakeGateway) counts() (welcomes, notices, modals int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.welcomes), len(g.notices), len(g.modals)
}

type fakeRecorder struct {
	mu     sync.Mutex
	joins  map[string]int
	failed map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{joins: map[string]int{}, failed: map[string]int{}}
}

func (r *fakeRecorder) JoinHandled(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins[outcome]++
}

func (r *fakeRecorder) CommandHandled(string, error) {}

func (r *fakeRecorder) EventFailed(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[kind]++
}

func (r *fakeRecorder) failures(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed[kind]
}

type harness struct {
	bot      *Bot
	gw       *fakeGateway
	store    *sessionstore.MemorySessionStore
	sched    *scheduler.Scheduler
	ledger   *storage.MemoryLedger
	recorder *fakeRecorder
}

func newHarness(t *testing.T, configure func(*Config)) *harness {
	t.Helper()

	cfg := Config{
		AdminID:    adminID,
		Delay:      time.Hour,
		Renderer:   gateway.RendererBlocks,
		JoinPolicy: JoinPolicyDedupe,
	}
	if configure != nil {
		configure(&cfg)
	}

	cat, err := catalog.New([]string{"What is your name?", "What field are you in?"})
	require.NoError(t, err)

	gw := newFakeGateway()
	prompter, err := gateway.NewPrompter(cfg.Renderer, gw)
	require.NoError(t, err)

	store := sessionstore.NewMemorySessionStore(cat)
	notifier := handoff.NewNotifier(adminID, handoff.NewTranscriptMedium(gw), gw)
	machine := core.NewMachine(store, cat, prompter, notifier)

	sched := scheduler.New(context.Background())
	t.Cleanup(sched.Stop)

	ledger := storage.NewMemoryLedger(0)
	recorder := newFakeRecorder()

	b, err := New(cfg, Deps{
		Machine:   machine,
		Catalog:   cat,
		Scheduler: sched,
		Ledger:    ledger,
		Sessions:  store,
		Gateway:   gw,
		Recorder:  recorder,
	})
	require.NoError(t, err)

	return &harness{bot: b, gw: gw, store: store, sched: sched, ledger: ledger, recorder: recorder}
}

func submitCallback(userID string, index int, text string) slack.InteractionCallback {
	cb := slack.InteractionCallback{
		Type: slack.InteractionTypeBlockActions,
		User: slack.User{ID: userID},
	}
	cb.ActionCallback.BlockActions = []*slack.BlockAction{{
		ActionID: gateway.ActionSubmitResponse,
		Value:    strconv.Itoa(index),
	}}
	cb.BlockActionState = &slack.BlockActionStates{
		Values: map[string]map[string]slack.BlockAction{
			"question_" + strconv.Itoa(index): {gateway.ActionQuestionInput: {Value: text}},
		},
	}
	return cb
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)

	h := newHarness(t, nil)
	deps := Deps{Machine: h.bot.machine, Catalog: h.bot.catalog, Scheduler: h.sched, Gateway: h.gw}

	_, err = New(Config{AdminID: adminID, JoinPolicy: "sometimes"}, deps)
	assert.Error(t, err)

	b, err := New(Config{AdminID: adminID}, deps)
	require.NoError(t, err)
	assert.Equal(t, JoinPolicyDedupe, b.cfg.JoinPolicy)
}

func TestHandleJoin_WelcomesAndStartsAfterDelay(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Delay = 20 * time.Millisecond })
	ctx := context.Background()

	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))

	welcomes, _, _ := h.gw.counts()
	assert.Equal(t, 1, welcomes)

	require.Eventually(t, func() bool {
		_, err := h.store.Get("U1")
		return err == nil && len(h.gw.dmsTo("U1")) == 2
	}, 2*time.Second, 5*time.Millisecond)

	dms := h.gw.dmsTo("U1")
	assert.Equal(t, "Career Readiness Questionnaire", dms[0])
	assert.Equal(t, "Question 1 of 2: What is your name?", dms[1])
}

func TestHandleJoin_DedupeIgnoresSecondJoin(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))
	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))

	assert.Equal(t, 1, h.sched.Len())
	welcomes, _, _ := h.gw.counts()
	assert.Equal(t, 1, welcomes)
	assert.Equal(t, 1, h.recorder.joins["duplicate"])
	assert.Equal(t, 1, h.recorder.joins["scheduled"])
}

func TestHandleJoin_DedupeSkipsActiveSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.bot.machine.Start(ctx, "U1"))
	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))

	assert.Equal(t, 0, h.sched.Len())
}

func TestHandleJoin_DedupeSkipsMemberOnRecord(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.ledger.MarkJoined(ctx, "U1", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))
	assert.Equal(t, 0, h.sched.Len())
}

func TestHandleJoin_RestartSchedulesEveryJoin(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.JoinPolicy = JoinPolicyRestart })
	ctx := context.Background()

	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))
	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))

	assert.Equal(t, 2, h.sched.Len())
	assert.Len(t, h.sched.Pending("U1"), 2)
}

func TestBlockActions_FullInterview(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.bot.machine.Start(ctx, "U1"))
	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 0, "Ann")))

	session, err := h.store.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentIndex)

	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 1, "Data science")))

	_, err = h.store.Get("U1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	admin := h.gw.dmsTo(adminID)
	require.Len(t, admin, 1)
	assert.Equal(t, "New Questionnaire Response from Member U1", admin[0])

	dms := h.gw.dmsTo("U1")
	assert.Equal(t, "Thank you for completing the questionnaire!", dms[len(dms)-1])
}

func TestBlockActions_StaleClickIsDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.bot.machine.Start(ctx, "U1"))
	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 0, "Ann")))
	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 0, "Ann again")))

	session, err := h.store.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentIndex)
	assert.Equal(t, "Ann", session.Answers[0].Response)

	dms := h.gw.dmsTo("U1")
	assert.Equal(t, msgAlreadyAnswered, dms[len(dms)-1])
}

func TestBlockActions_NoSession(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.bot.HandleBlockActions(context.Background(), submitCallback("U1", 0, "hi")))
	assert.Equal(t, []string{msgNoActiveSession}, h.gw.dmsTo("U1"))
}

func TestBlockActions_EmptyAnswer(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.bot.machine.Start(ctx, "U1"))
	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 0, "   ")))

	session, err := h.store.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 0, session.CurrentIndex)

	dms := h.gw.dmsTo("U1")
	assert.Equal(t, msgEmptyAnswer, dms[len(dms)-1])
}

func TestBlockActions_OpenModal(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Renderer = gateway.RendererModal })
	ctx := context.Background()
	require.NoError(t, h.bot.machine.Start(ctx, "U1"))

	open := func(index int) slack.InteractionCallback {
		cb := slack.InteractionCallback{
			Type:      slack.InteractionTypeBlockActions,
			User:      slack.User{ID: "U1"},
			TriggerID: "trigger-1",
		}
		cb.ActionCallback.BlockActions = []*slack.BlockAction{{ActionID: gateway.ActionOpenModal, Value: strconv.Itoa(index)}}
		return cb
	}

	require.NoError(t, h.bot.HandleBlockActions(ctx, open(0)))
	require.NoError(t, h.bot.HandleBlockActions(ctx, open(1)))

	_, _, modals := h.gw.counts()
	require.Equal(t, 1, modals)
	assert.Equal(t, "0", h.gw.modals[0].PrivateMetadata)
	assert.Equal(t, gateway.CallbackQuestionForm, h.gw.modals[0].CallbackID)
}

func TestViewSubmission_RecordsAnswer(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Renderer = gateway.RendererModal })
	ctx := context.Background()
	require.NoError(t, h.bot.machine.Start(ctx, "U1"))

	cb := slack.InteractionCallback{
		Type: slack.InteractionTypeViewSubmission,
		User: slack.User{ID: "U1"},
		View: slack.View{
			CallbackID:      gateway.CallbackQuestionForm,
			PrivateMetadata: "0",
			State: &slack.ViewState{Values: map[string]map[string]slack.BlockAction{
				gateway.BlockAnswerInput: {gateway.ActionQuestionInput: {Value: "Ann"}},
			}},
		},
	}
	require.NoError(t, h.bot.HandleViewSubmission(ctx, cb))

	session, err := h.store.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentIndex)

	cb.View.PrivateMetadata = "not-a-number"
	assert.Error(t, h.bot.HandleViewSubmission(ctx, cb))

	cb.View.CallbackID = "something_else"
	assert.NoError(t, h.bot.HandleViewSubmission(ctx, cb))
}

func TestScheduledStart_LeavesManualSessionAlone(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Delay = 30 * time.Millisecond })
	ctx := context.Background()

	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))
	require.Len(t, h.sched.Pending("U1"), 1)

	// started directly, so the join trigger is still pending
	require.NoError(t, h.bot.machine.Start(ctx, "U1"))
	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 0, "Ada")))

	require.Eventually(t, func() bool { return h.sched.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	h.sched.Stop()

	session, err := h.store.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentIndex)
	require.Len(t, session.Answers, 1)
	assert.Equal(t, "Ada", session.Answers[0].Response)
}

func TestScheduledStart_RestartPolicyStartsOver(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Delay = 30 * time.Millisecond
		c.JoinPolicy = JoinPolicyRestart
	})
	ctx := context.Background()

	require.NoError(t, h.bot.HandleJoin(ctx, "U1"))
	require.NoError(t, h.bot.machine.Start(ctx, "U1"))
	require.NoError(t, h.bot.HandleBlockActions(ctx, submitCallback("U1", 0, "Ada")))

	require.Eventually(t, func() bool { return h.sched.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	h.sched.Stop()

	session, err := h.store.Get("U1")
	require.NoError(t, err)
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Empty(t, session.Answers)
}
