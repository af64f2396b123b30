// Package scheduler runs one-shot actions for a member after a delay.
//
// Triggers live only in memory: they fire at most once, or never if the
// process exits first. Scheduling the same member twice yields two
// independent triggers; callers that want deduplication check Pending first.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"onboarding_bot/src/logger"

	"github.com/google/uuid"
)

// Action is the deferred work. Collaborators are injected by the caller's closure
// construction, not captured from the platform event that scheduled it.
type Action func(ctx context.Context, userID string) error

// Handle identifies one scheduled trigger
type Handle string

// PendingTrigger describes a trigger that has not fired yet
type PendingTrigger struct {
	Handle Handle
	UserID string
	FireAt time.Time
}

type entry struct {
	PendingTrigger
	action Action
	timer  *time.Timer
}

// Scheduler is safe for concurrent use
type Scheduler struct {
	mu      sync.Mutex
	entries map[Handle]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
	stopped bool
}

// New creates a scheduler whose actions receive a context derived from parent.
// The context is cancelled by Stop.
func New(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		entries: make(map[Handle]*entry),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Schedule registers action to run for userID no earlier than delay from now.
// It never blocks on the delay.
func (s *Scheduler) Schedule(userID string, delay time.Duration, action Action) (Handle, error) {
	if action == nil {
		return "", fmt.Errorf("scheduler: nil action for %s", userID)
	}
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return "", fmt.Errorf("scheduler: stopped")
	}

	h := Handle(uuid.NewString())
	e := &entry{
		PendingTrigger: PendingTrigger{
			Handle: h,
			UserID: userID,
			FireAt: s.now().Add(delay),
		},
		action: action,
	}
	e.timer = time.AfterFunc(delay, func() { s.fire(h) })
	s.entries[h] = e

	logger.Info().
		Str("user_id", userID).
		Str("handle", string(h)).
		Time("fire_at", e.FireAt).
		Msg("Trigger scheduled")

	return h, nil
}

// Cancel removes a trigger whose action has not started. It reports whether
// anything was cancelled.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[h]
	if !ok {
		return false
	}
	delete(s.entries, h)
	// a timer that already fired finds no entry in fire and returns
	e.timer.Stop()
	return true
}

// Pending lists the member's triggers ordered by fire time
func (s *Scheduler) Pending(userID string) []PendingTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PendingTrigger
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e.PendingTrigger)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// All lists every pending trigger ordered by fire time
func (s *Scheduler) All() []PendingTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingTrigger, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.PendingTrigger)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Len is the number of pending triggers
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every pending trigger and waits for running actions to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for h, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, h)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) fire(h Handle) {
	s.mu.Lock()
	e, ok := s.entries[h]
	if ok {
		delete(s.entries, h)
		s.wg.Add(1)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	defer s.wg.Done()

	s.run(e)
}

func (s *Scheduler) run(e *entry) {
	// A failing action must not take down the process or other triggers.
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("user_id", e.UserID).
				Str("handle", string(e.Handle)).
				Interface("panic", r).
				Msg("Trigger action panicked")
		}
	}()

	logger.Info().Str("user_id", e.UserID).Str("handle", string(e.Handle)).Msg("Trigger fired")

	if err := e.action(s.ctx, e.UserID); err != nil {
		logger.Error().
			Err(err).
			Str("user_id", e.UserID).
			Str("handle", string(e.Handle)).
			Msg("Trigger action failed")
	}
}
