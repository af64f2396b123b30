// Package storage records which members have already been welcomed so a
// repeated join event does not start a second questionnaire.
package storage

import (
	"context"
	"sync"
	"time"
)

// JoinRecord is what the ledger keeps per member
type JoinRecord struct {
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// JoinLedger remembers joins for a bounded time
type JoinLedger interface {
	// MarkJoined records the join and reports whether it is the first one
	// still on record. An existing record is left untouched.
	MarkJoined(ctx context.Context, userID string, at time.Time) (bool, error)
	// Lookup returns the record, or nil when the member is unknown
	Lookup(ctx context.Context, userID string) (*JoinRecord, error)
	Forget(ctx context.Context, userID string) error
	Close() error
}

// MemoryLedger is the in-process ledger used when no redis URL is configured.
// It is lost on restart.
type MemoryLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	JoinRecord
	expiresAt time.Time
}

var _ JoinLedger = (*MemoryLedger)(nil)

// NewMemoryLedger creates a ledger whose entries expire after ttl; ttl <= 0 keeps them forever
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{
		ttl:     ttl,
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (l *MemoryLedger) MarkJoined(_ context.Context, userID string, at time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.live(userID); ok {
		return false, nil
	}

	rec := memoryRecord{JoinRecord: JoinRecord{UserID: userID, JoinedAt: at}}
	if l.ttl > 0 {
		rec.expiresAt = l.now().Add(l.ttl)
	}
	l.records[userID] = rec
	return true, nil
}

func (l *MemoryLedger) Lookup(_ context.Context, userID string) (*JoinRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.live(userID)
	if !ok {
		return nil, nil
	}
	out := rec.JoinRecord
	return &out, nil
}

func (l *MemoryLedger) Forget(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, userID)
	return nil
}

func (l *MemoryLedger) Close() error { return nil }

// live must be called with mu held
func (l *MemoryLedger) live(userID string) (memoryRecord, bool) {
	rec, ok := l.records[userID]
	if !ok {
		return memoryRecord{}, false
	}
	if !rec.expiresAt.IsZero() && !l.now().Before(rec.expiresAt) {
		delete(l.records, userID)
		return memoryRecord{}, false
	}
	return rec, true
}
