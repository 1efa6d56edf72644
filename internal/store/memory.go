package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// MemoryStore is an in-process Store with per-entry expiry. Reads check the
// deadline so a stale entry is never served even between sweeps; Sweep
// reclaims the memory and is meant to run on a cron schedule.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	ttl   time.Duration
	clock clockwork.Clock
}

type memoryEntry struct {
	sched     *model.Schedule
	expiresAt time.Time
}

// NewMemoryStore creates a MemoryStore whose entries live for ttl.
func NewMemoryStore(ttl time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*model.Schedule, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.clock.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.sched, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, sched *model.Schedule) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		sched:     sched,
		expiresAt: s.clock.Now().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		appLog.Info("schedule store sweep", "removed", removed, "remaining", remaining)
	}
	return removed
}

// Len reports the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
