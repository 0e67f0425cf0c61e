// Package cooldown tracks per-actor re-use intervals.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Store records cooldown expiries keyed by (actor, key).
type Store interface {
	// Remaining returns how long until key may be used again; 0 when ready.
	Remaining(ctx context.Context, actorID, key string) (time.Duration, error)
	// Set starts a cooldown of d. d <= 0 clears the entry.
	Set(ctx context.Context, actorID, key string, d time.Duration) error
	// Active lists the running cooldowns of an actor.
	Active(ctx context.Context, actorID string) (map[string]time.Duration, error)
	// Clear drops every cooldown of an actor.
	Clear(ctx context.Context, actorID string) error
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock uses time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// MemoryStore keeps cooldowns in process memory.
type MemoryStore struct {
	clock Clock

	mu      sync.Mutex
	expires map[string]map[string]time.Time
}

// NewMemoryStore creates a store; a nil clock means RealClock.
func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = RealClock{}
	}
	return &MemoryStore{
		clock:   clock,
		expires: make(map[string]map[string]time.Time),
	}
}

func (s *MemoryStore) Remaining(_ context.Context, actorID, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.expires[actorID][key]
	if !ok {
		return 0, nil
	}
	left := at.Sub(s.clock.Now())
	if left <= 0 {
		delete(s.expires[actorID], key)
		return 0, nil
	}
	return left, nil
}

func (s *MemoryStore) Set(_ context.Context, actorID, key string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d <= 0 {
		delete(s.expires[actorID], key)
		return nil
	}
	m := s.expires[actorID]
	if m == nil {
		m = make(map[string]time.Time)
		s.expires[actorID] = m
	}
	m[key] = s.clock.Now().Add(d)
	return nil
}

func (s *MemoryStore) Active(_ context.Context, actorID string) (map[string]time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make(map[string]time.Duration)
	for key, at := range s.expires[actorID] {
		if left := at.Sub(now); left > 0 {
			out[key] = left
		} else {
			delete(s.expires[actorID], key)
		}
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, actorID)
	return nil
}
