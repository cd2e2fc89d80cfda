package repository

import (
	"context"
	"sync"
	"time"

	"tourbook/internal/models"
)

// MemoryStateRepository is the in-process fallback store. Entries expire
// after ttl of inactivity; Sweep drops them.
type MemoryStateRepository struct {
	states     sync.Map // sessionID -> memoryEntry
	rateLimits sync.Map // sessionID -> *rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	state     models.SelectionState
	expiresAt time.Time
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{ttl: ttl, now: time.Now}
}

func (r *MemoryStateRepository) GetSelection(_ context.Context, sessionID string) (*models.SelectionState, error) {
	val, ok := r.states.Load(sessionID)
	if !ok {
		return nil, nil
	}
	entry := val.(memoryEntry)
	if r.expired(entry.expiresAt) {
		r.states.CompareAndDelete(sessionID, val)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (r *MemoryStateRepository) SetSelection(_ context.Context, state *models.SelectionState) error {
	entry := memoryEntry{state: *state}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.states.Store(state.SessionID, entry)
	return nil
}

func (r *MemoryStateRepository) ClearSelection(_ context.Context, sessionID string) error {
	r.states.Delete(sessionID)
	return nil
}

func (r *MemoryStateRepository) CheckRateLimit(_ context.Context, sessionID string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(sessionID, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}

// Sweep removes expired selections and rate-limit windows and reports how
// many selections were dropped.
func (r *MemoryStateRepository) Sweep() int {
	removed := 0
	r.states.Range(func(key, val any) bool {
		// a selection stored since Range loaded val is kept
		if r.expired(val.(memoryEntry).expiresAt) && r.states.CompareAndDelete(key, val) {
			removed++
		}
		return true
	})
	now := r.now()
	r.rateLimits.Range(func(key, val any) bool {
		entry := val.(*rateLimitEntry)
		entry.mu.Lock()
		stale := now.After(entry.expiresAt)
		entry.mu.Unlock()
		if stale {
			r.rateLimits.CompareAndDelete(key, val)
		}
		return true
	})
	return removed
}

func (r *MemoryStateRepository) expired(at time.Time) bool {
	return !at.IsZero() && r.now().After(at)
}
