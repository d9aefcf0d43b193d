package session

import (
	"context"
	"sync"
	"time"

	"github.com/inventario/inventario/internal/shared"
)

// MemoryStore keeps sessions in process memory. The outer lock only guards the
// token index; every session has its own mutex so unrelated sessions never
// contend with each other.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	sess    Session
	items   map[int64]int
	flashes []shared.FlashMessage
	dead    bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) lookup(token string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[token]
	return e, ok
}

// withEntry runs fn while holding the per-session lock. It fails when the
// session was removed concurrently or the caller gave up.
func (s *MemoryStore) withEntry(ctx context.Context, token string, fn func(*memoryEntry) error) error {
	e, ok := s.lookup(token)
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return ErrSessionNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(e)
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.withEntry(ctx, token, func(e *memoryEntry) error {
		sess = e.sess
		return nil
	})
	return sess, err
}

// Rotate swaps oldToken for next.
func (s *MemoryStore) Rotate(ctx context.Context, oldToken string, next Session) error {
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	old := s.entries[oldToken]
	if oldToken != "" {
		delete(s.entries, oldToken)
	}
	s.entries[next.Token] = &memoryEntry{sess: next, items: make(map[int64]int)}
	s.mu.Unlock()

	if old != nil {
		old.kill()
	}
	return nil
}

// Touch records activity.
func (s *MemoryStore) Touch(ctx context.Context, token string, at time.Time) error {
	return s.withEntry(ctx, token, func(e *memoryEntry) error {
		if at.After(e.sess.LastActivity) {
			e.sess.LastActivity = at
		}
		return nil
	})
}

// Delete removes the session and its cart. Unknown tokens are ignored.
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	e, ok := s.entries[token]
	delete(s.entries, token)
	s.mu.Unlock()
	if ok {
		e.kill()
	}
	return nil
}

// Sweep removes sessions idle since before cutoff.
func (s *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.RLock()
	candidates := make([]string, 0)
	for token, e := range s.entries {
		e.mu.Lock()
		if e.sess.LastActivity.Before(cutoff) {
			candidates = append(candidates, token)
		}
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	removed := 0
	for _, token := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		s.mu.Lock()
		e, ok := s.entries[token]
		if ok {
			e.mu.Lock()
			stale := e.sess.LastActivity.Before(cutoff)
			e.mu.Unlock()
			if stale {
				delete(s.entries, token)
			} else {
				ok = false
			}
		}
		s.mu.Unlock()
		if ok {
			e.kill()
			removed++
		}
	}
	return removed, nil
}

// IncrementItem adds qty to the cart line for itemID and returns the new
// quantity. A sum above shared.MaxCartQuantity leaves the line unchanged.
func (s *MemoryStore) IncrementItem(ctx context.Context, token string, itemID int64, qty int) (int, error) {
	var total int
	err := s.withEntry(ctx, token, func(e *memoryEntry) error {
		if qty < 1 || qty > shared.MaxCartQuantity-e.items[itemID] {
			return shared.ErrInvalidQuantity
		}
		e.items[itemID] += qty
		total = e.items[itemID]
		return nil
	})
	return total, err
}

// RemoveItem deletes the cart line for itemID if present.
func (s *MemoryStore) RemoveItem(ctx context.Context, token string, itemID int64) error {
	return s.withEntry(ctx, token, func(e *memoryEntry) error {
		delete(e.items, itemID)
		return nil
	})
}

// Items returns a snapshot of the cart.
func (s *MemoryStore) Items(ctx context.Context, token string) (map[int64]int, error) {
	var out map[int64]int
	err := s.withEntry(ctx, token, func(e *memoryEntry) error {
		out = make(map[int64]int, len(e.items))
		for id, qty := range e.items {
			out[id] = qty
		}
		return nil
	})
	return out, err
}

// PushFlash queues a flash message.
func (s *MemoryStore) PushFlash(ctx context.Context, token string, msg shared.FlashMessage) error {
	return s.withEntry(ctx, token, func(e *memoryEntry) error {
		e.flashes = append(e.flashes, msg)
		return nil
	})
}

// PopFlash retrieves and clears the oldest flash message.
func (s *MemoryStore) PopFlash(ctx context.Context, token string) (*shared.FlashMessage, error) {
	var msg *shared.FlashMessage
	err := s.withEntry(ctx, token, func(e *memoryEntry) error {
		if len(e.flashes) == 0 {
			return nil
		}
		first := e.flashes[0]
		e.flashes = e.flashes[1:]
		msg = &first
		return nil
	})
	return msg, err
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (e *memoryEntry) kill() {
	e.mu.Lock()
	e.dead = true
	e.items = nil
	e.flashes = nil
	e.mu.Unlock()
}

var _ Store = (*MemoryStore)(nil)
