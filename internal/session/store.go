package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps sessions in memory, keyed by a random id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// Create starts a new session with a fresh id.
func (st *Store) Create() *Session {
	s := New(uuid.NewString())
	s.lastSeen = st.now()

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given id and marks it as used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// Delete removes a session, cancelling its analysis if one is running.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Reset()
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions unused for longer than idle and returns how many
// were removed.
func (st *Store) Sweep(idle time.Duration) int {
	cutoff := st.now().Add(-idle)
	return st.removeIdle(st.idleBefore(cutoff), cutoff)
}

func (st *Store) idleBefore(cutoff time.Time) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var ids []string
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// removeIdle deletes the listed sessions that are still idle at cutoff.
// Sessions used since they were listed stay.
func (st *Store) removeIdle(ids []string, cutoff time.Time) int {
	var removed []*Session
	st.mu.Lock()
	for _, id := range ids {
		s, ok := st.sessions[id]
		if !ok || !s.idleSince().Before(cutoff) {
			continue
		}
		delete(st.sessions, id)
		removed = append(removed, s)
	}
	st.mu.Unlock()

	for _, s := range removed {
		s.Reset()
	}
	return len(removed)
}

// Janitor sweeps the store every interval until ctx is done.
func (st *Store) Janitor(ctx context.Context, interval, idle time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(idle); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
