package coordinator

import (
	"sync"

	"github.com/hupe1980/ragmesh/core"
)

// DefaultMaxTurns is the per-session retention cap. Oldest turns are evicted
// first (FIFO); this is distinct from the smaller grounding window forwarded
// to the model.
const DefaultMaxTurns = 10

// SessionStore maps session ids to bounded conversation histories. A session
// is created on first reference and removed only by Clear. Safe for
// concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	maxTurns int
	turns    map[string][]core.Turn
}

// NewSessionStore creates a store retaining at most maxTurns turns per
// session (DefaultMaxTurns when maxTurns <= 0).
func NewSessionStore(maxTurns int) *SessionStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &SessionStore{maxTurns: maxTurns, turns: make(map[string][]core.Turn)}
}

// Append adds a turn to the session, evicting the oldest turns beyond the
// retention cap.
func (s *SessionStore) Append(sessionID string, turn core.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := append(s.turns[sessionID], turn)
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.turns[sessionID] = turns
}

// Turns returns a copy of the session's retained turns, oldest first.
func (s *SessionStore) Turns(sessionID string) []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]core.Turn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	return turns
}

// Recent returns a copy of the most recent n turns, oldest first.
func (s *SessionStore) Recent(sessionID string, n int) []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.turns[sessionID]
	if n < len(turns) {
		turns = turns[len(turns)-n:]
	}
	out := make([]core.Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear removes the session's history.
func (s *SessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
}
