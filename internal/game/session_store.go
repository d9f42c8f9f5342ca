package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type storedSession struct {
	session  *Session
	lastSeen time.Time
}

// SessionStore keeps the live sessions of the process in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*storedSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*storedSession),
	}
}

func (s *SessionStore) AddSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &storedSession{session: session, lastSeen: time.Now()}
}

// GetSession looks a session up and marks it as seen.
func (s *SessionStore) GetSession(id uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, exists := s.sessions[id]
	if !exists {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.session, true
}

// DeleteSession removes a session and cancels its pending timers.
func (s *SessionStore) DeleteSession(id uuid.UUID) {
	s.mu.Lock()
	entry, exists := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if exists {
		entry.session.ResetRound()
	}
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle deletes every session not looked up since before cutoff and
// returns their ids.
func (s *SessionStore) EvictIdle(cutoff time.Time) []uuid.UUID {
	s.mu.Lock()
	var stale []*storedSession
	var ids []uuid.UUID
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry)
			ids = append(ids, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range stale {
		entry.session.ResetRound()
	}
	return ids
}
