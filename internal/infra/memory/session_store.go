package memory

import (
	"context"
	"sync"
	"time"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSessions = 1024

// SessionStore is an in-memory implementation of app.SessionRepository.
// Live sessions and saved answers are bounded LRUs; entries idle for longer
// than ttl are treated as missing.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions *lru.Cache[string, *app.Session]
	answers  *lru.Cache[string, savedAnswers]
	touched  map[string]time.Time
}

type savedAnswers struct {
	answers []domain.UserAnswer
	savedAt time.Time
}

// NewSessionStore bounds the store to maxSessions (default 1024 when < 1).
// A zero ttl keeps sessions until evicted by size.
func NewSessionStore(maxSessions int, ttl time.Duration) *SessionStore {
	if maxSessions < 1 {
		maxSessions = defaultMaxSessions
	}
	s := &SessionStore{
		ttl:     ttl,
		clock:   time.Now,
		touched: make(map[string]time.Time),
	}
	// Evicted live sessions are closed so subscribers notice and reconnect.
	sessions, err := lru.NewWithEvict(maxSessions, func(id string, session *app.Session) {
		delete(s.touched, id)
		session.Close()
	})
	if err != nil {
		panic(err)
	}
	answers, err := lru.New[string, savedAnswers](maxSessions)
	if err != nil {
		panic(err)
	}
	s.sessions = sessions
	s.answers = answers
	return s
}

func (s *SessionStore) GetOrCreate(_ context.Context, sessionID string, total int) (*app.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.liveLocked(sessionID); ok {
		return session, false, nil
	}
	session := app.NewSessionWithClock(sessionID, total, s.clock)
	s.sessions.Add(sessionID, session)
	s.touched[sessionID] = s.clock()
	return session, true, nil
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(sessionID)
}

func (s *SessionStore) SaveAnswers(_ context.Context, sessionID string, answers []domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if len(answers) == 0 {
		s.answers.Remove(sessionID)
	} else {
		s.answers.Add(sessionID, savedAnswers{
			answers: append([]domain.UserAnswer(nil), answers...),
			savedAt: now,
		})
	}
	if _, ok := s.touched[sessionID]; ok {
		s.touched[sessionID] = now
	}
	return nil
}

func (s *SessionStore) LoadAnswers(_ context.Context, sessionID string) ([]domain.UserAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.answers.Get(sessionID)
	if !ok {
		return nil, nil
	}
	if s.expired(saved.savedAt) {
		s.answers.Remove(sessionID)
		return nil, nil
	}
	return append([]domain.UserAnswer(nil), saved.answers...), nil
}

func (s *SessionStore) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions.Peek(sessionID)
	if !ok || !session.IsIdle() {
		return
	}
	s.sessions.Remove(sessionID)
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(sessionID)
	s.answers.Remove(sessionID)
	return nil
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

func (s *SessionStore) liveLocked(sessionID string) (*app.Session, bool) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	if s.expired(s.touched[sessionID]) && session.IsIdle() {
		s.sessions.Remove(sessionID)
		return nil, false
	}
	s.touched[sessionID] = s.clock()
	return session, true
}

func (s *SessionStore) expired(at time.Time) bool {
	return s.ttl > 0 && s.clock().Sub(at) > s.ttl
}
