package redis

import (
	"context"
	"sync"
	"time"

	"geoportal-service/internal/app"
	"geoportal-service/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const defaultMaxSessions = 1024

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Live sessions stay in a bounded local LRU to reuse the in-process
// broadcast logic; answers are kept in Redis so another instance, or this
// one after a restart, can rebuild the session:
//
//	SET  questionnaire:session:{id} 1 EX ttl                (liveness)
//	HSET questionnaire:session:{id}:answers {questionID} {optionID}
//
// An idle local session whose liveness key has expired is dropped on the
// next lookup.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.Mutex
	sessions *lru.Cache[string, *app.Session]
}

// NewSessionStore bounds the local sessions to maxSessions (default 1024
// when < 1). Evicted sessions are closed so subscribers reconnect.
func NewSessionStore(client *redis.Client, maxSessions int, ttl time.Duration) *SessionStore {
	if maxSessions < 1 {
		maxSessions = defaultMaxSessions
	}
	sessions, err := lru.NewWithEvict(maxSessions, func(_ string, session *app.Session) {
		session.Close()
	})
	if err != nil {
		panic(err)
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: sessions,
	}
}

func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID string, total int) (*app.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.liveLocked(ctx, sessionID); ok {
		return session, false, nil
	}
	session := app.NewSession(sessionID, total)
	s.sessions.Add(sessionID, session)
	// best-effort liveness marker
	_ = s.client.Set(ctx, s.key(sessionID), "1", s.ttl).Err()
	return session, true, nil
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(context.Background(), sessionID)
}

// Len reports the number of live local sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// liveLocked returns the local session if its liveness key still exists,
// sliding the key's expiry. Sessions with attached subscribers are kept and
// their key is restored. Redis errors keep the session.
func (s *SessionStore) liveLocked(ctx context.Context, sessionID string) (*app.Session, bool) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}

	var (
		alive bool
		err   error
	)
	if s.ttl > 0 {
		alive, err = s.client.Expire(ctx, s.key(sessionID), s.ttl).Result()
	} else {
		var n int64
		n, err = s.client.Exists(ctx, s.key(sessionID)).Result()
		alive = n > 0
	}
	if err != nil || alive {
		return session, true
	}
	if !session.IsIdle() {
		_ = s.client.Set(ctx, s.key(sessionID), "1", s.ttl).Err()
		return session, true
	}
	s.sessions.Remove(sessionID)
	return nil, false
}

// SaveAnswers replaces the stored answer set and refreshes both TTLs.
func (s *SessionStore) SaveAnswers(ctx context.Context, sessionID string, answers []domain.UserAnswer) error {
	key := s.answersKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(answers) > 0 {
		values := make([]any, 0, 2*len(answers))
		for _, a := range answers {
			values = append(values, a.QuestionID, a.SelectedOptionID)
		}
		pipe.HSet(ctx, key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sessionID), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// LoadAnswers returns stored answers in no particular order.
func (s *SessionStore) LoadAnswers(ctx context.Context, sessionID string) ([]domain.UserAnswer, error) {
	fields, err := s.client.HGetAll(ctx, s.answersKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	answers := make([]domain.UserAnswer, 0, len(fields))
	for questionID, optionID := range fields {
		answers = append(answers, domain.UserAnswer{QuestionID: questionID, SelectedOptionID: optionID})
	}
	return answers, nil
}

func (s *SessionStore) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions.Peek(sessionID)
	if !ok || !session.IsIdle() {
		return
	}
	s.sessions.Remove(sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	s.sessions.Remove(sessionID)
	s.mu.Unlock()
	return s.client.Del(ctx, s.key(sessionID), s.answersKey(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "questionnaire:session:" + sessionID
}

func (s *SessionStore) answersKey(sessionID string) string {
	return s.key(sessionID) + ":answers"
}
