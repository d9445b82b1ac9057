package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"geoportal-service/internal/domain"
	"geoportal-service/internal/questionnaire"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts how questionnaire sessions are stored (in-memory, Redis, etc).
// Live sessions are process-local; answers may additionally be persisted so a
// session can be rebuilt after a restart.
type SessionRepository interface {
	GetOrCreate(ctx context.Context, sessionID string, total int) (*Session, bool, error)
	Get(sessionID string) (*Session, bool)
	SaveAnswers(ctx context.Context, sessionID string, answers []domain.UserAnswer) error
	LoadAnswers(ctx context.Context, sessionID string) ([]domain.UserAnswer, error)
	// Release drops the live session but keeps persisted answers.
	Release(sessionID string)
	Delete(ctx context.Context, sessionID string) error
}

// ScoreRecorder observes scoring outcomes; metrics.Metrics implements it.
type ScoreRecorder interface {
	ObserveScore(policy, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveScore(string, string) {}

// QuestionnaireService contains the questionnaire use cases.
type QuestionnaireService struct {
	catalog  *questionnaire.Catalog
	topics   *CatalogService
	sessions SessionRepository
	policy   questionnaire.Policy
	logger   *zap.Logger
	recorder ScoreRecorder
}

type QuestionnaireOption func(*QuestionnaireService)

func WithScorePolicy(p questionnaire.Policy) QuestionnaireOption {
	return func(s *QuestionnaireService) { s.policy = p }
}

func WithLogger(logger *zap.Logger) QuestionnaireOption {
	return func(s *QuestionnaireService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithScoreRecorder(r ScoreRecorder) QuestionnaireOption {
	return func(s *QuestionnaireService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewQuestionnaireService(catalog *questionnaire.Catalog, topics *CatalogService, sessions SessionRepository, opts ...QuestionnaireOption) *QuestionnaireService {
	s := &QuestionnaireService{
		catalog:  catalog,
		topics:   topics,
		sessions: sessions,
		policy:   questionnaire.Lenient,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Questions returns the question set this service scores against. It is fixed
// for the life of the service, so a reseeded catalog takes effect on restart.
func (s *QuestionnaireService) Questions() domain.Questionnaire {
	return domain.Questionnaire{Topics: s.catalog.Topics(), Questions: s.catalog.Questions()}
}

// Score is the stateless scoring use case.
func (s *QuestionnaireService) Score(ctx context.Context, answers []domain.UserAnswer) (domain.QuestionnaireResult, error) {
	return s.score(ctx, answers)
}

func (s *QuestionnaireService) score(ctx context.Context, answers []domain.UserAnswer) (domain.QuestionnaireResult, error) {
	result, err := s.catalog.Score(answers, questionnaire.WithPolicy(s.policy))
	if err != nil {
		s.recorder.ObserveScore(s.policy.String(), "rejected")
		return domain.QuestionnaireResult{}, err
	}
	outcome := "ok"
	if len(result.Anomalies) > 0 {
		outcome = "anomalies"
		s.logger.Warn("questionnaire answers skipped",
			zap.Int("answered", result.Answered),
			zap.Any("anomalies", result.Anomalies))
	}
	s.recorder.ObserveScore(s.policy.String(), outcome)

	if s.topics != nil {
		related, err := s.topics.RelatedResources(ctx, result.RecommendedTopics)
		if err != nil {
			return domain.QuestionnaireResult{}, err
		}
		result.RecommendedResources = related
	}
	return result, nil
}

// Start joins an existing session or creates one. An empty ID allocates a new
// session. Persisted answers are replayed into a freshly created session.
func (s *QuestionnaireService) Start(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session, created, err := s.sessions.GetOrCreate(ctx, sessionID, s.catalog.Len())
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if !created {
		return session.Snapshot(), nil
	}

	answers, err := s.sessions.LoadAnswers(ctx, sessionID)
	if err != nil {
		s.logger.Warn("load persisted answers", zap.String("session_id", sessionID), zap.Error(err))
		answers = nil
	}
	s.orderAnswers(answers)

	snapshot, err := session.restore(answers, s.scorer(ctx))
	if err != nil {
		s.logger.Warn("discard persisted answers", zap.String("session_id", sessionID), zap.Error(err))
		return session.restore(nil, s.scorer(ctx))
	}
	return snapshot, nil
}

// Snapshot returns the live state of a session.
func (s *QuestionnaireService) Snapshot(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Answer records or overwrites the selection for one question and rescoring
// is broadcast to subscribers.
func (s *QuestionnaireService) Answer(ctx context.Context, sessionID string, answer domain.UserAnswer) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	if _, _, err := s.catalog.Resolve(answer); err != nil {
		return domain.SessionSnapshot{}, err
	}

	snapshot, err := session.answer(answer, s.catalog.Position(answer.QuestionID), s.scorer(ctx))
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	s.persist(ctx, sessionID, snapshot.Answers)
	return snapshot, nil
}

// Reset clears all answers and returns to the first question.
func (s *QuestionnaireService) Reset(ctx context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	snapshot, err := session.restore(nil, s.scorer(ctx))
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	s.persist(ctx, sessionID, nil)
	return snapshot, nil
}

// Next advances the current question; it stops at the last one.
func (s *QuestionnaireService) Next(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	return s.move(sessionID, 1)
}

// Previous steps back; it stops at the first question.
func (s *QuestionnaireService) Previous(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	return s.move(sessionID, -1)
}

func (s *QuestionnaireService) move(sessionID string, delta int) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.move(delta), nil
}

// Subscribe returns a channel that receives session updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuestionnaireService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave releases the live session once no subscriber is attached.
func (s *QuestionnaireService) Leave(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	if session.IsIdle() {
		s.sessions.Release(sessionID)
	}
}

// End deletes the session and its persisted answers.
func (s *QuestionnaireService) End(ctx context.Context, sessionID string) error {
	if session, ok := s.sessions.Get(sessionID); ok {
		session.Close()
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *QuestionnaireService) scorer(ctx context.Context) scoreFunc {
	return func(answers []domain.UserAnswer) (domain.QuestionnaireResult, error) {
		return s.score(ctx, answers)
	}
}

func (s *QuestionnaireService) persist(ctx context.Context, sessionID string, answers []domain.UserAnswer) {
	if err := s.sessions.SaveAnswers(ctx, sessionID, answers); err != nil {
		s.logger.Warn("persist answers", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// orderAnswers sorts answers by question position; unknown questions go last.
func (s *QuestionnaireService) orderAnswers(answers []domain.UserAnswer) {
	pos := func(a domain.UserAnswer) int {
		if p := s.catalog.Position(a.QuestionID); p >= 0 {
			return p
		}
		return s.catalog.Len()
	}
	sort.SliceStable(answers, func(i, j int) bool { return pos(answers[i]) < pos(answers[j]) })
}

type scoreFunc func([]domain.UserAnswer) (domain.QuestionnaireResult, error)

var errSessionClosed = errors.New("session closed")

// Session is an in-memory representation of one student's questionnaire.
type Session struct {
	id          string
	total       int
	now         func() time.Time
	mu          sync.RWMutex
	answers     []domain.UserAnswer
	current     int
	result      domain.QuestionnaireResult
	updatedAt   time.Time
	closed      bool
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, total int) *Session {
	return NewSessionWithClock(id, total, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, total int, now func() time.Time) *Session {
	return &Session{
		id:          id,
		total:       total,
		now:         now,
		updatedAt:   now(),
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// answer overwrites the selection for the question in place, or appends it.
// The new answer set is committed only if scoring succeeds.
func (s *Session) answer(a domain.UserAnswer, position int, score scoreFunc) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SessionSnapshot{}, errSessionClosed
	}

	next := append([]domain.UserAnswer(nil), s.answers...)
	replaced := false
	for i := range next {
		if next[i].QuestionID == a.QuestionID {
			next[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, a)
	}

	result, err := score(next)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	s.answers = next
	s.result = result
	if position >= 0 {
		s.current = position
	}
	return s.broadcastLocked(), nil
}

// restore replaces the whole answer set, e.g. on reset or rehydration.
func (s *Session) restore(answers []domain.UserAnswer, score scoreFunc) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SessionSnapshot{}, errSessionClosed
	}

	answers = questionnaire.Dedupe(answers)
	result, err := score(answers)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	s.answers = answers
	s.result = result
	s.current = 0
	return s.broadcastLocked(), nil
}

func (s *Session) move(delta int) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current + delta
	if next < 0 {
		next = 0
	}
	if s.total > 0 && next > s.total-1 {
		next = s.total - 1
	}
	if next == s.current {
		// Subscribers still get an update so a client stepping past either
		// end sees its position confirmed.
		return s.publishLocked(s.snapshotLocked())
	}
	s.current = next
	return s.broadcastLocked()
}

// Snapshot returns the current state without notifying subscribers.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() []domain.UserAnswer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UserAnswer(nil), s.answers...)
}

// IsIdle reports whether no subscriber is attached.
func (s *Session) IsIdle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) == 0
}

func (s *Session) subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// Sent under the lock so Close cannot close ch first; ch is fresh and
	// buffered, so this never blocks.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close ends every subscription; later mutations fail.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Closed reports whether the session was ended or evicted.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) broadcastLocked() domain.SessionSnapshot {
	s.updatedAt = s.now()
	return s.publishLocked(s.snapshotLocked())
}

func (s *Session) publishLocked(snap domain.SessionSnapshot) domain.SessionSnapshot {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace its stale update with the latest.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	answers := append([]domain.UserAnswer(nil), s.answers...)
	if answers == nil {
		answers = []domain.UserAnswer{}
	}
	return domain.SessionSnapshot{
		SessionID:       s.id,
		Answers:         answers,
		CurrentQuestion: s.current,
		TotalQuestions:  s.total,
		Complete:        questionnaire.IsComplete(s.answers, s.total),
		Result:          s.result,
		UpdatedAt:       s.updatedAt,
	}
}
