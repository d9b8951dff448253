package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"philosophers-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. A single mutex makes every
// operation atomic, which is how the uniqueness rules are enforced.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	games      map[int64]domain.Game
	levels     map[int64]domain.Level
	categories map[int64][]domain.CategoryBinding
	sessions   map[int64]domain.GameSession
	questions  map[int64]domain.Question
	clock      func() time.Time
}

func NewStore() *Store {
	return &Store{
		games:      make(map[int64]domain.Game),
		levels:     make(map[int64]domain.Level),
		categories: make(map[int64][]domain.CategoryBinding),
		sessions:   make(map[int64]domain.GameSession),
		questions:  make(map[int64]domain.Question),
		clock:      time.Now,
	}
}

// WithClock replaces the clock used for modification times.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.clock = now
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) GetGame(_ context.Context, id int64) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return game, nil
}

func (s *Store) SaveGame(_ context.Context, game *domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if game.ID == 0 {
		game.ID = s.id()
	} else if _, ok := s.games[game.ID]; !ok {
		return domain.ErrGameNotFound
	}
	s.games[game.ID] = *game
	return nil
}

func (s *Store) DeleteGame(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return domain.ErrGameNotFound
	}
	for sid, session := range s.sessions {
		if session.Game != id {
			continue
		}
		for qid, q := range s.questions {
			if q.Session == sid {
				delete(s.questions, qid)
			}
		}
		delete(s.sessions, sid)
	}
	for lid, level := range s.levels {
		if level.Game == id {
			delete(s.categories, lid)
			delete(s.levels, lid)
		}
	}
	delete(s.games, id)
	return nil
}

func (s *Store) ListActiveLevels(_ context.Context, gameID int64) ([]domain.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLevels(gameID), nil
}

func (s *Store) activeLevels(gameID int64) []domain.Level {
	levels := make([]domain.Level, 0)
	for _, l := range s.levels {
		if l.Game == gameID && l.State == domain.LevelActive {
			levels = append(levels, l)
		}
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Position != levels[j].Position {
			return levels[i].Position < levels[j].Position
		}
		return levels[i].ID < levels[j].ID
	})
	return levels
}

func (s *Store) GetLevel(_ context.Context, id int64) (domain.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level, ok := s.levels[id]
	if !ok {
		return domain.Level{}, domain.ErrLevelNotFound
	}
	return level, nil
}

func (s *Store) SaveLevel(_ context.Context, level *domain.Level, categories []domain.CategoryBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[level.Game]; !ok {
		return domain.ErrGameNotFound
	}
	if level.ID == 0 {
		level.ID = s.id()
		level.State = domain.LevelActive
		level.Position = len(s.activeLevels(level.Game))
	} else if _, ok := s.levels[level.ID]; !ok {
		return domain.ErrLevelNotFound
	}
	s.levels[level.ID] = *level

	bindings := make([]domain.CategoryBinding, 0, len(categories))
	for _, c := range categories {
		c.ID = s.id()
		c.Level = level.ID
		bindings = append(bindings, c)
	}
	s.categories[level.ID] = bindings
	return nil
}

func (s *Store) SetLevelImage(_ context.Context, id int64, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	level, ok := s.levels[id]
	if !ok {
		return domain.ErrLevelNotFound
	}
	level.Image = image
	s.levels[id] = level
	return nil
}

func (s *Store) ListCategories(_ context.Context, levelID int64) ([]domain.CategoryBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bindings := s.categories[levelID]
	out := make([]domain.CategoryBinding, len(bindings))
	copy(out, bindings)
	return out, nil
}

func (s *Store) DeleteLevel(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	level, ok := s.levels[id]
	if !ok {
		return domain.ErrLevelNotFound
	}
	if level.State != domain.LevelActive {
		return domain.ErrInvalidTransition
	}
	level.State = domain.LevelDeleted
	s.levels[id] = level
	s.renumber(level.Game)
	return nil
}

func (s *Store) MoveLevel(_ context.Context, id int64, dir domain.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	level, ok := s.levels[id]
	if !ok {
		return domain.ErrLevelNotFound
	}
	s.renumber(level.Game)
	moved, other, swapped, err := domain.SwapWithNeighbour(s.activeLevels(level.Game), id, dir)
	if err != nil || !swapped {
		return err
	}
	s.levels[moved.ID] = moved
	s.levels[other.ID] = other
	return nil
}

func (s *Store) RenumberLevels(_ context.Context, gameID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renumber(gameID)
	return nil
}

func (s *Store) renumber(gameID int64) {
	for _, l := range domain.Renumber(s.activeLevels(gameID)) {
		s.levels[l.ID] = l
	}
}

func (s *Store) FindProgressSession(_ context.Context, gameID, userID int64) (domain.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.progressSession(gameID, userID); ok {
		return session, nil
	}
	return domain.GameSession{}, domain.ErrSessionNotFound
}

func (s *Store) progressSession(gameID, userID int64) (domain.GameSession, bool) {
	for _, session := range s.sessions {
		if session.Game == gameID && session.User == userID && session.InProgress() {
			return session, true
		}
	}
	return domain.GameSession{}, false
}

func (s *Store) CreateSession(_ context.Context, session *domain.GameSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.progressSession(session.Game, session.User); ok {
		*session = existing
		return false, nil
	}
	session.ID = s.id()
	session.State = domain.SessionProgress
	s.sessions[session.ID] = *session
	return true, nil
}

func (s *Store) DumpProgressSessions(_ context.Context, gameID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for id, session := range s.sessions {
		if session.Game == gameID && session.User == userID && session.InProgress() {
			session.State = domain.SessionDumped
			session.TimeModified = now
			s.sessions[id] = session
		}
	}
	return nil
}

func (s *Store) GetSession(_ context.Context, id int64) (domain.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) TransitionSession(_ context.Context, id int64, from, to domain.SessionState) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	if session.State != from {
		return domain.GameSession{}, domain.ErrInvalidTransition
	}
	session.State = to
	session.TimeModified = s.clock()
	s.sessions[id] = session
	return session, nil
}

func (s *Store) ScoreTotals(_ context.Context, gameID int64, since time.Time) ([]domain.UserScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]domain.GameSession, 0)
	for _, session := range s.sessions {
		if session.Game == gameID && !session.TimeModified.Before(since) {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].User != sessions[j].User {
			return sessions[i].User < sessions[j].User
		}
		return sessions[i].ID < sessions[j].ID
	})
	return domain.AggregateScores(sessions), nil
}

func (s *Store) UserScore(ctx context.Context, gameID, userID int64) (domain.UserScore, error) {
	totals, err := s.ScoreTotals(ctx, gameID, time.Time{})
	if err != nil {
		return domain.UserScore{}, err
	}
	for _, t := range totals {
		if t.User == userID {
			return t, nil
		}
	}
	return domain.UserScore{User: userID}, nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) FindQuestion(_ context.Context, sessionID, levelID int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.sessionQuestion(sessionID, levelID); ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *Store) sessionQuestion(sessionID, levelID int64) (domain.Question, bool) {
	for _, q := range s.questions {
		if q.Session == sessionID && q.Level == levelID {
			return q, true
		}
	}
	return domain.Question{}, false
}

func (s *Store) ListQuestions(_ context.Context, sessionID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.Session == sessionID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateQuestion(_ context.Context, q *domain.Question) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[q.Session]; !ok {
		return false, domain.ErrSessionNotFound
	}
	if existing, ok := s.sessionQuestion(q.Session, q.Level); ok {
		*q = existing
		return false, nil
	}
	q.ID = s.id()
	s.questions[q.ID] = *q
	return true, nil
}

func (s *Store) FinishQuestion(_ context.Context, q domain.Question) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.questions[q.ID]
	if !ok {
		return domain.GameSession{}, domain.ErrQuestionNotFound
	}
	if stored.Finished {
		return domain.GameSession{}, domain.ErrAlreadyFinished
	}
	session, ok := s.sessions[stored.Session]
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	if !session.InProgress() {
		return domain.GameSession{}, domain.ErrInvalidTransition
	}

	stored.Answer = q.Answer
	stored.Correct = q.Correct
	stored.Score = q.Score
	stored.TimeRemaining = q.TimeRemaining
	stored.Finished = true
	stored.TimeModified = q.TimeModified
	s.questions[stored.ID] = stored

	session.Score += stored.Score
	session.AnswersTotal++
	if stored.Correct {
		session.AnswersCorrect++
	}
	session.TimeModified = s.clock()
	s.sessions[session.ID] = session
	return session, nil
}
