package app

import (
	"context"
	"time"

	"philosophers-service/internal/domain"
)

// GameRepository persists game settings.
type GameRepository interface {
	GetGame(ctx context.Context, id int64) (domain.Game, error)
	// SaveGame inserts the game when ID is zero and updates it otherwise.
	SaveGame(ctx context.Context, game *domain.Game) error
	// DeleteGame removes the game with its levels, bindings, sessions and attempts.
	DeleteGame(ctx context.Context, id int64) error
}

// LevelRepository persists levels and their category bindings.
type LevelRepository interface {
	// ListActiveLevels returns the active levels of a game ordered by position.
	ListActiveLevels(ctx context.Context, gameID int64) ([]domain.Level, error)
	GetLevel(ctx context.Context, id int64) (domain.Level, error)
	// SaveLevel upserts the level and replaces its bindings in one transaction.
	// New levels are appended after the current active levels.
	SaveLevel(ctx context.Context, level *domain.Level, categories []domain.CategoryBinding) error
	SetLevelImage(ctx context.Context, id int64, image string) error
	ListCategories(ctx context.Context, levelID int64) ([]domain.CategoryBinding, error)
	// DeleteLevel marks the level deleted and renumbers the remaining ones.
	DeleteLevel(ctx context.Context, id int64) error
	// MoveLevel swaps the level with its neighbour; a no-op at the boundaries.
	MoveLevel(ctx context.Context, id int64, dir domain.Direction) error
	RenumberLevels(ctx context.Context, gameID int64) error
}

// SessionRepository persists game sessions. Implementations must guarantee at most one
// session in progress per (game, user).
type SessionRepository interface {
	FindProgressSession(ctx context.Context, gameID, userID int64) (domain.GameSession, error)
	// CreateSession inserts session unless the user already has one in progress, in
	// which case session is overwritten with the existing one and created is false.
	CreateSession(ctx context.Context, session *domain.GameSession) (created bool, err error)
	DumpProgressSessions(ctx context.Context, gameID, userID int64) error
	GetSession(ctx context.Context, id int64) (domain.GameSession, error)
	// TransitionSession moves the session from one state to another, failing with
	// domain.ErrInvalidTransition if it is not in from.
	TransitionSession(ctx context.Context, id int64, from, to domain.SessionState) (domain.GameSession, error)
	// ScoreTotals aggregates finished sessions modified at or after since, ordered by user.
	ScoreTotals(ctx context.Context, gameID int64, since time.Time) ([]domain.UserScore, error)
	UserScore(ctx context.Context, gameID, userID int64) (domain.UserScore, error)
}

// QuestionRepository persists question attempts. Implementations must guarantee at most
// one attempt per (session, level).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	FindQuestion(ctx context.Context, sessionID, levelID int64) (domain.Question, error)
	ListQuestions(ctx context.Context, sessionID int64) ([]domain.Question, error)
	// CreateQuestion inserts q unless an attempt for its (session, level) exists, in
	// which case q is overwritten with the existing one and created is false.
	CreateQuestion(ctx context.Context, q *domain.Question) (created bool, err error)
	// FinishQuestion stores the outcome of q and adds it to the session counters
	// atomically. It fails with domain.ErrAlreadyFinished if q was finished before.
	FinishQuestion(ctx context.Context, q domain.Question) (domain.GameSession, error)
}

// Store bundles all repositories of one backing store.
type Store interface {
	GameRepository
	LevelRepository
	SessionRepository
	QuestionRepository
}

// QuestionBank is the external question bank.
type QuestionBank interface {
	Categories(ctx context.Context, courseID int64) ([]domain.MdlCategory, error)
	// CandidateQuestions lists playable question ids in the given categories.
	CandidateQuestions(ctx context.Context, categoryIDs []int64) ([]int64, error)
	Question(ctx context.Context, id int64) (domain.MdlQuestion, error)
	Answers(ctx context.Context, questionID int64) ([]domain.MdlAnswer, error)
}

// BlobStore keeps level images.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// Locker serialises critical sections per key across requests.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventPublisher hands domain events to the host platform.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
