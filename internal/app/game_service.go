package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"philosophers-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// GameService contains the game, level, session and scoring use cases.
type GameService struct {
	store     Store
	bank      QuestionBank
	policy    Policy
	blobs     BlobStore
	locker    Locker
	events    EventPublisher
	users     UserDirectory
	validate  *validator.Validate
	now       func() time.Time
	rndMu     sync.Mutex
	rnd       *rand.Rand
	fileRoute string
}

// Option customises a GameService.
type Option func(*GameService)

func WithCapabilities(checker CapabilityChecker) Option {
	return func(s *GameService) { s.policy = NewPolicy(checker) }
}

func WithBlobStore(blobs BlobStore) Option {
	return func(s *GameService) { s.blobs = blobs }
}

func WithLocker(locker Locker) Option {
	return func(s *GameService) { s.locker = locker }
}

func WithEventPublisher(events EventPublisher) Option {
	return func(s *GameService) { s.events = events }
}

func WithUserDirectory(users UserDirectory) Option {
	return func(s *GameService) { s.users = users }
}

// WithClock is meant for tests that need deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithRand fixes the random source used for shuffling and question selection.
func WithRand(rnd *rand.Rand) Option {
	return func(s *GameService) { s.rnd = rnd }
}

// WithFileRoute sets the URL prefix under which level images are served.
func WithFileRoute(prefix string) Option {
	return func(s *GameService) { s.fileRoute = prefix }
}

func NewGameService(store Store, bank QuestionBank, opts ...Option) *GameService {
	s := &GameService{
		store:     store,
		bank:      bank,
		validate:  validator.New(),
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		fileRoute: "/files/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy exposes the capability checks to the transport layer.
func (s *GameService) Policy() Policy {
	return s.policy
}

// GetGame returns the game settings together with the viewer's capability flag.
func (s *GameService) GetGame(ctx context.Context, viewer domain.Viewer, gameID int64) (domain.GameView, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return domain.GameView{}, err
	}
	teacher, err := s.policy.Has(ctx, CapabilityManage, gameID, viewer.UserID)
	if err != nil {
		return domain.GameView{}, err
	}
	return domain.GameView{
		ID:                game.ID,
		Name:              game.Name,
		HighscoreCount:    game.HighscoreCount,
		HighscoreTeachers: game.HighscoreTeachers,
		User:              viewer.UserID,
		UserTeacher:       teacher,
		QuestionDuration:  game.QuestionDuration,
		ReviewDuration:    game.ReviewDuration,
		WordsPerMinute:    game.ReadingSpeed.WordsPerMinute(),
		LevelTileHeightPx: game.LevelTileHeight.Pixels(),
		LevelTileAlpha:    game.LevelTileAlpha,
	}, nil
}

// SaveGame validates and persists game settings. New games are created through
// ImportGame; editing requires the manage capability.
func (s *GameService) SaveGame(ctx context.Context, viewer domain.Viewer, game domain.Game) (domain.Game, error) {
	if game.ID == 0 {
		return domain.Game{}, fmt.Errorf("game id missing: %w", domain.ErrInvalidInput)
	}
	existing, err := s.store.GetGame(ctx, game.ID)
	if err != nil {
		return domain.Game{}, err
	}
	if err := s.policy.Require(ctx, CapabilityManage, game.ID, viewer); err != nil {
		return domain.Game{}, err
	}
	if err := s.validateStruct(game); err != nil {
		return domain.Game{}, err
	}
	game.TimeCreated = existing.TimeCreated
	game.TimeModified = s.now()
	if err := s.store.SaveGame(ctx, &game); err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

// DeleteGame removes a game with all dependent data and level images.
func (s *GameService) DeleteGame(ctx context.Context, viewer domain.Viewer, gameID int64) error {
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.policy.Require(ctx, CapabilityManage, gameID, viewer); err != nil {
		return err
	}
	levels, err := s.store.ListActiveLevels(ctx, gameID)
	if err != nil {
		return err
	}
	for _, level := range levels {
		s.removeImage(ctx, level)
	}
	return s.store.DeleteGame(ctx, gameID)
}

// CompletionState evaluates the completion thresholds of the game for a user.
func (s *GameService) CompletionState(ctx context.Context, gameID, userID int64) (domain.Completion, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Completion{}, err
	}
	score, err := s.store.UserScore(ctx, gameID, userID)
	if err != nil {
		return domain.Completion{}, err
	}
	return domain.EvaluateCompletion(game, score), nil
}

func (s *GameService) viewableGame(ctx context.Context, viewer domain.Viewer, gameID int64) (domain.Game, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if err := s.policy.Require(ctx, CapabilityView, gameID, viewer); err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

func (s *GameService) managedGame(ctx context.Context, viewer domain.Viewer, gameID int64) (domain.Game, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if err := s.policy.Require(ctx, CapabilityManage, gameID, viewer); err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

func (s *GameService) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s failed on %s: %w", verrs[0].Namespace(), verrs[0].Tag(), domain.ErrInvalidInput)
		}
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	return nil
}

func (s *GameService) shuffle(n int, swap func(i, j int)) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	s.rnd.Shuffle(n, swap)
}

func (s *GameService) intn(n int) int {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Intn(n)
}

func (s *GameService) publish(ctx context.Context, event domain.Event) {
	if s.events == nil {
		log.Printf("event %s game=%d user=%d session=%d score=%d completed=%v",
			event.Type, event.Game, event.User, event.Session, event.Score, event.Completion.Completed)
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s for session %d failed: %v", event.Type, event.Session, err)
	}
}
