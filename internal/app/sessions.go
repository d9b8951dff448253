package app

import (
	"context"
	"errors"
	"fmt"

	"philosophers-service/internal/domain"
)

// CurrentSession returns the viewer's session in progress, creating one if needed.
func (s *GameService) CurrentSession(ctx context.Context, viewer domain.Viewer, gameID int64) (domain.GameSession, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return domain.GameSession{}, err
	}
	unlock, err := s.lockUser(ctx, gameID, viewer.UserID)
	if err != nil {
		return domain.GameSession{}, err
	}
	defer unlock()
	return s.getOrCreateSession(ctx, game, viewer.UserID)
}

// CreateSession dumps the viewer's session in progress and starts a fresh one.
func (s *GameService) CreateSession(ctx context.Context, viewer domain.Viewer, gameID int64) (domain.GameSession, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return domain.GameSession{}, err
	}
	unlock, err := s.lockUser(ctx, gameID, viewer.UserID)
	if err != nil {
		return domain.GameSession{}, err
	}
	defer unlock()
	if err := s.store.DumpProgressSessions(ctx, gameID, viewer.UserID); err != nil {
		return domain.GameSession{}, err
	}
	return s.getOrCreateSession(ctx, game, viewer.UserID)
}

// CloseSession finishes a session once every level of it has been answered.
func (s *GameService) CloseSession(ctx context.Context, viewer domain.Viewer, gameID, sessionID int64) (domain.GameSession, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return domain.GameSession{}, err
	}
	session, err := s.ownedSession(ctx, viewer, gameID, sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	questions, err := s.store.ListQuestions(ctx, session.ID)
	if err != nil {
		return domain.GameSession{}, err
	}
	if err := domain.CheckClosable(session, questions); err != nil {
		return domain.GameSession{}, fmt.Errorf("close game session %d: %w", session.ID, err)
	}
	return s.finishSession(ctx, game, session)
}

func (s *GameService) getOrCreateSession(ctx context.Context, game domain.Game, userID int64) (domain.GameSession, error) {
	session, err := s.store.FindProgressSession(ctx, game.ID, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.GameSession{}, err
	}

	levels, err := s.store.ListActiveLevels(ctx, game.ID)
	if err != nil {
		return domain.GameSession{}, err
	}
	order := domain.NewLevelsOrder(levels, false, nil)
	if game.ShuffleLevels {
		s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	now := s.now()
	session = domain.GameSession{
		TimeCreated:  now,
		TimeModified: now,
		Game:         game.ID,
		User:         userID,
		State:        domain.SessionProgress,
		LevelsOrder:  order,
	}
	if _, err := s.store.CreateSession(ctx, &session); err != nil {
		return domain.GameSession{}, err
	}
	return session, nil
}

func (s *GameService) finishSession(ctx context.Context, game domain.Game, session domain.GameSession) (domain.GameSession, error) {
	finished, err := s.store.TransitionSession(ctx, session.ID, domain.SessionProgress, domain.SessionFinished)
	if err != nil {
		return domain.GameSession{}, err
	}
	completion, err := s.CompletionState(ctx, game.ID, finished.User)
	if err != nil {
		return finished, err
	}
	s.publish(ctx, domain.Event{
		Type:       domain.EventSessionFinished,
		Game:       game.ID,
		User:       finished.User,
		Session:    finished.ID,
		Score:      finished.Score,
		Completion: completion,
		OccurredAt: s.now(),
	})
	return finished, nil
}

func (s *GameService) ownedSession(ctx context.Context, viewer domain.Viewer, gameID, sessionID int64) (domain.GameSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	if err := s.policy.RequireSessionOwner(session, gameID, viewer); err != nil {
		return domain.GameSession{}, err
	}
	return session, nil
}

func (s *GameService) lockUser(ctx context.Context, gameID, userID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Lock(ctx, fmt.Sprintf("game:%d:user:%d", gameID, userID))
}
