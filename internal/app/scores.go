package app

import (
	"context"

	"philosophers-service/internal/domain"
)

// UserDirectory resolves display names of platform users.
type UserDirectory interface {
	UserName(ctx context.Context, userID int64) (string, error)
}

// Scores ranks the players of a game by their finished sessions within span.
// Users holding the manage capability are left out unless the game shows teachers.
func (s *GameService) Scores(ctx context.Context, viewer domain.Viewer, gameID int64, span domain.Span) ([]domain.ScoreRow, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.ScoreTotals(ctx, gameID, span.Since(s.now()))
	if err != nil {
		return nil, err
	}

	rows := make([]domain.ScoreRow, 0, len(totals))
	for _, t := range totals {
		teacher, err := s.policy.Has(ctx, CapabilityManage, gameID, t.User)
		if err != nil {
			return nil, err
		}
		if teacher && !game.HighscoreTeachers {
			continue
		}
		rows = append(rows, domain.ScoreRow{
			User:     t.User,
			Score:    t.Total,
			MaxScore: t.Max,
			Sessions: t.Sessions,
			Teacher:  teacher,
		})
	}
	if s.users != nil {
		for i := range rows {
			name, err := s.users.UserName(ctx, rows[i].User)
			if err != nil {
				return nil, err
			}
			rows[i].UserName = name
		}
	}
	return domain.RankScores(rows), nil
}
