package domain

import (
	"sort"
	"strings"
	"time"
)

// Span is a leaderboard time window.
type Span string

const (
	SpanDay   Span = "day"
	SpanWeek  Span = "week"
	SpanMonth Span = "month"
	SpanTotal Span = "total"
)

// ParseSpan maps unknown or empty spans to SpanTotal.
func ParseSpan(raw string) Span {
	switch Span(strings.ToLower(strings.TrimSpace(raw))) {
	case SpanDay:
		return SpanDay
	case SpanWeek:
		return SpanWeek
	case SpanMonth:
		return SpanMonth
	default:
		return SpanTotal
	}
}

// Since returns the lower bound of the window; the zero time for SpanTotal.
func (s Span) Since(now time.Time) time.Time {
	switch s {
	case SpanDay:
		return now.Add(-24 * time.Hour)
	case SpanWeek:
		return now.Add(-7 * 24 * time.Hour)
	case SpanMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// UserScore aggregates the finished sessions of one user.
type UserScore struct {
	User     int64 `json:"mdl_user"`
	Total    int   `json:"score"`
	Max      int   `json:"maxscore"`
	Sessions int   `json:"sessions"`
}

// ScoreRow is one ranked leaderboard entry.
type ScoreRow struct {
	Rank     int    `json:"rank"`
	User     int64  `json:"mdl_user"`
	UserName string `json:"mdl_user_name"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxscore"`
	Sessions int    `json:"sessions"`
	Teacher  bool   `json:"teacher"`
}

// AggregateScores groups finished sessions by user in order of first appearance.
func AggregateScores(sessions []GameSession) []UserScore {
	index := make(map[int64]int)
	result := make([]UserScore, 0)
	for _, s := range sessions {
		if s.State != SessionFinished {
			continue
		}
		i, ok := index[s.User]
		if !ok {
			i = len(result)
			index[s.User] = i
			result = append(result, UserScore{User: s.User, Max: s.Score})
		}
		row := &result[i]
		row.Total += s.Score
		row.Sessions++
		if s.Score > row.Max {
			row.Max = s.Score
		}
	}
	return result
}

// RankScores orders rows by summed score descending, keeping the input order on ties,
// and assigns 1-based ranks.
func RankScores(rows []ScoreRow) []ScoreRow {
	ranked := make([]ScoreRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Completion is the activity completion state of one user.
type Completion struct {
	Rounds    int  `json:"rounds"`
	Points    int  `json:"points"`
	Tracked   bool `json:"tracked"`
	Completed bool `json:"completed"`
}

// EvaluateCompletion applies the game's completion thresholds; every configured
// condition must hold.
func EvaluateCompletion(game Game, score UserScore) Completion {
	c := Completion{Rounds: score.Sessions, Points: score.Total}
	if game.CompletionRounds <= 0 && game.CompletionPoints <= 0 {
		return c
	}
	c.Tracked = true
	c.Completed = true
	if game.CompletionRounds > 0 && score.Sessions < game.CompletionRounds {
		c.Completed = false
	}
	if game.CompletionPoints > 0 && score.Total < game.CompletionPoints {
		c.Completed = false
	}
	return c
}
