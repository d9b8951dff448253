package domain

import "math/rand"

// NewLevelsOrder snapshots the presentation order of the active levels for a new
// session. levels must already be sorted by position.
func NewLevelsOrder(levels []Level, shuffle bool, rnd *rand.Rand) []int64 {
	order := make([]int64, 0, len(levels))
	for _, l := range levels {
		if l.State == LevelActive {
			order = append(order, l.ID)
		}
	}
	if shuffle && rnd != nil {
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

// CheckClosable returns ErrInvalidTransition unless the session is in progress and
// every level of its levels_order has a finished attempt.
func CheckClosable(session GameSession, questions []Question) error {
	if !session.InProgress() {
		return ErrInvalidTransition
	}
	if !AllLevelsFinished(session, questions) {
		return ErrInvalidTransition
	}
	return nil
}

// AllLevelsFinished reports whether each level in the session's order has a finished attempt.
func AllLevelsFinished(session GameSession, questions []Question) bool {
	finished := make(map[int64]bool, len(questions))
	for _, q := range questions {
		if q.Session == session.ID && q.Finished {
			finished[q.Level] = true
		}
	}
	for _, levelID := range session.LevelsOrder {
		if !finished[levelID] {
			return false
		}
	}
	return true
}

// OrderLevels arranges levels by the session snapshot. Levels missing from the snapshot
// follow in position order; ids in the snapshot without a level are skipped.
func OrderLevels(levels []Level, order []int64) []Level {
	byID := make(map[int64]Level, len(levels))
	for _, l := range levels {
		byID[l.ID] = l
	}
	result := make([]Level, 0, len(levels))
	used := make(map[int64]bool, len(order))
	for _, id := range order {
		if l, ok := byID[id]; ok && !used[id] {
			result = append(result, l)
			used[id] = true
		}
	}
	rest := make([]Level, 0)
	for _, l := range levels {
		if !used[l.ID] {
			rest = append(rest, l)
		}
	}
	SortByPosition(rest)
	return append(result, rest...)
}

// BuildLevelViews merges levels with the attempts of a session.
func BuildLevelViews(levels []Level, questions []Question, tileHeightPx int) []LevelView {
	byLevel := make(map[int64]Question, len(questions))
	for _, q := range questions {
		byLevel[q.Level] = q
	}
	views := make([]LevelView, 0, len(levels))
	for _, l := range levels {
		view := LevelView{Level: l, TileHeightPx: tileHeightPx}
		if q, ok := byLevel[l.ID]; ok {
			view.Seen = true
			view.Finished = q.Finished
			view.Correct = q.Correct
			view.Score = q.Score
		}
		views = append(views, view)
	}
	return views
}
