package domain

import (
	"regexp"
	"sort"
	"strings"
)

// Direction is the move direction of a level within the ordered list.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up"/"down" as well as the +1/-1 deltas used by older clients.
func ParseDirection(raw string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "-1":
		return DirectionUp, true
	case "down", "+1", "1":
		return DirectionDown, true
	}
	return "", false
}

// SortByPosition orders levels by position, keeping the input order for equal positions.
func SortByPosition(levels []Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Position < levels[j].Position
	})
}

// Renumber assigns the dense positions 0..N-1 to the active levels, preserving their
// relative order. It returns the levels whose position changed.
func Renumber(levels []Level) []Level {
	active := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.State == LevelActive {
			active = append(active, l)
		}
	}
	SortByPosition(active)

	changed := make([]Level, 0)
	for i := range active {
		if active[i].Position != i {
			active[i].Position = i
			changed = append(changed, active[i])
		}
	}
	return changed
}

// SwapWithNeighbour finds the level with the given id among the active levels and swaps
// its position with the adjacent one in dir. ok is false at either boundary.
func SwapWithNeighbour(levels []Level, id int64, dir Direction) (moved, other Level, ok bool, err error) {
	active := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.State == LevelActive {
			active = append(active, l)
		}
	}
	SortByPosition(active)

	idx := -1
	for i := range active {
		if active[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Level{}, Level{}, false, ErrInvalidTransition
	}

	target := idx - 1
	if dir == DirectionDown {
		target = idx + 1
	}
	if target < 0 || target >= len(active) {
		return active[idx], Level{}, false, nil
	}

	moved, other = active[idx], active[target]
	moved.Position, other.Position = other.Position, moved.Position
	return moved, other, true, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NormalizeColor turns "c03", "#c03" or " #CC0033 " into a "#"-prefixed lower-case hex
// string. Values that are not 3 or 6 hex digits are returned unchanged for validation
// to reject.
func NormalizeColor(raw string) string {
	c := "#" + strings.TrimLeft(strings.TrimSpace(raw), "#")
	if !hexColor.MatchString(c) {
		return raw
	}
	return strings.ToLower(c)
}

// DefaultBgColor is used when a level is saved without a colour.
const DefaultBgColor = "#ccc"
