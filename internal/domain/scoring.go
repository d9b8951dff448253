package domain

import (
	"math"
	"strings"
	"time"
)

// ReadingSeconds is the grace period granted for reading a question text before the
// countdown starts to cost points.
func ReadingSeconds(text string, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		return 0
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / float64(wordsPerMinute) * 60))
}

// TimeRemaining computes the whole seconds left on an attempt, rounded half up and
// clamped to [0, duration].
func TimeRemaining(started, now time.Time, duration, readingSeconds int) int {
	elapsed := now.Sub(started).Seconds()
	left := float64(duration+readingSeconds) - elapsed
	return clamp(int(math.Floor(left+0.5)), 0, duration)
}

// Score awards the remaining seconds for a correct answer, capped at the question
// duration, and zero otherwise.
func Score(correct bool, timeRemaining, duration int) int {
	if !correct {
		return 0
	}
	return clamp(timeRemaining, 0, duration)
}

// Submit records the given answer on the attempt. answer 0 means no answer (timeout).
func (q *Question) Submit(answer, correctAnswer int64, timeRemaining, duration int, now time.Time) error {
	if q.Finished {
		return ErrAlreadyFinished
	}
	q.Answer = answer
	q.Correct = answer != 0 && answer == correctAnswer
	q.TimeRemaining = clamp(timeRemaining, 0, duration)
	q.Score = Score(q.Correct, q.TimeRemaining, duration)
	q.Finished = true
	q.TimeModified = now
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
