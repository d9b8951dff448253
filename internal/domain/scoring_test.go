package domain

import (
	"errors"
	"testing"
	"time"
)

func TestScoreProportionalToRemainingTime(t *testing.T) {
	if got := Score(true, 10, 30); got != 10 {
		t.Fatalf("expected 10 points, got %d", got)
	}
	if got := Score(true, 45, 30); got != 30 {
		t.Fatalf("expected score capped at 30, got %d", got)
	}
	for _, remaining := range []int{0, 10, 30} {
		if got := Score(false, remaining, 30); got != 0 {
			t.Fatalf("expected 0 for wrong answer at %d, got %d", remaining, got)
		}
	}
}

func TestTimeRemainingRoundsHalfUpAndClamps(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		reading int
		want    int
	}{
		{20 * time.Second, 0, 10},
		{19500 * time.Millisecond, 0, 11},
		{19600 * time.Millisecond, 0, 10},
		{0, 5, 30},
		{33 * time.Second, 5, 2},
		{2 * time.Minute, 0, 0},
	}
	for _, c := range cases {
		got := TimeRemaining(start, start.Add(c.elapsed), 30, c.reading)
		if got != c.want {
			t.Fatalf("elapsed %v reading %d: expected %d, got %d", c.elapsed, c.reading, c.want, got)
		}
	}
}

func TestReadingSeconds(t *testing.T) {
	if got := ReadingSeconds("", 220); got != 0 {
		t.Fatalf("expected 0 for empty text, got %d", got)
	}
	// 110 words at 220 wpm is half a minute.
	text := ""
	for i := 0; i < 110; i++ {
		text += "word "
	}
	if got := ReadingSeconds(text, 220); got != 30 {
		t.Fatalf("expected 30 seconds, got %d", got)
	}
	if got := ReadingSeconds("one two three", ReadingFast.WordsPerMinute()); got != 1 {
		t.Fatalf("expected rounding up to 1 second, got %d", got)
	}
}

func TestSubmitTwiceFails(t *testing.T) {
	now := time.Now()
	q := Question{ID: 1}
	if err := q.Submit(7, 7, 10, 30, now); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !q.Finished || !q.Correct || q.Score != 10 {
		t.Fatalf("unexpected attempt state %+v", q)
	}
	if err := q.Submit(7, 7, 20, 30, now); !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
	if q.Score != 10 {
		t.Fatalf("score changed on second submit: %d", q.Score)
	}
}

func TestSubmitWithoutAnswerIsWrong(t *testing.T) {
	q := Question{ID: 1}
	if err := q.Submit(0, 0, 0, 30, time.Now()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if q.Correct || q.Score != 0 || !q.Finished {
		t.Fatalf("expected finished wrong attempt, got %+v", q)
	}
}
