package domain

import "testing"

func TestExpandCategories(t *testing.T) {
	all := []MdlCategory{
		{ID: 1},
		{ID: 2, Parent: 1},
		{ID: 3, Parent: 2},
		{ID: 4},
	}
	got := ExpandCategories([]CategoryBinding{
		{MdlCategory: 1, Subcategories: true},
		{MdlCategory: 4},
		{MdlCategory: 2},
	}, all)
	want := []int64{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	flat := ExpandCategories([]CategoryBinding{{MdlCategory: 1}}, all)
	if len(flat) != 1 || flat[0] != 1 {
		t.Fatalf("expected only category 1 without subcategories, got %v", flat)
	}
}

func TestOrderAnswersHidesCorrectnessUntilRevealed(t *testing.T) {
	answers := []MdlAnswer{
		{ID: 10, Text: "three", Fraction: 0},
		{ID: 11, Text: "four", Fraction: 1},
		{ID: 12, Text: "five", Fraction: 0},
	}
	views := OrderAnswers(answers, []int64{12, 10, 11}, false)
	if views[0].ID != 12 || views[0].Label != "A" || views[2].Label != "C" {
		t.Fatalf("unexpected order %+v", views)
	}
	for _, v := range views {
		if v.Correct != nil {
			t.Fatalf("correctness leaked before reveal: %+v", v)
		}
	}

	revealed := OrderAnswers(answers, []int64{12, 10, 11}, true)
	if revealed[2].Correct == nil || !*revealed[2].Correct {
		t.Fatalf("expected answer 11 marked correct, got %+v", revealed[2])
	}
}

func TestCorrectAnswer(t *testing.T) {
	if _, ok := CorrectAnswer([]MdlAnswer{{ID: 1}, {ID: 2}}); ok {
		t.Fatalf("expected no correct answer")
	}
	id, ok := CorrectAnswer([]MdlAnswer{{ID: 1, Fraction: 0.5}, {ID: 2, Fraction: 1}})
	if !ok || id != 2 {
		t.Fatalf("expected answer 2, got %d %v", id, ok)
	}
}
