package domain

// MdlCategory is a question bank category.
type MdlCategory struct {
	ID     int64  `json:"id"`
	Parent int64  `json:"parent"`
	Course int64  `json:"course"`
	Name   string `json:"name"`
}

// MdlQuestion is a question bank entry. Only single-answer multichoice questions
// are playable.
type MdlQuestion struct {
	ID       int64  `json:"id"`
	Category int64  `json:"category"`
	Name     string `json:"name"`
	Text     string `json:"questiontext"`
	Type     string `json:"qtype"`
	Single   bool   `json:"single"`
}

// QuestionTypeMultichoice is the only supported question bank type.
const QuestionTypeMultichoice = "multichoice"

// Playable reports whether the question can be used in a game.
func (q MdlQuestion) Playable() bool {
	return q.Type == QuestionTypeMultichoice && q.Single
}

// MdlAnswer is one answer option of a bank question.
type MdlAnswer struct {
	ID       int64   `json:"id"`
	Question int64   `json:"question"`
	Text     string  `json:"answer"`
	Fraction float64 `json:"fraction"`
}

// AnswerView is an answer as displayed inside an attempt.
type AnswerView struct {
	ID      int64  `json:"id"`
	Label   string `json:"label"`
	Text    string `json:"answer"`
	Correct *bool  `json:"correct,omitempty"`
}

// CorrectAnswer returns the answer with the highest positive fraction.
func CorrectAnswer(answers []MdlAnswer) (int64, bool) {
	var best MdlAnswer
	found := false
	for _, a := range answers {
		if a.Fraction <= 0 {
			continue
		}
		if !found || a.Fraction > best.Fraction {
			best = a
			found = true
		}
	}
	return best.ID, found
}

// ExpandCategories resolves bindings to concrete category ids. A binding with
// Subcategories includes every descendant found among all.
func ExpandCategories(bindings []CategoryBinding, all []MdlCategory) []int64 {
	children := make(map[int64][]int64, len(all))
	for _, c := range all {
		if c.Parent != 0 {
			children[c.Parent] = append(children[c.Parent], c.ID)
		}
	}

	seen := make(map[int64]bool)
	result := make([]int64, 0, len(bindings))
	var walk func(id int64, deep bool)
	walk = func(id int64, deep bool) {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
		if !deep {
			return
		}
		for _, child := range children[id] {
			if !seen[child] {
				walk(child, true)
			}
		}
	}
	for _, b := range bindings {
		walk(b.MdlCategory, b.Subcategories)
	}
	return result
}

// OrderAnswers arranges answers by the attempt's display order and labels them A, B, C.
// Correctness is only revealed when reveal is set.
func OrderAnswers(answers []MdlAnswer, order []int64, reveal bool) []AnswerView {
	byID := make(map[int64]MdlAnswer, len(answers))
	for _, a := range answers {
		byID[a.ID] = a
	}
	correctID, _ := CorrectAnswer(answers)

	ordered := make([]MdlAnswer, 0, len(answers))
	used := make(map[int64]bool, len(order))
	for _, id := range order {
		if a, ok := byID[id]; ok && !used[id] {
			ordered = append(ordered, a)
			used[id] = true
		}
	}
	for _, a := range answers {
		if !used[a.ID] {
			ordered = append(ordered, a)
		}
	}

	views := make([]AnswerView, 0, len(ordered))
	for i, a := range ordered {
		view := AnswerView{ID: a.ID, Label: answerLabel(i), Text: a.Text}
		if reveal {
			correct := a.ID == correctID
			view.Correct = &correct
		}
		views = append(views, view)
	}
	return views
}

func answerLabel(i int) string {
	label := ""
	for {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
		if i < 0 {
			return label
		}
	}
}
