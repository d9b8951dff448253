package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"philosophers-service/internal/domain"
)

func TestCachedQuestionBankCaches(t *testing.T) {
	bank := &countingBank{StaticQuestionBank: sampleBank()}
	cached := NewCachedQuestionBank(bank, time.Minute)

	if _, err := cached.Question(context.Background(), 10); err != nil {
		t.Fatalf("get question: %v", err)
	}
	if bank.calls != 1 {
		t.Fatalf("expected bank once, got %d", bank.calls)
	}

	if _, err := cached.Question(context.Background(), 10); err != nil {
		t.Fatalf("get question 2: %v", err)
	}
	if bank.calls != 1 {
		t.Fatalf("expected cache hit, bank calls %d", bank.calls)
	}
}

func TestCachedQuestionBankExpires(t *testing.T) {
	bank := &countingBank{StaticQuestionBank: sampleBank()}
	cached := NewCachedQuestionBank(bank, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cached.clock = func() time.Time { return now }

	if _, err := cached.Question(context.Background(), 10); err != nil {
		t.Fatalf("get question: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cached.Question(context.Background(), 10); err != nil {
		t.Fatalf("get question after ttl: %v", err)
	}
	if bank.calls != 2 {
		t.Fatalf("expected reload after ttl, bank calls %d", bank.calls)
	}
}

func TestCachedQuestionBankDoesNotCacheErrors(t *testing.T) {
	bank := &countingBank{StaticQuestionBank: sampleBank()}
	cached := NewCachedQuestionBank(bank, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cached.Question(context.Background(), 99)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if bank.calls != 2 {
		t.Fatalf("expected errors to bypass cache, bank calls %d", bank.calls)
	}
}

func TestStaticQuestionBankCandidates(t *testing.T) {
	bank := sampleBank()
	bank.AddQuestion(domain.MdlQuestion{ID: 11, Category: 1, Type: "truefalse", Single: true})
	bank.AddQuestion(domain.MdlQuestion{ID: 12, Category: 1, Type: domain.QuestionTypeMultichoice, Single: false})

	ids, err := bank.CandidateQuestions(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("expected only playable question 10, got %v", ids)
	}
}

type countingBank struct {
	*StaticQuestionBank
	calls int
}

func (b *countingBank) Question(ctx context.Context, id int64) (domain.MdlQuestion, error) {
	b.calls++
	return b.StaticQuestionBank.Question(ctx, id)
}

func sampleBank() *StaticQuestionBank {
	bank := NewStaticQuestionBank()
	bank.AddCategory(domain.MdlCategory{ID: 1, Course: 7, Name: "Greek"})
	bank.AddQuestion(
		domain.MdlQuestion{ID: 10, Category: 1, Name: "Cave", Text: "Who wrote the allegory of the cave?", Type: domain.QuestionTypeMultichoice, Single: true},
		domain.MdlAnswer{ID: 100, Text: "Plato", Fraction: 1},
		domain.MdlAnswer{ID: 101, Text: "Kant", Fraction: 0},
	)
	return bank
}
