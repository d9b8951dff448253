package redis

import (
	"context"
	"testing"
	"time"

	"philosophers-service/internal/domain"
	"philosophers-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionBankCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	bank := &countingBank{StaticQuestionBank: sampleBank()}
	cached := NewQuestionBank(client, bank, time.Minute)

	q, err := cached.Question(context.Background(), 10)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if bank.questions != 1 {
		t.Fatalf("expected bank called once, got %d", bank.questions)
	}
	if !mr.Exists("philosophers:qbank:question:10") {
		t.Fatalf("expected question hash in redis")
	}

	again, _ := cached.Question(context.Background(), 10)
	if bank.questions != 1 {
		t.Fatalf("expected cache hit, bank calls=%d", bank.questions)
	}
	if again != q {
		t.Fatalf("cached question differs: %+v vs %+v", again, q)
	}
}

func TestQuestionBankCachesAnswersAsJSON(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := &countingBank{StaticQuestionBank: sampleBank()}
	cached := NewQuestionBank(newClient(mr), bank, time.Minute)

	for i := 0; i < 2; i++ {
		answers, err := cached.Answers(context.Background(), 10)
		if err != nil {
			t.Fatalf("answers: %v", err)
		}
		if len(answers) != 2 || answers[0].Text != "Plato" || answers[0].Fraction != 1 {
			t.Fatalf("unexpected answers %+v", answers)
		}
	}
	if bank.answers != 1 {
		t.Fatalf("expected one bank call, got %d", bank.answers)
	}
	if ttl := mr.TTL("philosophers:qbank:answers:10"); ttl < time.Minute {
		t.Fatalf("expected ttl with jitter >= 1m, got %v", ttl)
	}

	if err := cached.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("philosophers:qbank:answers:10") {
		t.Fatalf("expected cache cleared")
	}
}

type countingBank struct {
	*memory.StaticQuestionBank
	questions int
	answers   int
}

func (b *countingBank) Question(ctx context.Context, id int64) (domain.MdlQuestion, error) {
	b.questions++
	return b.StaticQuestionBank.Question(ctx, id)
}

func (b *countingBank) Answers(ctx context.Context, id int64) ([]domain.MdlAnswer, error) {
	b.answers++
	return b.StaticQuestionBank.Answers(ctx, id)
}

func sampleBank() *memory.StaticQuestionBank {
	bank := memory.NewStaticQuestionBank()
	bank.AddCategory(domain.MdlCategory{ID: 1, Course: 7, Name: "Greek"})
	bank.AddQuestion(
		domain.MdlQuestion{ID: 10, Category: 1, Name: "Cave", Text: "Who wrote the allegory of the cave?", Type: domain.QuestionTypeMultichoice, Single: true},
		domain.MdlAnswer{ID: 100, Text: "Plato", Fraction: 1},
		domain.MdlAnswer{ID: 101, Text: "Kant", Fraction: 0},
	)
	return bank
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
