package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// StaticQuestionBank is a question bank backed by in-memory maps (useful for tests/demos).
type StaticQuestionBank struct {
	mu         sync.RWMutex
	categories map[int64]domain.MdlCategory
	questions  map[int64]domain.MdlQuestion
	answers    map[int64][]domain.MdlAnswer
}

func NewStaticQuestionBank() *StaticQuestionBank {
	return &StaticQuestionBank{
		categories: make(map[int64]domain.MdlCategory),
		questions:  make(map[int64]domain.MdlQuestion),
		answers:    make(map[int64][]domain.MdlAnswer),
	}
}

func (b *StaticQuestionBank) AddCategory(c domain.MdlCategory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories[c.ID] = c
}

// AddQuestion registers a question with its answers; answer question ids are filled in.
func (b *StaticQuestionBank) AddQuestion(q domain.MdlQuestion, answers ...domain.MdlAnswer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions[q.ID] = q
	for i := range answers {
		answers[i].Question = q.ID
	}
	b.answers[q.ID] = answers
}

func (b *StaticQuestionBank) Categories(_ context.Context, courseID int64) ([]domain.MdlCategory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.MdlCategory, 0)
	for _, c := range b.categories {
		if c.Course == courseID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *StaticQuestionBank) CandidateQuestions(_ context.Context, categoryIDs []int64) ([]int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	wanted := make(map[int64]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}
	out := make([]int64, 0)
	for _, q := range b.questions {
		if wanted[q.Category] && q.Playable() {
			out = append(out, q.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (b *StaticQuestionBank) Question(_ context.Context, id int64) (domain.MdlQuestion, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.questions[id]
	if !ok {
		return domain.MdlQuestion{}, domain.ErrMdlQuestionNotFound
	}
	return q, nil
}

func (b *StaticQuestionBank) Answers(_ context.Context, questionID int64) ([]domain.MdlAnswer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.questions[questionID]; !ok {
		return nil, domain.ErrMdlQuestionNotFound
	}
	answers := b.answers[questionID]
	out := make([]domain.MdlAnswer, len(answers))
	copy(out, answers)
	return out, nil
}

// CachedQuestionBank caches bank reads with a TTL to avoid repeated database hits.
// Concurrent misses for the same key share one load.
type CachedQuestionBank struct {
	bank  app.QuestionBank
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	value     any
	expiresAt time.Time
}

func NewCachedQuestionBank(bank app.QuestionBank, ttl time.Duration) *CachedQuestionBank {
	return &CachedQuestionBank{
		bank:  bank,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedEntry),
	}
}

func (c *CachedQuestionBank) Categories(ctx context.Context, courseID int64) ([]domain.MdlCategory, error) {
	v, err := c.get(ctx, fmt.Sprintf("categories:%d", courseID), func(ctx context.Context) (any, error) {
		return c.bank.Categories(ctx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MdlCategory), nil
}

func (c *CachedQuestionBank) CandidateQuestions(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	v, err := c.get(ctx, "candidates:"+joinIDs(categoryIDs), func(ctx context.Context) (any, error) {
		return c.bank.CandidateQuestions(ctx, categoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return v.([]int64), nil
}

func (c *CachedQuestionBank) Question(ctx context.Context, id int64) (domain.MdlQuestion, error) {
	v, err := c.get(ctx, fmt.Sprintf("question:%d", id), func(ctx context.Context) (any, error) {
		return c.bank.Question(ctx, id)
	})
	if err != nil {
		return domain.MdlQuestion{}, err
	}
	return v.(domain.MdlQuestion), nil
}

func (c *CachedQuestionBank) Answers(ctx context.Context, questionID int64) ([]domain.MdlAnswer, error) {
	v, err := c.get(ctx, fmt.Sprintf("answers:%d", questionID), func(ctx context.Context) (any, error) {
		return c.bank.Answers(ctx, questionID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MdlAnswer), nil
}

func (c *CachedQuestionBank) get(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.value, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.value, nil
		}
		c.mu.RUnlock()

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedEntry{
			value:     value,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *CachedQuestionBank) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func joinIDs(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, 0, len(sorted))
	for _, id := range sorted {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
