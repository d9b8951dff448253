package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionBank caches question bank reads in Redis and falls back to the wrapped bank on
// a cache miss. Questions are stored as a hash per question:
//
//	HSET philosophers:qbank:question:{id} category .. name .. text .. qtype .. single ..
//
// Category lists, candidate lists and answers are stored as JSON strings.
type QuestionBank struct {
	client *redis.Client
	bank   app.QuestionBank
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionBank(client *redis.Client, bank app.QuestionBank, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		bank:   bank,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) Categories(ctx context.Context, courseID int64) ([]domain.MdlCategory, error) {
	var out []domain.MdlCategory
	err := b.cachedJSON(ctx, b.key("categories", strconv.FormatInt(courseID, 10)), &out, func(ctx context.Context) (any, error) {
		return b.bank.Categories(ctx, courseID)
	})
	return out, err
}

func (b *QuestionBank) CandidateQuestions(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	var out []int64
	err := b.cachedJSON(ctx, b.key("candidates", joinIDs(categoryIDs)), &out, func(ctx context.Context) (any, error) {
		return b.bank.CandidateQuestions(ctx, categoryIDs)
	})
	return out, err
}

func (b *QuestionBank) Answers(ctx context.Context, questionID int64) ([]domain.MdlAnswer, error) {
	var out []domain.MdlAnswer
	err := b.cachedJSON(ctx, b.key("answers", strconv.FormatInt(questionID, 10)), &out, func(ctx context.Context) (any, error) {
		return b.bank.Answers(ctx, questionID)
	})
	return out, err
}

func (b *QuestionBank) Question(ctx context.Context, id int64) (domain.MdlQuestion, error) {
	key := b.key("question", strconv.FormatInt(id, 10))

	fields, err := b.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return questionFromHash(id, fields), nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// another caller may have filled the cache meanwhile
		fields, err := b.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return questionFromHash(id, fields), nil
		}

		q, err := b.bank.Question(ctx, id)
		if err != nil {
			return domain.MdlQuestion{}, err
		}

		ttl := b.ttlWithJitter()
		pipe := b.client.Pipeline()
		pipe.HSet(ctx, key,
			"category", q.Category,
			"name", q.Name,
			"text", q.Text,
			"qtype", q.Type,
			"single", strconv.FormatBool(q.Single),
		)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return q, nil
	})
	if err != nil {
		return domain.MdlQuestion{}, err
	}
	return result.(domain.MdlQuestion), nil
}

func (b *QuestionBank) cachedJSON(ctx context.Context, key string, out any, load func(context.Context) (any, error)) error {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(raw, out)
	}
	if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
			return raw, nil
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		// best-effort fill
		_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(result.([]byte), out)
}

// Invalidate drops every cached entry of the question bank.
func (b *QuestionBank) Invalidate(ctx context.Context) error {
	iter := b.client.Scan(ctx, 0, "philosophers:qbank:*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}

func (b *QuestionBank) key(kind, id string) string {
	return "philosophers:qbank:" + kind + ":" + id
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

func questionFromHash(id int64, fields map[string]string) domain.MdlQuestion {
	category, _ := strconv.ParseInt(fields["category"], 10, 64)
	single, _ := strconv.ParseBool(fields["single"])
	return domain.MdlQuestion{
		ID:       id,
		Category: category,
		Name:     fields["name"],
		Text:     fields["text"],
		Type:     fields["qtype"],
		Single:   single,
	}
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
