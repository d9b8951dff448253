package postgres

import (
	"context"
	"errors"
	"fmt"

	"philosophers-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank reads the question bank tables with pgx.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Categories(ctx context.Context, courseID int64) ([]domain.MdlCategory, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, parent, course, name FROM question_categories WHERE course=$1 ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MdlCategory, 0)
	for rows.Next() {
		var c domain.MdlCategory
		if err := rows.Scan(&c.ID, &c.Parent, &c.Course, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (b *QuestionBank) CandidateQuestions(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	if len(categoryIDs) == 0 {
		return []int64{}, nil
	}
	rows, err := b.pool.Query(ctx,
		`SELECT id FROM questions WHERE category = ANY($1) AND qtype=$2 AND single ORDER BY id`,
		categoryIDs, domain.QuestionTypeMultichoice)
	if err != nil {
		return nil, fmt.Errorf("load candidate questions: %w", err)
	}
	defer rows.Close()

	out := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (b *QuestionBank) Question(ctx context.Context, id int64) (domain.MdlQuestion, error) {
	var q domain.MdlQuestion
	err := b.pool.QueryRow(ctx,
		`SELECT id, category, name, questiontext, qtype, single FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.Category, &q.Name, &q.Text, &q.Type, &q.Single)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MdlQuestion{}, domain.ErrMdlQuestionNotFound
	}
	if err != nil {
		return domain.MdlQuestion{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (b *QuestionBank) Answers(ctx context.Context, questionID int64) ([]domain.MdlAnswer, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, question, answer, fraction::float8 FROM question_answers WHERE question=$1 ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MdlAnswer, 0)
	for rows.Next() {
		var a domain.MdlAnswer
		if err := rows.Scan(&a.ID, &a.Question, &a.Text, &a.Fraction); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		if _, err := b.Question(ctx, questionID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
