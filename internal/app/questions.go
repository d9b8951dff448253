package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"philosophers-service/internal/domain"
)

// GetQuestion returns the attempt of a session for a level, creating it with a random
// question from the level's categories on first access.
func (s *GameService) GetQuestion(ctx context.Context, viewer domain.Viewer, gameID, sessionID, levelID int64) (domain.Question, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return domain.Question{}, err
	}
	session, err := s.ownedSession(ctx, viewer, gameID, sessionID)
	if err != nil {
		return domain.Question{}, err
	}

	existing, err := s.store.FindQuestion(ctx, session.ID, levelID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Question{}, err
	}
	if !session.InProgress() {
		return domain.Question{}, fmt.Errorf("game session %d is %s: %w", session.ID, session.State, domain.ErrInvalidTransition)
	}

	level, err := s.gameLevel(ctx, gameID, levelID)
	if err != nil {
		return domain.Question{}, err
	}
	if level.State != domain.LevelActive && !session.HasLevel(level.ID) {
		return domain.Question{}, domain.ErrLevelNotFound
	}

	mdlQuestion, answers, err := s.pickQuestion(ctx, game, level)
	if err != nil {
		return domain.Question{}, err
	}
	order := make([]int64, 0, len(answers))
	for _, a := range answers {
		order = append(order, a.ID)
	}
	if game.ShuffleAnswers {
		s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	now := s.now()
	q := domain.Question{
		TimeCreated:    now,
		TimeModified:   now,
		Session:        session.ID,
		Level:          level.ID,
		MdlQuestion:    mdlQuestion.ID,
		AnswerOrder:    order,
		ReadingSeconds: domain.ReadingSeconds(mdlQuestion.Text, game.ReadingSpeed.WordsPerMinute()),
	}
	if _, err := s.store.CreateQuestion(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// SubmitAnswer scores the given answer against the time left on the attempt.
func (s *GameService) SubmitAnswer(ctx context.Context, viewer domain.Viewer, gameID, questionID, answerID int64) (domain.Question, error) {
	return s.submit(ctx, viewer, gameID, questionID, answerID, false)
}

// CancelAnswer finishes the attempt as timed out: no answer and no score.
func (s *GameService) CancelAnswer(ctx context.Context, viewer domain.Viewer, gameID, questionID int64) (domain.Question, error) {
	return s.submit(ctx, viewer, gameID, questionID, 0, true)
}

func (s *GameService) submit(ctx context.Context, viewer domain.Viewer, gameID, questionID, answerID int64, timedOut bool) (domain.Question, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return domain.Question{}, err
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	session, err := s.ownedSession(ctx, viewer, gameID, q.Session)
	if err != nil {
		return domain.Question{}, err
	}
	if q.Finished {
		return domain.Question{}, domain.ErrAlreadyFinished
	}
	if !session.InProgress() {
		return domain.Question{}, fmt.Errorf("game session %d is %s: %w", session.ID, session.State, domain.ErrInvalidTransition)
	}

	answers, err := s.bank.Answers(ctx, q.MdlQuestion)
	if err != nil {
		return domain.Question{}, err
	}
	if answerID != 0 && !containsAnswer(answers, answerID) {
		return domain.Question{}, fmt.Errorf("answer %d does not belong to question %d: %w", answerID, q.MdlQuestion, domain.ErrInvalidInput)
	}
	correctID, _ := domain.CorrectAnswer(answers)

	now := s.now()
	remaining := 0
	if !timedOut {
		remaining = domain.TimeRemaining(q.TimeCreated, now, game.QuestionDuration, q.ReadingSeconds)
	}
	if err := q.Submit(answerID, correctID, remaining, game.QuestionDuration, now); err != nil {
		return domain.Question{}, err
	}
	updated, err := s.store.FinishQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}

	if err := s.autoClose(ctx, game, updated); err != nil {
		log.Printf("auto close of game session %d: %v", updated.ID, err)
	}
	return q, nil
}

func (s *GameService) autoClose(ctx context.Context, game domain.Game, session domain.GameSession) error {
	if !session.InProgress() {
		return nil
	}
	questions, err := s.store.ListQuestions(ctx, session.ID)
	if err != nil {
		return err
	}
	if !domain.AllLevelsFinished(session, questions) {
		return nil
	}
	_, err = s.finishSession(ctx, game, session)
	if errors.Is(err, domain.ErrInvalidTransition) {
		// closed concurrently
		return nil
	}
	return err
}

func (s *GameService) pickQuestion(ctx context.Context, game domain.Game, level domain.Level) (domain.MdlQuestion, []domain.MdlAnswer, error) {
	bindings, err := s.store.ListCategories(ctx, level.ID)
	if err != nil {
		return domain.MdlQuestion{}, nil, err
	}
	if len(bindings) == 0 {
		return domain.MdlQuestion{}, nil, domain.ErrNoQuestionAvailable
	}
	all, err := s.bank.Categories(ctx, game.Course)
	if err != nil {
		return domain.MdlQuestion{}, nil, err
	}
	candidates, err := s.bank.CandidateQuestions(ctx, domain.ExpandCategories(bindings, all))
	if err != nil {
		return domain.MdlQuestion{}, nil, err
	}
	if len(candidates) == 0 {
		return domain.MdlQuestion{}, nil, domain.ErrNoQuestionAvailable
	}

	id := candidates[s.intn(len(candidates))]
	question, err := s.bank.Question(ctx, id)
	if err != nil {
		return domain.MdlQuestion{}, nil, err
	}
	answers, err := s.bank.Answers(ctx, id)
	if err != nil {
		return domain.MdlQuestion{}, nil, err
	}
	return question, answers, nil
}

// MdlQuestion returns the question bank entry behind an attempt.
func (s *GameService) MdlQuestion(ctx context.Context, viewer domain.Viewer, gameID, questionID int64) (domain.MdlQuestion, error) {
	q, err := s.ownedQuestion(ctx, viewer, gameID, questionID)
	if err != nil {
		return domain.MdlQuestion{}, err
	}
	return s.bank.Question(ctx, q.MdlQuestion)
}

// MdlAnswers returns the answers of an attempt in display order. Correctness is
// revealed once the attempt is finished.
func (s *GameService) MdlAnswers(ctx context.Context, viewer domain.Viewer, gameID, questionID int64) ([]domain.AnswerView, error) {
	q, err := s.ownedQuestion(ctx, viewer, gameID, questionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.bank.Answers(ctx, q.MdlQuestion)
	if err != nil {
		return nil, err
	}
	return domain.OrderAnswers(answers, q.AnswerOrder, q.Finished), nil
}

// MdlCategories lists the question bank categories usable by the game's course.
func (s *GameService) MdlCategories(ctx context.Context, viewer domain.Viewer, gameID int64) ([]domain.MdlCategory, error) {
	game, err := s.managedGame(ctx, viewer, gameID)
	if err != nil {
		return nil, err
	}
	return s.bank.Categories(ctx, game.Course)
}

func (s *GameService) ownedQuestion(ctx context.Context, viewer domain.Viewer, gameID, questionID int64) (domain.Question, error) {
	if _, err := s.viewableGame(ctx, viewer, gameID); err != nil {
		return domain.Question{}, err
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := s.ownedSession(ctx, viewer, gameID, q.Session); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func containsAnswer(answers []domain.MdlAnswer, id int64) bool {
	for _, a := range answers {
		if a.ID == id {
			return true
		}
	}
	return false
}
