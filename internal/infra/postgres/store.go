package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"philosophers-service/internal/domain"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Store is the bun-backed implementation of app.Store. Uniqueness of sessions in
// progress and of attempts per level is enforced by unique indexes; multi-row changes
// run in transactions.
type Store struct {
	db    *bun.DB
	clock func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

// OpenDB opens a bun handle over pgdriver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type gameRow struct {
	bun.BaseModel `bun:"table:philosophers,alias:g"`

	ID                int64     `bun:"id,pk,autoincrement"`
	TimeCreated       time.Time `bun:"timecreated,notnull"`
	TimeModified      time.Time `bun:"timemodified,notnull"`
	Course            int64     `bun:"course,notnull"`
	Name              string    `bun:"name,notnull"`
	QuestionDuration  int       `bun:"question_duration,notnull"`
	ReviewDuration    int       `bun:"review_duration,notnull"`
	ShuffleAnswers    bool      `bun:"question_shuffle_answers,notnull"`
	ReadingSpeed      int       `bun:"question_reading_speed,notnull"`
	QuestionChances   int       `bun:"question_chances,notnull"`
	HighscoreCount    int       `bun:"highscore_count,notnull"`
	HighscoreTeachers bool      `bun:"highscore_teachers,notnull"`
	CompletionRounds  int       `bun:"completionrounds,notnull"`
	CompletionPoints  int       `bun:"completionpoints,notnull"`
	ShuffleLevels     bool      `bun:"shuffle_levels,notnull"`
	LevelTileHeight   int       `bun:"level_tile_height,notnull"`
	LevelTileAlpha    int       `bun:"level_tile_alpha,notnull"`
}

type levelRow struct {
	bun.BaseModel `bun:"table:philosophers_levels,alias:l"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Game     int64  `bun:"game,notnull"`
	State    string `bun:"state,notnull"`
	Name     string `bun:"name,notnull"`
	Position int    `bun:"position,notnull"`
	Image    string `bun:"image,notnull"`
	BgColor  string `bun:"bgcolor,notnull"`
}

type categoryRow struct {
	bun.BaseModel `bun:"table:philosophers_categories,alias:c"`

	ID            int64 `bun:"id,pk,autoincrement"`
	Level         int64 `bun:"level,notnull"`
	MdlCategory   int64 `bun:"mdl_category,notnull"`
	Subcategories bool  `bun:"subcategories,notnull"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:philosophers_gamesessions,alias:s"`

	ID             int64     `bun:"id,pk,autoincrement"`
	TimeCreated    time.Time `bun:"timecreated,notnull"`
	TimeModified   time.Time `bun:"timemodified,notnull"`
	Game           int64     `bun:"game,notnull"`
	User           int64     `bun:"mdl_user,notnull"`
	Score          int       `bun:"score,notnull"`
	AnswersTotal   int       `bun:"answers_total,notnull"`
	AnswersCorrect int       `bun:"answers_correct,notnull"`
	State          string    `bun:"state,notnull"`
	LevelsOrder    []int64   `bun:"levels_order,array"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:philosophers_questions,alias:q"`

	ID             int64     `bun:"id,pk,autoincrement"`
	TimeCreated    time.Time `bun:"timecreated,notnull"`
	TimeModified   time.Time `bun:"timemodified,notnull"`
	Session        int64     `bun:"gamesession,notnull"`
	Level          int64     `bun:"level,notnull"`
	MdlQuestion    int64     `bun:"mdl_question,notnull"`
	AnswerOrder    []int64   `bun:"mdl_answers_order,array"`
	Answer         int64     `bun:"mdl_answer,notnull"`
	Score          int       `bun:"score,notnull"`
	Correct        bool      `bun:"correct,notnull"`
	Finished       bool      `bun:"finished,notnull"`
	TimeRemaining  int       `bun:"time_remaining,notnull"`
	ReadingSeconds int       `bun:"reading_seconds,notnull"`
}

func (s *Store) GetGame(ctx context.Context, id int64) (domain.Game, error) {
	var row gameRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Game{}, notFound(err, domain.ErrGameNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) SaveGame(ctx context.Context, game *domain.Game) error {
	row := gameFromDomain(*game)
	if row.ID == 0 {
		if row.TimeCreated.IsZero() {
			row.TimeCreated = s.clock()
		}
		row.TimeModified = row.TimeCreated
		if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		game.ID = row.ID
		return nil
	}
	res, err := s.db.NewUpdate().Model(&row).ExcludeColumn("timecreated").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update game %d: %w", game.ID, err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (s *Store) DeleteGame(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*gameRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete game %d: %w", id, err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (s *Store) ListActiveLevels(ctx context.Context, gameID int64) ([]domain.Level, error) {
	return s.activeLevels(ctx, s.db, gameID, false)
}

func (s *Store) activeLevels(ctx context.Context, db bun.IDB, gameID int64, lock bool) ([]domain.Level, error) {
	var rows []levelRow
	q := db.NewSelect().Model(&rows).
		Where("game = ?", gameID).
		Where("state = ?", string(domain.LevelActive)).
		Order("position ASC", "id ASC")
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list levels of game %d: %w", gameID, err)
	}
	levels := make([]domain.Level, 0, len(rows))
	for _, r := range rows {
		levels = append(levels, r.toDomain())
	}
	return levels, nil
}

func (s *Store) GetLevel(ctx context.Context, id int64) (domain.Level, error) {
	var row levelRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Level{}, notFound(err, domain.ErrLevelNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) SaveLevel(ctx context.Context, level *domain.Level, categories []domain.CategoryBinding) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := levelFromDomain(*level)
		if row.ID == 0 {
			if err := lockGame(ctx, tx, row.Game); err != nil {
				return err
			}
			count, err := tx.NewSelect().Model((*levelRow)(nil)).
				Where("game = ?", row.Game).
				Where("state = ?", string(domain.LevelActive)).
				Count(ctx)
			if err != nil {
				return fmt.Errorf("count levels: %w", err)
			}
			row.State = string(domain.LevelActive)
			row.Position = count
			if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("insert level: %w", err)
			}
		} else {
			res, err := tx.NewUpdate().Model(&row).Column("name", "bgcolor").WherePK().Exec(ctx)
			if err != nil {
				return fmt.Errorf("update level %d: %w", row.ID, err)
			}
			if err := requireRow(res, domain.ErrLevelNotFound); err != nil {
				return err
			}
		}

		if _, err := tx.NewDelete().Model((*categoryRow)(nil)).Where("level = ?", row.ID).Exec(ctx); err != nil {
			return fmt.Errorf("clear categories of level %d: %w", row.ID, err)
		}
		if len(categories) > 0 {
			rows := make([]categoryRow, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, categoryRow{Level: row.ID, MdlCategory: c.MdlCategory, Subcategories: c.Subcategories})
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert categories of level %d: %w", row.ID, err)
			}
		}
		level.ID = row.ID
		level.State = domain.LevelState(row.State)
		level.Position = row.Position
		return nil
	})
}

func (s *Store) SetLevelImage(ctx context.Context, id int64, image string) error {
	res, err := s.db.NewUpdate().Model((*levelRow)(nil)).Set("image = ?", image).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("set image of level %d: %w", id, err)
	}
	return requireRow(res, domain.ErrLevelNotFound)
}

func (s *Store) ListCategories(ctx context.Context, levelID int64) ([]domain.CategoryBinding, error) {
	var rows []categoryRow
	if err := s.db.NewSelect().Model(&rows).Where("level = ?", levelID).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list categories of level %d: %w", levelID, err)
	}
	out := make([]domain.CategoryBinding, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CategoryBinding{ID: r.ID, Level: r.Level, MdlCategory: r.MdlCategory, Subcategories: r.Subcategories})
	}
	return out, nil
}

func (s *Store) DeleteLevel(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row levelRow
		if err := tx.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
			return notFound(err, domain.ErrLevelNotFound)
		}
		if err := lockGame(ctx, tx, row.Game); err != nil {
			return err
		}
		if err := tx.NewSelect().Model(&row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
			return notFound(err, domain.ErrLevelNotFound)
		}
		if row.State != string(domain.LevelActive) {
			return domain.ErrInvalidTransition
		}
		if _, err := tx.NewUpdate().Model((*levelRow)(nil)).
			Set("state = ?", string(domain.LevelDeleted)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete level %d: %w", id, err)
		}
		return s.renumber(ctx, tx, row.Game)
	})
}

func (s *Store) MoveLevel(ctx context.Context, id int64, dir domain.Direction) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row levelRow
		if err := tx.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
			return notFound(err, domain.ErrLevelNotFound)
		}
		if err := lockGame(ctx, tx, row.Game); err != nil {
			return err
		}
		if err := s.renumber(ctx, tx, row.Game); err != nil {
			return err
		}
		levels, err := s.activeLevels(ctx, tx, row.Game, true)
		if err != nil {
			return err
		}
		moved, other, swapped, err := domain.SwapWithNeighbour(levels, id, dir)
		if err != nil || !swapped {
			return err
		}
		for _, l := range []domain.Level{moved, other} {
			if err := setPosition(ctx, tx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) RenumberLevels(ctx context.Context, gameID int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockGame(ctx, tx, gameID); err != nil {
			return err
		}
		return s.renumber(ctx, tx, gameID)
	})
}

func (s *Store) renumber(ctx context.Context, tx bun.Tx, gameID int64) error {
	levels, err := s.activeLevels(ctx, tx, gameID, true)
	if err != nil {
		return err
	}
	for _, l := range domain.Renumber(levels) {
		if err := setPosition(ctx, tx, l); err != nil {
			return err
		}
	}
	return nil
}

// lockGame serialises position changes of a game's levels.
func lockGame(ctx context.Context, tx bun.Tx, gameID int64) error {
	var id int64
	err := tx.NewSelect().Model((*gameRow)(nil)).Column("id").Where("id = ?", gameID).For("UPDATE").Scan(ctx, &id)
	if err != nil {
		return notFound(err, domain.ErrGameNotFound)
	}
	return nil
}

func setPosition(ctx context.Context, tx bun.Tx, l domain.Level) error {
	_, err := tx.NewUpdate().Model((*levelRow)(nil)).Set("position = ?", l.Position).Where("id = ?", l.ID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("set position of level %d: %w", l.ID, err)
	}
	return nil
}

func (s *Store) FindProgressSession(ctx context.Context, gameID, userID int64) (domain.GameSession, error) {
	var row sessionRow
	err := s.db.NewSelect().Model(&row).
		Where("game = ?", gameID).
		Where("mdl_user = ?", userID).
		Where("state = ?", string(domain.SessionProgress)).
		Scan(ctx)
	if err != nil {
		return domain.GameSession{}, notFound(err, domain.ErrSessionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateSession(ctx context.Context, session *domain.GameSession) (bool, error) {
	row := sessionFromDomain(*session)
	row.State = string(domain.SessionProgress)
	if row.TimeCreated.IsZero() {
		row.TimeCreated = s.clock()
		row.TimeModified = row.TimeCreated
	}
	err := s.db.NewInsert().Model(&row).
		On("CONFLICT (game, mdl_user) WHERE state = 'progress' DO NOTHING").
		Returning("*").
		Scan(ctx)
	if err == nil {
		*session = row.toDomain()
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert game session: %w", err)
	}
	existing, err := s.FindProgressSession(ctx, session.Game, session.User)
	if err != nil {
		return false, err
	}
	*session = existing
	return false, nil
}

func (s *Store) DumpProgressSessions(ctx context.Context, gameID, userID int64) error {
	_, err := s.db.NewUpdate().Model((*sessionRow)(nil)).
		Set("state = ?", string(domain.SessionDumped)).
		Set("timemodified = ?", s.clock()).
		Where("game = ?", gameID).
		Where("mdl_user = ?", userID).
		Where("state = ?", string(domain.SessionProgress)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("dump sessions of user %d: %w", userID, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id int64) (domain.GameSession, error) {
	var row sessionRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.GameSession{}, notFound(err, domain.ErrSessionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) TransitionSession(ctx context.Context, id int64, from, to domain.SessionState) (domain.GameSession, error) {
	var row sessionRow
	err := s.db.NewUpdate().Model(&row).
		Set("state = ?", string(to)).
		Set("timemodified = ?", s.clock()).
		Where("id = ?", id).
		Where("state = ?", string(from)).
		Returning("*").
		Scan(ctx)
	if err == nil {
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.GameSession{}, fmt.Errorf("transition game session %d: %w", id, err)
	}
	if _, err := s.GetSession(ctx, id); err != nil {
		return domain.GameSession{}, err
	}
	return domain.GameSession{}, domain.ErrInvalidTransition
}

type scoreTotalRow struct {
	User     int64 `bun:"mdl_user"`
	Total    int   `bun:"total"`
	Best     int   `bun:"best"`
	Sessions int   `bun:"sessions"`
}

func (s *Store) ScoreTotals(ctx context.Context, gameID int64, since time.Time) ([]domain.UserScore, error) {
	var rows []scoreTotalRow
	err := s.db.NewSelect().
		TableExpr("philosophers_gamesessions").
		ColumnExpr("mdl_user").
		ColumnExpr("SUM(score) AS total").
		ColumnExpr("MAX(score) AS best").
		ColumnExpr("COUNT(*) AS sessions").
		Where("game = ?", gameID).
		Where("state = ?", string(domain.SessionFinished)).
		Where("timemodified >= ?", since).
		Group("mdl_user").
		Order("mdl_user ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("score totals of game %d: %w", gameID, err)
	}
	out := make([]domain.UserScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.UserScore{User: r.User, Total: r.Total, Max: r.Best, Sessions: r.Sessions})
	}
	return out, nil
}

func (s *Store) UserScore(ctx context.Context, gameID, userID int64) (domain.UserScore, error) {
	var row scoreTotalRow
	err := s.db.NewSelect().
		TableExpr("philosophers_gamesessions").
		ColumnExpr("? AS mdl_user", userID).
		ColumnExpr("COALESCE(SUM(score), 0) AS total").
		ColumnExpr("COALESCE(MAX(score), 0) AS best").
		ColumnExpr("COUNT(*) AS sessions").
		Where("game = ?", gameID).
		Where("mdl_user = ?", userID).
		Where("state = ?", string(domain.SessionFinished)).
		Scan(ctx, &row)
	if err != nil {
		return domain.UserScore{}, fmt.Errorf("score of user %d: %w", userID, err)
	}
	return domain.UserScore{User: userID, Total: row.Total, Max: row.Best, Sessions: row.Sessions}, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var row questionRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) FindQuestion(ctx context.Context, sessionID, levelID int64) (domain.Question, error) {
	var row questionRow
	err := s.db.NewSelect().Model(&row).
		Where("gamesession = ?", sessionID).
		Where("level = ?", levelID).
		Scan(ctx)
	if err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuestions(ctx context.Context, sessionID int64) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).Where("gamesession = ?", sessionID).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions of session %d: %w", sessionID, err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) (bool, error) {
	row := questionFromDomain(*q)
	if row.TimeCreated.IsZero() {
		row.TimeCreated = s.clock()
		row.TimeModified = row.TimeCreated
	}
	err := s.db.NewInsert().Model(&row).
		On("CONFLICT (gamesession, level) DO NOTHING").
		Returning("*").
		Scan(ctx)
	if err == nil {
		*q = row.toDomain()
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert question: %w", err)
	}
	existing, err := s.FindQuestion(ctx, q.Session, q.Level)
	if err != nil {
		return false, err
	}
	*q = existing
	return false, nil
}

func (s *Store) FinishQuestion(ctx context.Context, q domain.Question) (domain.GameSession, error) {
	var session sessionRow
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var stored questionRow
		err := tx.NewUpdate().Model(&stored).
			Set("mdl_answer = ?", q.Answer).
			Set("correct = ?", q.Correct).
			Set("score = ?", q.Score).
			Set("time_remaining = ?", q.TimeRemaining).
			Set("finished = TRUE").
			Set("timemodified = ?", q.TimeModified).
			Where("id = ?", q.ID).
			Where("finished = FALSE").
			Returning("*").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			var exists questionRow
			if err := tx.NewSelect().Model(&exists).Where("id = ?", q.ID).Scan(ctx); err != nil {
				return notFound(err, domain.ErrQuestionNotFound)
			}
			return domain.ErrAlreadyFinished
		}
		if err != nil {
			return fmt.Errorf("finish question %d: %w", q.ID, err)
		}

		correct := 0
		if stored.Correct {
			correct = 1
		}
		err = tx.NewUpdate().Model(&session).
			Set("score = score + ?", stored.Score).
			Set("answers_total = answers_total + 1").
			Set("answers_correct = answers_correct + ?", correct).
			Set("timemodified = ?", s.clock()).
			Where("id = ?", stored.Session).
			Where("state = ?", string(domain.SessionProgress)).
			Returning("*").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInvalidTransition
		}
		if err != nil {
			return fmt.Errorf("count answer of session %d: %w", stored.Session, err)
		}
		return nil
	})
	if err != nil {
		return domain.GameSession{}, err
	}
	return session.toDomain(), nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

func requireRow(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}

func gameFromDomain(g domain.Game) gameRow {
	return gameRow{
		ID:                g.ID,
		TimeCreated:       g.TimeCreated,
		TimeModified:      g.TimeModified,
		Course:            g.Course,
		Name:              g.Name,
		QuestionDuration:  g.QuestionDuration,
		ReviewDuration:    g.ReviewDuration,
		ShuffleAnswers:    g.ShuffleAnswers,
		ReadingSpeed:      int(g.ReadingSpeed),
		QuestionChances:   g.QuestionChances,
		HighscoreCount:    g.HighscoreCount,
		HighscoreTeachers: g.HighscoreTeachers,
		CompletionRounds:  g.CompletionRounds,
		CompletionPoints:  g.CompletionPoints,
		ShuffleLevels:     g.ShuffleLevels,
		LevelTileHeight:   int(g.LevelTileHeight),
		LevelTileAlpha:    g.LevelTileAlpha,
	}
}

func (r gameRow) toDomain() domain.Game {
	return domain.Game{
		ID:                r.ID,
		TimeCreated:       r.TimeCreated,
		TimeModified:      r.TimeModified,
		Course:            r.Course,
		Name:              r.Name,
		QuestionDuration:  r.QuestionDuration,
		ReviewDuration:    r.ReviewDuration,
		ShuffleAnswers:    r.ShuffleAnswers,
		ReadingSpeed:      domain.ReadingSpeed(r.ReadingSpeed),
		QuestionChances:   r.QuestionChances,
		HighscoreCount:    r.HighscoreCount,
		HighscoreTeachers: r.HighscoreTeachers,
		CompletionRounds:  r.CompletionRounds,
		CompletionPoints:  r.CompletionPoints,
		ShuffleLevels:     r.ShuffleLevels,
		LevelTileHeight:   domain.TileHeight(r.LevelTileHeight),
		LevelTileAlpha:    r.LevelTileAlpha,
	}
}

func levelFromDomain(l domain.Level) levelRow {
	return levelRow{ID: l.ID, Game: l.Game, State: string(l.State), Name: l.Name, Position: l.Position, Image: l.Image, BgColor: l.BgColor}
}

func (r levelRow) toDomain() domain.Level {
	return domain.Level{ID: r.ID, Game: r.Game, State: domain.LevelState(r.State), Name: r.Name, Position: r.Position, Image: r.Image, BgColor: r.BgColor}
}

func sessionFromDomain(s domain.GameSession) sessionRow {
	order := s.LevelsOrder
	if order == nil {
		order = []int64{}
	}
	return sessionRow{
		ID:             s.ID,
		TimeCreated:    s.TimeCreated,
		TimeModified:   s.TimeModified,
		Game:           s.Game,
		User:           s.User,
		Score:          s.Score,
		AnswersTotal:   s.AnswersTotal,
		AnswersCorrect: s.AnswersCorrect,
		State:          string(s.State),
		LevelsOrder:    order,
	}
}

func (r sessionRow) toDomain() domain.GameSession {
	return domain.GameSession{
		ID:             r.ID,
		TimeCreated:    r.TimeCreated,
		TimeModified:   r.TimeModified,
		Game:           r.Game,
		User:           r.User,
		Score:          r.Score,
		AnswersTotal:   r.AnswersTotal,
		AnswersCorrect: r.AnswersCorrect,
		State:          domain.SessionState(r.State),
		LevelsOrder:    r.LevelsOrder,
	}
}

func questionFromDomain(q domain.Question) questionRow {
	order := q.AnswerOrder
	if order == nil {
		order = []int64{}
	}
	return questionRow{
		ID:             q.ID,
		TimeCreated:    q.TimeCreated,
		TimeModified:   q.TimeModified,
		Session:        q.Session,
		Level:          q.Level,
		MdlQuestion:    q.MdlQuestion,
		AnswerOrder:    order,
		Answer:         q.Answer,
		Score:          q.Score,
		Correct:        q.Correct,
		Finished:       q.Finished,
		TimeRemaining:  q.TimeRemaining,
		ReadingSeconds: q.ReadingSeconds,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:             r.ID,
		TimeCreated:    r.TimeCreated,
		TimeModified:   r.TimeModified,
		Session:        r.Session,
		Level:          r.Level,
		MdlQuestion:    r.MdlQuestion,
		AnswerOrder:    r.AnswerOrder,
		Answer:         r.Answer,
		Score:          r.Score,
		Correct:        r.Correct,
		Finished:       r.Finished,
		TimeRemaining:  r.TimeRemaining,
		ReadingSeconds: r.ReadingSeconds,
	}
}
