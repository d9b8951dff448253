package client

import (
	"context"
	"strings"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

const methodPrefix = "mod_philosophers_"

type boolResult struct {
	Result bool  `json:"result"`
	ID     int64 `json:"id"`
}

type componentString struct {
	Key    string `json:"key"`
	String string `json:"string"`
}

// Init loads strings, game and session with its levels concurrently. A session with
// a level that was opened but not answered resumes on that question; otherwise the
// level overview is shown.
func (s *Store) Init(ctx context.Context, lang string) error {
	lang = strings.ReplaceAll(lang, "-", "_")
	s.update(func(st *State) { st.Lang = lang })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loadStrings(gctx, lang)
	})
	g.Go(func() error {
		return s.FetchGame(gctx)
	})
	g.Go(func() error {
		if err := s.FetchGameSession(gctx); err != nil {
			return err
		}
		var resume int64
		s.read(func(st State) {
			if level, ok := unfinishedLevel(st.Levels); ok {
				resume = level.ID
			}
		})
		if resume != 0 {
			return s.ShowQuestionForLevel(gctx, resume)
		}
		return s.SetMode(ModeLevels)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	s.update(func(st *State) { st.Initialized = true })
	return nil
}

func unfinishedLevel(levels []domain.LevelView) (domain.LevelView, bool) {
	for _, l := range levels {
		if l.Seen && !l.Finished {
			return l, true
		}
	}
	return domain.LevelView{}, false
}

func (s *Store) loadStrings(ctx context.Context, lang string) error {
	table, err := s.strings.Get(ctx, lang, func(ctx context.Context, lang string) (map[string]string, error) {
		var list []componentString
		if err := s.call(ctx, "get_component_strings", map[string]any{"lang": lang}, &list); err != nil {
			return nil, err
		}
		table := make(map[string]string, len(list))
		for _, str := range list {
			table[str.Key] = str.String
		}
		return table, nil
	})
	if err != nil {
		return err
	}
	s.update(func(st *State) { st.Strings = table })
	return nil
}

func (s *Store) FetchGame(ctx context.Context) error {
	var game domain.GameView
	if err := s.call(ctx, methodPrefix+"get_game", nil, &game); err != nil {
		return err
	}
	s.update(func(st *State) { st.Game = &game })
	return nil
}

// FetchGameSession loads the session in progress (the server creates one if needed)
// and then its levels.
func (s *Store) FetchGameSession(ctx context.Context) error {
	var session domain.GameSession
	if err := s.call(ctx, methodPrefix+"get_current_gamesession", nil, &session); err != nil {
		return err
	}
	s.update(func(st *State) { st.Session = &session })
	return s.fetchLevels(ctx)
}

// CreateGameSession abandons the current session and starts over on the intro screen.
func (s *Store) CreateGameSession(ctx context.Context) error {
	var session domain.GameSession
	if err := s.call(ctx, methodPrefix+"create_gamesession", nil, &session); err != nil {
		return err
	}
	s.update(func(st *State) { st.Session = &session })
	if err := s.fetchLevels(ctx); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.Question = nil
		st.MdlQuestion = nil
		st.MdlAnswers = nil
		st.Mode = ModeIntro
	})
	return nil
}

func (s *Store) CloseGameSession(ctx context.Context) error {
	sessionID, err := s.sessionID()
	if err != nil {
		return err
	}
	var session domain.GameSession
	if err := s.call(ctx, methodPrefix+"close_gamesession", map[string]any{"gamesessionid": sessionID}, &session); err != nil {
		return err
	}
	s.update(func(st *State) { st.Session = &session })
	return s.fetchLevels(ctx)
}

// ShowQuestionForLevel loads the attempt of a level, answered or not, and switches to
// the question screen.
func (s *Store) ShowQuestionForLevel(ctx context.Context, levelID int64) error {
	if err := s.fetchQuestion(ctx, levelID); err != nil {
		return err
	}
	s.update(func(st *State) {
		for i := range st.Levels {
			if st.Levels[i].ID == levelID {
				st.Levels[i].Seen = true
			}
		}
		st.Mode = ModeQuestion
	})
	return nil
}

func (s *Store) SubmitAnswer(ctx context.Context, mdlAnswerID int64) error {
	questionID, err := s.questionID()
	if err != nil {
		return err
	}
	var question domain.Question
	args := map[string]any{"questionid": questionID, "mdlanswerid": mdlAnswerID}
	if err := s.call(ctx, methodPrefix+"submit_answer", args, &question); err != nil {
		return err
	}
	s.update(func(st *State) { st.Question = &question })
	if err := s.fetchMdlAnswers(ctx, question.ID); err != nil {
		return err
	}
	return s.FetchGameSession(ctx)
}

// CancelAnswer reports that the time for the current question ran out.
func (s *Store) CancelAnswer(ctx context.Context) error {
	questionID, err := s.questionID()
	if err != nil {
		return err
	}
	var question domain.Question
	if err := s.call(ctx, methodPrefix+"cancel_answer", map[string]any{"questionid": questionID}, &question); err != nil {
		return err
	}
	s.update(func(st *State) { st.Question = &question })
	if err := s.fetchMdlAnswers(ctx, question.ID); err != nil {
		return err
	}
	return s.FetchGameSession(ctx)
}

func (s *Store) FetchScores(ctx context.Context, span domain.Span) error {
	var scores []domain.ScoreRow
	if err := s.call(ctx, methodPrefix+"get_scores_global", map[string]any{"span": string(span)}, &scores); err != nil {
		return err
	}
	s.update(func(st *State) { st.Scores = scores })
	return nil
}

func (s *Store) FetchLevelCategories(ctx context.Context, levelID int64) error {
	var categories []domain.CategoryBinding
	if err := s.call(ctx, methodPrefix+"get_level_categories", map[string]any{"levelid": levelID}, &categories); err != nil {
		return err
	}
	s.update(func(st *State) { st.LevelCategories = categories })
	return nil
}

func (s *Store) ChangeLevelPosition(ctx context.Context, levelID int64, dir domain.Direction) error {
	var res boolResult
	args := map[string]any{"levelid": levelID, "direction": string(dir)}
	if err := s.call(ctx, methodPrefix+"set_level_position", args, &res); err != nil {
		return err
	}
	if !res.Result {
		return nil
	}
	return s.fetchLevels(ctx)
}

func (s *Store) DeleteLevel(ctx context.Context, levelID int64) error {
	var res boolResult
	if err := s.call(ctx, methodPrefix+"delete_level", map[string]any{"levelid": levelID}, &res); err != nil {
		return err
	}
	if !res.Result {
		return nil
	}
	return s.fetchLevels(ctx)
}

// SaveLevel creates or updates a level and returns its id.
func (s *Store) SaveLevel(ctx context.Context, in app.SaveLevelInput) (int64, error) {
	args := map[string]any{
		"levelid":      in.ID,
		"name":         in.Name,
		"bgcolor":      in.BgColor,
		"categories":   in.Categories,
		"remove_image": in.RemoveImage,
	}
	if in.Image != nil {
		args["image"] = in.Image
	}
	var res boolResult
	if err := s.call(ctx, methodPrefix+"save_level", args, &res); err != nil {
		return 0, err
	}
	if err := s.fetchLevels(ctx); err != nil {
		return res.ID, err
	}
	return res.ID, nil
}

func (s *Store) FetchMdlCategories(ctx context.Context) error {
	var categories []domain.MdlCategory
	if err := s.call(ctx, methodPrefix+"get_mdl_categories", nil, &categories); err != nil {
		return err
	}
	s.update(func(st *State) { st.MdlCategories = categories })
	return nil
}

func (s *Store) fetchLevels(ctx context.Context) error {
	args := make(map[string]any)
	s.read(func(st State) {
		if st.Session != nil {
			args["gamesessionid"] = st.Session.ID
		}
	})
	var levels []domain.LevelView
	if err := s.call(ctx, methodPrefix+"get_levels", args, &levels); err != nil {
		return err
	}
	s.update(func(st *State) { st.Levels = levels })
	return nil
}

// fetchQuestion loads the attempt of a level together with its bank question and
// answers. A level without any usable question clears the question state.
func (s *Store) fetchQuestion(ctx context.Context, levelID int64) error {
	sessionID, err := s.sessionID()
	if err != nil {
		return err
	}
	var question domain.Question
	args := map[string]any{"gamesessionid": sessionID, "levelid": levelID}
	if err := s.call(ctx, methodPrefix+"get_question", args, &question); err != nil {
		return err
	}
	if question.ID == 0 {
		s.update(func(st *State) {
			st.Question = nil
			st.MdlQuestion = nil
			st.MdlAnswers = nil
		})
		return nil
	}
	s.update(func(st *State) { st.Question = &question })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var mdl domain.MdlQuestion
		if err := s.call(gctx, methodPrefix+"get_mdl_question", map[string]any{"questionid": question.ID}, &mdl); err != nil {
			return err
		}
		s.update(func(st *State) { st.MdlQuestion = &mdl })
		return nil
	})
	g.Go(func() error {
		return s.fetchMdlAnswers(gctx, question.ID)
	})
	return g.Wait()
}

func (s *Store) fetchMdlAnswers(ctx context.Context, questionID int64) error {
	var answers []domain.AnswerView
	if err := s.call(ctx, methodPrefix+"get_mdl_answers", map[string]any{"questionid": questionID}, &answers); err != nil {
		return err
	}
	s.update(func(st *State) { st.MdlAnswers = answers })
	return nil
}

func (s *Store) sessionID() (int64, error) {
	var id int64
	s.read(func(st State) {
		if st.Session != nil {
			id = st.Session.ID
		}
	})
	if id == 0 {
		return 0, errNoSession
	}
	return id, nil
}

func (s *Store) questionID() (int64, error) {
	var id int64
	s.read(func(st State) {
		if st.Question != nil {
			id = st.Question.ID
		}
	})
	if id == 0 {
		return 0, errNoQuestion
	}
	return id, nil
}
