package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"
	"philosophers-service/internal/lang"
)

const methodPrefix = "mod_philosophers_"

// callArgs holds every scalar argument a method may take. Each method reads the
// fields it needs; coursemoduleid always selects the game.
type callArgs struct {
	CourseModuleID int64  `json:"coursemoduleid"`
	GameSessionID  int64  `json:"gamesessionid"`
	LevelID        int64  `json:"levelid"`
	QuestionID     int64  `json:"questionid"`
	MdlAnswerID    int64  `json:"mdlanswerid"`
	Direction      directionArg `json:"direction"`
	Span           string       `json:"span"`
	Lang           string       `json:"lang"`
}

// directionArg takes "up"/"down" as a string and the -1/+1 deltas either as strings
// or as JSON numbers.
type directionArg string

func (d *directionArg) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = directionArg(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("direction must be a string or a number: %w", err)
	}
	*d = directionArg(n.String())
	return nil
}

type call struct {
	viewer domain.Viewer
	args   callArgs
	raw    json.RawMessage
}

type boolResult struct {
	Result bool  `json:"result"`
	ID     int64 `json:"id,omitempty"`
}

type methodFunc func(ctx context.Context, s *app.GameService, c call) (any, error)

var methods = map[string]methodFunc{
	"get_game": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.GetGame(ctx, c.viewer, c.args.CourseModuleID)
	},
	"save_game": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		var in struct {
			Game domain.Game `json:"game"`
		}
		if err := decodeInto(c.raw, &in); err != nil {
			return nil, err
		}
		in.Game.ID = c.args.CourseModuleID
		return s.SaveGame(ctx, c.viewer, in.Game)
	},
	"delete_game": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		if err := s.DeleteGame(ctx, c.viewer, c.args.CourseModuleID); err != nil {
			return nil, err
		}
		return boolResult{Result: true}, nil
	},
	"get_levels": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.GetLevels(ctx, c.viewer, c.args.CourseModuleID, c.args.GameSessionID)
	},
	"get_level_categories": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.GetLevelCategories(ctx, c.viewer, c.args.CourseModuleID, c.args.LevelID)
	},
	"save_level": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		var in app.SaveLevelInput
		if err := decodeInto(c.raw, &in); err != nil {
			return nil, err
		}
		id, err := s.SaveLevel(ctx, c.viewer, c.args.CourseModuleID, in)
		if err != nil {
			return nil, err
		}
		return boolResult{Result: true, ID: id}, nil
	},
	"delete_level": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		if err := s.DeleteLevel(ctx, c.viewer, c.args.CourseModuleID, c.args.LevelID); err != nil {
			return nil, err
		}
		return boolResult{Result: true}, nil
	},
	"set_level_position": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		dir, ok := domain.ParseDirection(string(c.args.Direction))
		if !ok {
			return nil, fmt.Errorf("direction %q: %w", c.args.Direction, domain.ErrInvalidInput)
		}
		if err := s.MoveLevel(ctx, c.viewer, c.args.CourseModuleID, c.args.LevelID, dir); err != nil {
			return nil, err
		}
		return boolResult{Result: true}, nil
	},
	"get_current_gamesession": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.CurrentSession(ctx, c.viewer, c.args.CourseModuleID)
	},
	"create_gamesession": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.CreateSession(ctx, c.viewer, c.args.CourseModuleID)
	},
	"close_gamesession": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.CloseSession(ctx, c.viewer, c.args.CourseModuleID, c.args.GameSessionID)
	},
	"get_question": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		q, err := s.GetQuestion(ctx, c.viewer, c.args.CourseModuleID, c.args.GameSessionID, c.args.LevelID)
		if errors.Is(err, domain.ErrNoQuestionAvailable) {
			return domain.Question{}, nil
		}
		return q, err
	},
	"submit_answer": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.SubmitAnswer(ctx, c.viewer, c.args.CourseModuleID, c.args.QuestionID, c.args.MdlAnswerID)
	},
	"cancel_answer": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.CancelAnswer(ctx, c.viewer, c.args.CourseModuleID, c.args.QuestionID)
	},
	"get_mdl_question": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.MdlQuestion(ctx, c.viewer, c.args.CourseModuleID, c.args.QuestionID)
	},
	"get_mdl_answers": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.MdlAnswers(ctx, c.viewer, c.args.CourseModuleID, c.args.QuestionID)
	},
	"get_mdl_categories": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.MdlCategories(ctx, c.viewer, c.args.CourseModuleID)
	},
	"get_scores_global": func(ctx context.Context, s *app.GameService, c call) (any, error) {
		return s.Scores(ctx, c.viewer, c.args.CourseModuleID, domain.ParseSpan(c.args.Span))
	},
	"get_component_strings": func(_ context.Context, _ *app.GameService, c call) (any, error) {
		return lang.Strings(c.args.Lang)
	},
}

// Methods lists the callable method names without prefix.
func Methods() []string {
	out := make([]string, 0, len(methods))
	for name := range methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatcher executes named calls against the game service.
type Dispatcher struct {
	service *app.GameService
}

func NewDispatcher(service *app.GameService) *Dispatcher {
	return &Dispatcher{service: service}
}

// Call runs one method. Unknown methods are reported as not found.
func (d *Dispatcher) Call(ctx context.Context, viewer domain.Viewer, method string, raw json.RawMessage) (any, error) {
	fn, ok := methods[strings.TrimPrefix(method, methodPrefix)]
	if !ok {
		return nil, fmt.Errorf("method %q %w", method, domain.ErrNotFound)
	}
	var args callArgs
	if err := decodeInto(raw, &args); err != nil {
		return nil, err
	}
	return fn(ctx, d.service, call{viewer: viewer, args: args, raw: raw})
}

func decodeInto(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode args: %v: %w", err, domain.ErrInvalidInput)
	}
	return nil
}
