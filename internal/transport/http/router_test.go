package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"philosophers-service/internal/app"
	"philosophers-service/internal/auth"
	"philosophers-service/internal/domain"
	"philosophers-service/internal/infra/memory"

	"github.com/gin-gonic/gin"
)

var (
	teacher = domain.Viewer{UserID: 1, Name: "Teacher"}
	student = domain.Viewer{UserID: 2, Name: "Student"}
)

type testEnv struct {
	router  *gin.Engine
	tokens  *auth.Tokens
	service *app.GameService
	gameID  int64
	levelID int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bank := memory.NewStaticQuestionBank()
	bank.AddCategory(domain.MdlCategory{ID: 1, Course: 7, Name: "Ancient"})
	bank.AddQuestion(
		domain.MdlQuestion{ID: 10, Category: 1, Name: "Cave", Text: "Who wrote it?", Type: domain.QuestionTypeMultichoice, Single: true},
		domain.MdlAnswer{ID: 100, Text: "Plato", Fraction: 1},
		domain.MdlAnswer{ID: 101, Text: "Kant", Fraction: 0},
	)
	bank.AddCategory(domain.MdlCategory{ID: 2, Course: 7, Name: "Empty"})

	caps := memory.NewCapabilities(true)
	service := app.NewGameService(memory.NewStore(), bank,
		app.WithCapabilities(caps),
		app.WithBlobStore(memory.NewBlobStore()),
		app.WithLocker(memory.NewLocker()),
		app.WithRand(rand.New(rand.NewSource(1))),
	)
	ctx := context.Background()
	game := domain.NewGame()
	game.Course = 7
	game.Name = "Philosophers"
	gameID, err := service.ImportGame(ctx, app.GameDocument{Game: game})
	if err != nil {
		t.Fatalf("import game: %v", err)
	}
	caps.Grant(app.CapabilityManage, gameID, teacher.UserID)

	levelID, err := service.SaveLevel(ctx, teacher, gameID, app.SaveLevelInput{
		Name:       "Athens",
		BgColor:    "#abc",
		Categories: []app.CategoryInput{{MdlCategory: 1}},
		Image:      &app.ImageUpload{MimeType: "image/png", Content: []byte("png")},
	})
	if err != nil {
		t.Fatalf("save level: %v", err)
	}

	tokens := auth.NewTokens("secret", "test")
	return &testEnv{
		router:  NewRouter(service, tokens, RouterConfig{RequestTimeout: 5 * time.Second}),
		tokens:  tokens,
		service: service,
		gameID:  gameID,
		levelID: levelID,
	}
}

func (e *testEnv) token(t *testing.T, viewer domain.Viewer) string {
	t.Helper()
	token, err := e.tokens.Issue(viewer, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

type batchResult struct {
	Error     bool            `json:"error"`
	Data      json.RawMessage `json:"data"`
	Exception struct {
		ErrorCode string `json:"errorcode"`
		Message   string `json:"message"`
	} `json:"exception"`
}

func (e *testEnv) ajax(t *testing.T, viewer domain.Viewer, calls ...map[string]any) []batchResult {
	t.Helper()
	for i, c := range calls {
		c["index"] = i
	}
	body, _ := json.Marshal(calls)
	req := httptest.NewRequest(http.MethodPost, "/ajax", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.token(t, viewer))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ajax status %d: %s", rec.Code, rec.Body.String())
	}
	var out []batchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(out) != len(calls) {
		t.Fatalf("expected %d results, got %d", len(calls), len(out))
	}
	return out
}

func (e *testEnv) method(name string, args map[string]any) map[string]any {
	if args == nil {
		args = map[string]any{}
	}
	args["coursemoduleid"] = e.gameID
	return map[string]any{"methodname": name, "args": args}
}

func decode[T any](t *testing.T, r batchResult) T {
	t.Helper()
	if r.Error {
		t.Fatalf("unexpected error %s: %s", r.Exception.ErrorCode, r.Exception.Message)
	}
	var v T
	if err := json.Unmarshal(r.Data, &v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return v
}

func TestAjaxPlayThrough(t *testing.T) {
	env := newTestEnv(t)

	res := env.ajax(t, student,
		env.method("mod_philosophers_get_game", nil),
		env.method("mod_philosophers_get_current_gamesession", nil),
	)
	game := decode[domain.GameView](t, res[0])
	if game.UserTeacher || game.User != student.UserID {
		t.Fatalf("unexpected game view %+v", game)
	}
	session := decode[domain.GameSession](t, res[1])
	if session.ID == 0 || session.State != domain.SessionProgress {
		t.Fatalf("unexpected session %+v", session)
	}

	res = env.ajax(t, student, env.method("get_question", map[string]any{
		"gamesessionid": session.ID,
		"levelid":       env.levelID,
	}))
	question := decode[domain.Question](t, res[0])
	if question.ID == 0 || question.MdlQuestion != 10 {
		t.Fatalf("unexpected question %+v", question)
	}

	res = env.ajax(t, student,
		env.method("submit_answer", map[string]any{"questionid": question.ID, "mdlanswerid": 100}),
		env.method("submit_answer", map[string]any{"questionid": question.ID, "mdlanswerid": 100}),
		env.method("get_mdl_answers", map[string]any{"questionid": question.ID}),
		env.method("get_levels", map[string]any{"gamesessionid": session.ID}),
	)
	answered := decode[domain.Question](t, res[0])
	if !answered.Finished || !answered.Correct || answered.Score <= 0 {
		t.Fatalf("unexpected answered question %+v", answered)
	}
	if !res[1].Error || res[1].Exception.ErrorCode != codeAlreadyFinished {
		t.Fatalf("expected alreadyfinished, got %+v", res[1])
	}
	answers := decode[[]domain.AnswerView](t, res[2])
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	levels := decode[[]domain.LevelView](t, res[3])
	if len(levels) != 1 || !levels[0].Finished || levels[0].ImageURL == "" {
		t.Fatalf("unexpected levels %+v", levels)
	}

	// the only level was answered, so the session closed itself
	res = env.ajax(t, student,
		env.method("close_gamesession", map[string]any{"gamesessionid": session.ID}),
		env.method("get_scores_global", map[string]any{"span": "day"}),
	)
	if !res[0].Error || res[0].Exception.ErrorCode != codeInvalidTransition {
		t.Fatalf("expected invalidtransition, got %+v", res[0])
	}
	scores := decode[[]domain.ScoreRow](t, res[1])
	if len(scores) != 1 || scores[0].User != student.UserID || scores[0].Score != answered.Score {
		t.Fatalf("unexpected scores %+v", scores)
	}
}

func TestAjaxNoQuestionSentinel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	emptyID, err := env.service.SaveLevel(ctx, teacher, env.gameID, app.SaveLevelInput{
		Name: "Empty", BgColor: "#fff", Categories: []app.CategoryInput{{MdlCategory: 2}},
	})
	if err != nil {
		t.Fatalf("save level: %v", err)
	}
	session, err := env.service.CurrentSession(ctx, student, env.gameID)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}

	res := env.ajax(t, student, env.method("get_question", map[string]any{
		"gamesessionid": session.ID,
		"levelid":       emptyID,
	}))
	q := decode[domain.Question](t, res[0])
	if q.ID != 0 {
		t.Fatalf("expected id 0 sentinel, got %+v", q)
	}
}

func TestAjaxAdminMethods(t *testing.T) {
	env := newTestEnv(t)

	res := env.ajax(t, student, env.method("delete_level", map[string]any{"levelid": env.levelID}))
	if !res[0].Error || res[0].Exception.ErrorCode != codePermissionDenied {
		t.Fatalf("expected permissiondenied, got %+v", res[0])
	}

	res = env.ajax(t, teacher,
		env.method("save_level", map[string]any{
			"name":       "Rome",
			"bgcolor":    "#123456",
			"categories": []map[string]any{{"mdlcategory": 1, "subcategories": true}},
		}),
		env.method("set_level_position", map[string]any{"levelid": env.levelID, "direction": "sideways"}),
		env.method("get_mdl_categories", nil),
		env.method("unknown_method", nil),
	)
	saved := decode[boolResult](t, res[0])
	if !saved.Result || saved.ID == 0 {
		t.Fatalf("unexpected save result %+v", saved)
	}
	if !res[1].Error || res[1].Exception.ErrorCode != codeInvalidInput {
		t.Fatalf("expected invalidinput, got %+v", res[1])
	}
	if cats := decode[[]domain.MdlCategory](t, res[2]); len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	if !res[3].Error || res[3].Exception.ErrorCode != codeNotFound {
		t.Fatalf("expected notfound, got %+v", res[3])
	}

	res = env.ajax(t, teacher,
		env.method("set_level_position", map[string]any{"levelid": saved.ID, "direction": "up"}),
		env.method("get_levels", nil),
		env.method("get_level_categories", map[string]any{"levelid": saved.ID}),
	)
	if moved := decode[boolResult](t, res[0]); !moved.Result {
		t.Fatalf("expected move to succeed")
	}
	levels := decode[[]domain.LevelView](t, res[1])
	if len(levels) != 2 || levels[0].ID != saved.ID {
		t.Fatalf("expected moved level first, got %+v", levels)
	}
	bindings := decode[[]domain.CategoryBinding](t, res[2])
	if len(bindings) != 1 || bindings[0].MdlCategory != 1 || !bindings[0].Subcategories {
		t.Fatalf("unexpected bindings %+v", bindings)
	}
}

func TestSetLevelPositionNumericDirection(t *testing.T) {
	env := newTestEnv(t)

	res := env.ajax(t, teacher, env.method("save_level", map[string]any{"name": "Rome", "bgcolor": "#123"}))
	rome := decode[boolResult](t, res[0])

	res = env.ajax(t, teacher,
		env.method("set_level_position", map[string]any{"levelid": rome.ID, "direction": -1}),
		env.method("get_levels", nil),
	)
	if moved := decode[boolResult](t, res[0]); !moved.Result {
		t.Fatalf("expected move up to succeed")
	}
	if levels := decode[[]domain.LevelView](t, res[1]); len(levels) != 2 || levels[0].ID != rome.ID {
		t.Fatalf("expected Rome first after -1, got %+v", levels)
	}

	res = env.ajax(t, teacher,
		env.method("set_level_position", map[string]any{"levelid": rome.ID, "direction": 1}),
		env.method("get_levels", nil),
		env.method("set_level_position", map[string]any{"levelid": rome.ID, "direction": "+1"}),
		env.method("set_level_position", map[string]any{"levelid": rome.ID, "direction": 2}),
		env.method("set_level_position", map[string]any{"levelid": rome.ID, "direction": true}),
	)
	if moved := decode[boolResult](t, res[0]); !moved.Result {
		t.Fatalf("expected move down to succeed")
	}
	if levels := decode[[]domain.LevelView](t, res[1]); len(levels) != 2 || levels[1].ID != rome.ID {
		t.Fatalf("expected Rome last after 1, got %+v", levels)
	}
	if moved := decode[boolResult](t, res[2]); !moved.Result {
		t.Fatalf("expected move past the end to be accepted")
	}
	for _, r := range res[3:] {
		if !r.Error || r.Exception.ErrorCode != codeInvalidInput {
			t.Fatalf("expected invalidinput, got %+v", r)
		}
	}
}

func TestComponentStrings(t *testing.T) {
	env := newTestEnv(t)
	res := env.ajax(t, student, map[string]any{
		"methodname": "get_component_strings",
		"args":       map[string]any{"lang": "de_ch"},
	})
	strs := decode[[]struct {
		Key    string `json:"key"`
		String string `json:"string"`
	}](t, res[0])
	if len(strs) == 0 {
		t.Fatalf("expected strings")
	}
}

func TestUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	for _, header := range []string{"", "Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodPost, "/ajax", bytes.NewReader([]byte("[]")))
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestFileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	levels, err := env.service.GetLevels(context.Background(), student, env.gameID, 0)
	if err != nil {
		t.Fatalf("get levels: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, levels[0].ImageURL+"?token="+env.token(t, student), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Fatalf("expected image, got %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}

	req = httptest.NewRequest(http.MethodGet, "/files/levels/999/x?token="+env.token(t, student), nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrInvalidTransition, codeInvalidTransition, http.StatusConflict},
		{domain.ErrAlreadyFinished, codeAlreadyFinished, http.StatusConflict},
		{domain.ErrNoQuestionAvailable, codeNoQuestionAvailable, http.StatusNotFound},
		{domain.ErrSessionNotFound, codeNotFound, http.StatusNotFound},
		{domain.ErrPermissionDenied, codePermissionDenied, http.StatusForbidden},
		{domain.ErrInvalidInput, codeInvalidInput, http.StatusBadRequest},
		{context.DeadlineExceeded, codeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, status := classify(tc.err)
		if code != tc.code || status != tc.status {
			t.Fatalf("%v: expected %s/%d, got %s/%d", tc.err, tc.code, tc.status, code, status)
		}
	}
}
