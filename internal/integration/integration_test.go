package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"philosophers-service/internal/app"
	"philosophers-service/internal/domain"
	"philosophers-service/internal/infra/memory"
	"philosophers-service/internal/infra/postgres"
	pgmigrations "philosophers-service/internal/infra/postgres/migrations"
	infraredis "philosophers-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/sync/errgroup"
)

var (
	teacher = domain.Viewer{UserID: 1, Name: "Teacher"}
	alice   = domain.Viewer{UserID: 2, Name: "Alice"}
	bob     = domain.Viewer{UserID: 3, Name: "Bob"}
)

func TestPlayThroughEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	migrateAndSeed(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	caps := memory.NewCapabilities(true)
	caps.SetName(alice.UserID, alice.Name)
	caps.SetName(bob.UserID, bob.Name)
	events := memory.NewEventRecorder()
	service := app.NewGameService(
		postgres.NewStore(db),
		infraredis.NewQuestionBank(redisClient, postgres.NewQuestionBank(pool), 5*time.Minute),
		app.WithCapabilities(caps),
		app.WithUserDirectory(caps),
		app.WithLocker(infraredis.NewLocker(redisClient, 5*time.Second)),
		app.WithBlobStore(memory.NewBlobStore()),
		app.WithEventPublisher(events),
	)

	game := domain.NewGame()
	game.Course = 1
	game.Name = "Philosophers"
	game.CompletionRounds = 1
	gameID, err := service.ImportGame(ctx, app.GameDocument{
		Game: game,
		Levels: []app.LevelDocument{
			{Name: "Athens", Categories: []app.CategoryInput{{MdlCategory: 1, Subcategories: true}}},
			{Name: "Königsberg", BgColor: "#123", Categories: []app.CategoryInput{{MdlCategory: 3}}},
		},
	})
	if err != nil {
		t.Fatalf("import game: %v", err)
	}
	caps.Grant(app.CapabilityManage, gameID, teacher.UserID)

	// duplicate concurrent session requests must converge on one session
	var (
		mu  sync.Mutex
		ids = make(map[int64]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			session, err := service.CurrentSession(gctx, alice, gameID)
			if err != nil {
				return err
			}
			mu.Lock()
			ids[session.ID] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent sessions: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one session, got %d", len(ids))
	}

	session, err := service.CurrentSession(ctx, alice, gameID)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if len(session.LevelsOrder) != 2 {
		t.Fatalf("expected 2 levels in order, got %v", session.LevelsOrder)
	}

	first, err := service.GetQuestion(ctx, alice, gameID, session.ID, session.LevelsOrder[0])
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	again, err := service.GetQuestion(ctx, alice, gameID, session.ID, session.LevelsOrder[0])
	if err != nil {
		t.Fatalf("get question again: %v", err)
	}
	if first.ID != again.ID || first.MdlQuestion != again.MdlQuestion {
		t.Fatalf("expected identical attempt, got %d and %d", first.ID, again.ID)
	}
	if len(first.AnswerOrder) == 0 {
		t.Fatalf("expected stored answer order")
	}

	answers, err := service.MdlAnswers(ctx, alice, gameID, first.ID)
	if err != nil {
		t.Fatalf("mdl answers: %v", err)
	}
	correct := correctAnswer(t, ctx, pool, first.MdlQuestion)

	// two tabs submitting at once: exactly one wins
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.SubmitAnswer(ctx, alice, gameID, first.ID, correct)
		}(i)
	}
	wg.Wait()
	failures := 0
	for _, err := range results {
		if err != nil {
			if !errors.Is(err, domain.ErrAlreadyFinished) {
				t.Fatalf("unexpected submit error: %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one rejected submit, got %d", failures)
	}

	session, err = service.CurrentSession(ctx, alice, gameID)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if session.AnswersTotal != 1 || session.AnswersCorrect != 1 || session.Score <= 0 {
		t.Fatalf("unexpected counters %+v", session)
	}
	if len(answers) == 0 {
		t.Fatalf("expected answers")
	}

	second, err := service.GetQuestion(ctx, alice, gameID, session.ID, session.LevelsOrder[1])
	if err != nil {
		t.Fatalf("second question: %v", err)
	}
	if _, err := service.CancelAnswer(ctx, alice, gameID, second.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	finished, err := service.CloseSession(ctx, alice, gameID, session.ID)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected auto-closed session, got %+v (%v)", finished, err)
	}
	levels, err := service.GetLevels(ctx, alice, gameID, session.ID)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	for _, l := range levels {
		if !l.Finished {
			t.Fatalf("expected level %d finished", l.ID)
		}
	}

	completion, err := service.CompletionState(ctx, gameID, alice.UserID)
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !completion.Completed {
		t.Fatalf("expected completion after one round, got %+v", completion)
	}
	if evs := events.Events(); len(evs) != 1 || evs[0].Type != domain.EventSessionFinished {
		t.Fatalf("expected one finished event, got %+v", evs)
	}

	// a second player and a dumped session do not count
	bobSession, err := service.CurrentSession(ctx, bob, gameID)
	if err != nil {
		t.Fatalf("bob session: %v", err)
	}
	fresh, err := service.CreateSession(ctx, bob, gameID)
	if err != nil {
		t.Fatalf("bob new session: %v", err)
	}
	if fresh.ID == bobSession.ID {
		t.Fatalf("expected a new session")
	}

	scores, err := service.Scores(ctx, alice, gameID, domain.SpanWeek)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(scores) != 1 || scores[0].User != alice.UserID || scores[0].UserName != "Alice" || scores[0].Score != session.Score {
		t.Fatalf("unexpected scores %+v", scores)
	}

	if err := service.DeleteGame(ctx, teacher, gameID); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if _, err := service.GetGame(ctx, alice, gameID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted game, got %v", err)
	}
}

func TestLevelPositionsStayDense(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	migrateAndSeed(t, ctx, db)
	store := postgres.NewStore(db)

	game := domain.NewGame()
	game.Course = 1
	game.Name = "Ordering"
	if err := store.SaveGame(ctx, &game); err != nil {
		t.Fatalf("save game: %v", err)
	}

	// concurrent creates must not share a position
	const created = 6
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < created; i++ {
		i := i
		g.Go(func() error {
			level := domain.Level{Game: game.ID, Name: fmt.Sprintf("L%d", i), BgColor: domain.DefaultBgColor}
			return store.SaveLevel(gctx, &level, nil)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("create levels: %v", err)
	}
	order := assertDense(t, ctx, store, game.ID, created)

	deleted := order[2]
	if err := store.DeleteLevel(ctx, deleted); err != nil {
		t.Fatalf("delete level: %v", err)
	}
	order = assertDense(t, ctx, store, game.ID, created-1)
	for _, id := range order {
		if id == deleted {
			t.Fatalf("deleted level %d still listed", deleted)
		}
	}
	if err := store.DeleteLevel(ctx, deleted); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected second delete to fail, got %v", err)
	}
	if err := store.MoveLevel(ctx, deleted, domain.DirectionUp); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected move of deleted level to fail, got %v", err)
	}

	last := order[len(order)-1]
	if err := store.MoveLevel(ctx, last, domain.DirectionUp); err != nil {
		t.Fatalf("move up: %v", err)
	}
	moved := assertDense(t, ctx, store, game.ID, created-1)
	if moved[len(moved)-2] != last || moved[len(moved)-1] != order[len(order)-2] {
		t.Fatalf("expected %d swapped with its predecessor, got %v", last, moved)
	}

	first := moved[0]
	if err := store.MoveLevel(ctx, first, domain.DirectionUp); err != nil {
		t.Fatalf("move at top: %v", err)
	}
	if top := assertDense(t, ctx, store, game.ID, created-1); top[0] != first {
		t.Fatalf("expected move at the top to be a no-op, got %v", top)
	}

	// a gap left behind outside the store is closed by the next move
	if _, err := db.NewUpdate().Table("philosophers_levels").
		Set("position = position + 10").
		Where("id = ?", moved[1]).
		Exec(ctx); err != nil {
		t.Fatalf("open gap: %v", err)
	}
	if err := store.MoveLevel(ctx, moved[1], domain.DirectionDown); err != nil {
		t.Fatalf("move after gap: %v", err)
	}
	assertDense(t, ctx, store, game.ID, created-1)
}

// assertDense checks that the active levels hold the positions 0..n-1 and returns
// their ids in position order.
func assertDense(t *testing.T, ctx context.Context, store *postgres.Store, gameID int64, n int) []int64 {
	t.Helper()
	levels, err := store.ListActiveLevels(ctx, gameID)
	if err != nil {
		t.Fatalf("list levels: %v", err)
	}
	if len(levels) != n {
		t.Fatalf("expected %d active levels, got %d", n, len(levels))
	}
	ids := make([]int64, 0, n)
	for i, l := range levels {
		if l.Position != i {
			t.Fatalf("expected position %d for level %d, got %d", i, l.ID, l.Position)
		}
		ids = append(ids, l.ID)
	}
	return ids
}

func migrateAndSeed(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	statements := []string{
		`INSERT INTO question_categories (id, parent, course, name) VALUES
			(1, 0, 1, 'Antiquity'), (2, 1, 1, 'Greece'), (3, 0, 1, 'Enlightenment')`,
		`INSERT INTO questions (id, category, name, questiontext, qtype, single) VALUES
			(1, 2, 'Cave', 'Who wrote the allegory of the cave?', 'multichoice', TRUE),
			(2, 3, 'Sapere aude', 'Who wrote what is enlightenment?', 'multichoice', TRUE),
			(3, 3, 'Essay', 'Discuss the categorical imperative.', 'essay', TRUE)`,
		`INSERT INTO question_answers (id, question, answer, fraction) VALUES
			(1, 1, 'Plato', 1), (2, 1, 'Epicurus', 0), (3, 1, 'Zeno', 0),
			(4, 2, 'Kant', 1), (5, 2, 'Voltaire', 0)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed question bank: %v", err)
		}
	}
}

func correctAnswer(t *testing.T, ctx context.Context, pool *pgxpool.Pool, questionID int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(ctx,
		`SELECT id FROM question_answers WHERE question=$1 ORDER BY fraction DESC, id LIMIT 1`, questionID).Scan(&id)
	if err != nil {
		t.Fatalf("correct answer of %d: %v", questionID, err)
	}
	return id
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "philo", "POSTGRES_PASSWORD": "philopass", "POSTGRES_DB": "philodb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://philo:philopass@%s:%s/philodb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
