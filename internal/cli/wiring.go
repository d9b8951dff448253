package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"philosophers-service/internal/app"
	"philosophers-service/internal/config"
	"philosophers-service/internal/domain"
	"philosophers-service/internal/infra/memory"
	blobstore "philosophers-service/internal/infra/minio"
	"philosophers-service/internal/infra/postgres"
	"philosophers-service/internal/infra/rabbitmq"
	rediscache "philosophers-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// runtime holds the wired service and what has to be closed on shutdown.
type runtime struct {
	service *app.GameService
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime picks an implementation for every collaborator from the config. Empty
// sections fall back to the in-memory implementations.
func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{}
	fail := func(err error) (*runtime, error) {
		rt.Close()
		return nil, err
	}

	var store app.Store
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return fail(err)
		}
		db := postgres.OpenDB(cfg.Postgres.URL)
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		store = postgres.NewStore(db)
	} else {
		log.Printf("postgres not configured, using in-memory store")
		store = memory.NewStore()
	}

	var bank app.QuestionBank
	if url := cfg.QuestionBankURL(); url != "" {
		pool, err := pgxpool.Connect(ctx, url)
		if err != nil {
			return fail(fmt.Errorf("connect question bank: %w", err))
		}
		rt.closers = append(rt.closers, pool.Close)
		bank = postgres.NewQuestionBank(pool)
	} else {
		log.Printf("question bank not configured, using demo questions")
		bank = sampleQuestionBank()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	cacheTTL := config.TTLDuration(cfg.QuestionBank.CacheTTL, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	var locker app.Locker
	if redisClient != nil {
		bank = rediscache.NewQuestionBank(redisClient, bank, cacheTTL)
		locker = rediscache.NewLocker(redisClient, config.TTLDuration(cfg.Redis.LockTTL, 5*time.Second))
	} else {
		bank = memory.NewCachedQuestionBank(bank, cacheTTL)
		locker = memory.NewLocker()
	}

	var blobs app.BlobStore
	if cfg.Storage.Endpoint != "" {
		bs, err := blobstore.NewBlobStore(blobstore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return fail(err)
		}
		if err := bs.EnsureBucket(ctx); err != nil {
			return fail(err)
		}
		blobs = bs
	} else {
		blobs = memory.NewBlobStore()
	}

	caps := memory.NewCapabilities(cfg.Capabilities.AllViewers())
	for gameID, users := range cfg.Capabilities.Managers {
		caps.Grant(app.CapabilityManage, gameID, users...)
	}
	for gameID, users := range cfg.Capabilities.Viewers {
		caps.Grant(app.CapabilityView, gameID, users...)
	}
	for userID, name := range cfg.Capabilities.Users {
		caps.SetName(userID, name)
	}

	opts := []app.Option{
		app.WithCapabilities(caps),
		app.WithUserDirectory(caps),
		app.WithBlobStore(blobs),
		app.WithLocker(locker),
	}
	if cfg.Server.FileRoute != "" {
		opts = append(opts, app.WithFileRoute(cfg.Server.FileRoute))
	}
	if cfg.Events.URL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
		if err != nil {
			return fail(err)
		}
		rt.closers = append(rt.closers, func() { _ = publisher.Close() })
		opts = append(opts, app.WithEventPublisher(publisher))
	} else {
		log.Printf("events not configured, session events are only logged")
	}

	rt.service = app.NewGameService(store, bank, opts...)
	return rt, nil
}

// sampleQuestionBank provides a minimal course so the service can be tried without a
// question bank database.
func sampleQuestionBank() *memory.StaticQuestionBank {
	bank := memory.NewStaticQuestionBank()
	bank.AddCategory(domain.MdlCategory{ID: 1, Course: 1, Name: "Antiquity"})
	bank.AddCategory(domain.MdlCategory{ID: 2, Parent: 1, Course: 1, Name: "Greece"})
	bank.AddCategory(domain.MdlCategory{ID: 3, Course: 1, Name: "Enlightenment"})
	bank.AddQuestion(
		domain.MdlQuestion{ID: 1, Category: 2, Name: "Cave", Text: "Who wrote the allegory of the cave?", Type: domain.QuestionTypeMultichoice, Single: true},
		domain.MdlAnswer{ID: 1, Text: "Plato", Fraction: 1},
		domain.MdlAnswer{ID: 2, Text: "Diogenes", Fraction: 0},
		domain.MdlAnswer{ID: 3, Text: "Epicurus", Fraction: 0},
		domain.MdlAnswer{ID: 4, Text: "Zeno", Fraction: 0},
	)
	bank.AddQuestion(
		domain.MdlQuestion{ID: 2, Category: 1, Name: "Stoa", Text: "Which emperor wrote the Meditations?", Type: domain.QuestionTypeMultichoice, Single: true},
		domain.MdlAnswer{ID: 5, Text: "Marcus Aurelius", Fraction: 1},
		domain.MdlAnswer{ID: 6, Text: "Hadrian", Fraction: 0},
		domain.MdlAnswer{ID: 7, Text: "Nero", Fraction: 0},
	)
	bank.AddQuestion(
		domain.MdlQuestion{ID: 3, Category: 3, Name: "Sapere aude", Text: "Who answered the question what is enlightenment with sapere aude?", Type: domain.QuestionTypeMultichoice, Single: true},
		domain.MdlAnswer{ID: 8, Text: "Immanuel Kant", Fraction: 1},
		domain.MdlAnswer{ID: 9, Text: "Voltaire", Fraction: 0},
		domain.MdlAnswer{ID: 10, Text: "John Locke", Fraction: 0},
	)
	return bank
}
