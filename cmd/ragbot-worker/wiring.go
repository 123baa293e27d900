package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chatrag/ragcore/internal/adminhttp"
	"github.com/chatrag/ragcore/internal/answer"
	"github.com/chatrag/ragcore/internal/chattransport"
	"github.com/chatrag/ragcore/internal/config"
	"github.com/chatrag/ragcore/internal/contextwindow"
	"github.com/chatrag/ragcore/internal/embedprovider"
	"github.com/chatrag/ragcore/internal/embedstore"
	"github.com/chatrag/ragcore/internal/fusion"
	"github.com/chatrag/ragcore/internal/ingest"
	"github.com/chatrag/ragcore/internal/intent"
	"github.com/chatrag/ragcore/internal/llmrouter"
	"github.com/chatrag/ragcore/internal/notify"
	"github.com/chatrag/ragcore/internal/promptstore"
	"github.com/chatrag/ragcore/internal/queue"
	"github.com/chatrag/ragcore/internal/reranker"
	"github.com/chatrag/ragcore/internal/retrieval"
	"github.com/chatrag/ragcore/internal/store"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
	"github.com/chatrag/ragcore/internal/windowindex"
	"github.com/chatrag/ragcore/internal/worker"
)

// app is the explicit dependency struct wiring every package built
// for the ask/truth pipeline, in place of a DI container at the hot
// path (see REDESIGN FLAGS).
type app struct {
	cfg *config.Config

	pool *pgxpool.Pool
	db   *gorm.DB

	hook      *ingest.Hook
	rebuilder *ingest.Rebuilder

	askWorker   *worker.AskWorker
	truthWorker *worker.TruthWorker
	admin       *adminhttp.Server
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("ragbot-worker: connect pgxpool: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("ragbot-worker: open gorm: %w", err)
	}

	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("ragbot-worker: migrate: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	notifier := notify.NewRedisNotifier(redisClient)
	clock := interfaces.SystemClock{}

	embedder, err := embedprovider.New(embedprovider.Config{
		Kind:       embedprovider.Kind(cfg.Embedding.Provider),
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		ModelName:  cfg.Embedding.ModelName,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("ragbot-worker: build embedder: %w", err)
	}

	var rr interfaces.Reranker
	if cfg.Rerank.Enabled {
		rr = reranker.New(reranker.Config{
			BaseURL:   cfg.Rerank.BaseURL,
			APIKey:    cfg.Rerank.APIKey,
			ModelName: cfg.Rerank.ModelName,
		})
	}

	llm := llmrouter.New(llmrouter.Config{
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.DefaultModel,
		ModelByKind:  cfg.LLM.ModelByKind,
	})
	prompts := promptstore.New(cfg.Prompts.ByKind)
	transport := chattransport.New()

	embedStore := embedstore.New(db, embedder)
	indexer := windowindex.New(db, embedder)
	hook := ingest.New(db, embedStore, ingest.DefaultFlushDelay)
	rebuilder := ingest.NewRebuilder(db, indexer, ingest.DefaultRebuildInterval, ingest.DefaultRebuildConcurrency)

	weights := retrieval.Weights{
		Dense:      cfg.Retrieval.DenseWeight,
		Sparse:     cfg.Retrieval.SparseWeight,
		ExactBoost: cfg.Retrieval.ExactBoost,
		TimeDecay:  cfg.Retrieval.TimeDecayWeight,
		HalfLife:   cfg.Retrieval.TimeDecayHalfLife,
	}
	retriever := retrieval.New(pool, embedder, clock, weights)
	orchestrator := fusion.New(retriever, rr, fusion.Config{
		K:               cfg.Retrieval.RRFK,
		ResultsPerQuery: cfg.Retrieval.ResultsPerQuery,
		RerankTopN:      100,
	})
	pools := fusion.NewPersonalPoolBuilder(pool)

	userCache := intent.NewChatUserCache(cfg.Intent.UserCacheTTL, clock, topAuthorsLoader(db))
	classifier := intent.NewClassifier(llm)
	nicknames := intent.NewNicknameResolver(userCache, llm)
	expander := contextwindow.New(db)
	generator := answer.New(llm, prompts, clock, 0.2)

	askQueue := queue.NewAskQueue(pool, notifier, clock, queue.Config{
		LeaseTimeout:   cfg.Queue.AskLeaseTimeout,
		MaxAttempts:    cfg.Queue.MaxAttempts,
		BaseRetryDelay: cfg.Queue.BaseRetryDelay,
		MaxRetryDelay:  cfg.Queue.MaxRetryDelay,
	})
	truthQueue := queue.NewTruthQueue(pool, notifier, clock, queue.Config{
		LeaseTimeout:   cfg.Queue.TruthLeaseTimeout,
		MaxAttempts:    cfg.Queue.MaxAttempts,
		BaseRetryDelay: cfg.Queue.BaseRetryDelay,
		MaxRetryDelay:  cfg.Queue.MaxRetryDelay,
	})

	askWorker := &worker.AskWorker{
		Queue:        askQueue,
		Classifier:   classifier,
		Nicknames:    nicknames,
		Pools:        pools,
		Orchestrator: orchestrator,
		Expander:     expander,
		Generator:    generator,
		Transport:    transport,
		Memory:       nil,
		Clock:        clock,
	}
	truthWorker := &worker.TruthWorker{
		Queue:     truthQueue,
		DB:        db,
		Generator: generator,
		Transport: transport,
		Clock:     clock,
	}

	queueAdmin := queue.NewAdmin(pool)
	admin := adminhttp.New(queueAdmin, queueAdmin, cfg.Admin.JWTSecret)

	return &app{
		cfg:         cfg,
		pool:        pool,
		db:          db,
		hook:        hook,
		rebuilder:   rebuilder,
		askWorker:   askWorker,
		truthWorker: truthWorker,
		admin:       admin,
	}, nil
}

func (a *app) Close() {
	_ = a.hook.Close(context.Background())
	a.pool.Close()
}

// topAuthorsLoader builds the ChatUserCache loader: the chat's top 50
// authors by message count, per spec.md §3's Chat User Cache.
func topAuthorsLoader(db *gorm.DB) func(context.Context, int64) ([]intent.Author, error) {
	return func(ctx context.Context, chatID int64) ([]intent.Author, error) {
		var rows []intent.Author
		err := db.WithContext(ctx).
			Model(&types.Message{}).
			Select("display_name, username, count(*) as message_count").
			Where("chat_id = ?", chatID).
			Group("display_name, username").
			Order("message_count DESC").
			Limit(50).
			Scan(&rows).Error
		return rows, err
	}
}

