package pipelinesvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/verdict-x/internal/pipeline/biz"
	"github.com/kart-io/verdict-x/internal/pipeline/handler"
	"github.com/kart-io/verdict-x/internal/pipeline/router"
	"github.com/kart-io/verdict-x/internal/pipeline/store"
	"github.com/kart-io/verdict-x/pkg/component/milvus"
	"github.com/kart-io/verdict-x/pkg/llm"

	// Register LLM providers.
	_ "github.com/kart-io/verdict-x/pkg/llm/ollama"
	_ "github.com/kart-io/verdict-x/pkg/llm/openai"
	"github.com/kart-io/verdict-x/pkg/middleware"
	ratelimitopts "github.com/kart-io/verdict-x/pkg/options/ratelimit"
)

// Name is the name of the application.
const Name = "verdict-pipeline"

// Server holds the running HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	closers    []func()
}

// NewServer initializes all components and returns a ready-to-run Server.
func NewServer(ctx context.Context, opts *Options) (*Server, error) {
	srv := &Server{}

	// 1. Milvus client and vector store.
	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	srv.closers = append(srv.closers, func() { _ = milvusClient.Close(context.Background()) })
	logger.Info("Milvus client initialized")

	vectorStore := store.NewMilvusStore(milvusClient)
	if err := vectorStore.EnsureCollection(ctx, &store.CollectionConfig{
		Name:        opts.Pipeline.Collection,
		Description: "customer support knowledge base",
		Dimension:   opts.Pipeline.EmbeddingDim,
	}); err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	logger.Infow("Vector store initialized", "collection", opts.Pipeline.Collection)

	// 2. LLM providers.
	embedProvider, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", opts.Embedding.Provider,
		"model", opts.Embedding.Model,
	)

	chatProvider, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", opts.Chat.Provider,
		"model", opts.Chat.Model,
	)

	// 3. Optional knowledge seeding.
	if opts.Pipeline.KnowledgePath != "" {
		entries, err := store.LoadKnowledgeFile(opts.Pipeline.KnowledgePath)
		if err != nil {
			srv.close()
			return nil, fmt.Errorf("failed to load knowledge file: %w", err)
		}
		seeder := store.NewSeeder(vectorStore, embedProvider, opts.Pipeline.Collection, opts.Pipeline.SeedWorkers)
		if err := seeder.Seed(ctx, entries); err != nil {
			srv.close()
			return nil, fmt.Errorf("failed to seed knowledge base: %w", err)
		}
	}

	// 4. Pipeline stages and orchestrator.
	service := biz.NewPipelineService(
		biz.NewLLMClassifier(chatProvider),
		biz.NewVectorRetriever(vectorStore, embedProvider, opts.Pipeline.Collection),
		biz.NewLLMGenerator(chatProvider),
		biz.NewLLMQualityChecker(chatProvider, biz.DefaultCriteria),
		biz.NewJudge(opts.Pipeline.QualityThreshold),
		vectorStore,
		&biz.Config{
			TopK:       opts.Pipeline.TopK,
			Collection: opts.Pipeline.Collection,
		},
	)
	logger.Infow("Pipeline service initialized",
		"quality_threshold", opts.Pipeline.QualityThreshold,
		"top_k", opts.Pipeline.TopK,
	)

	// 5. Rate limiter.
	limiter, err := srv.buildLimiter(opts)
	if err != nil {
		srv.close()
		return nil, err
	}

	// 6. HTTP surface.
	pipelineHandler := handler.NewPipelineHandler(service, opts.Pipeline.RequestTimeout)
	engine := router.New(router.Config{
		Handler:        pipelineHandler,
		Limiter:        limiter,
		TrustedProxies: opts.RateLimit.TrustedProxies,
		Mode:           opts.HTTP.Mode,
	})

	srv.httpServer = &http.Server{
		Addr:         opts.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	logger.Info("Pipeline service is ready")
	return srv, nil
}

// buildLimiter creates the configured rate limiter backend, or nil when rate
// limiting is disabled.
func (s *Server) buildLimiter(opts *Options) (middleware.RateLimiter, error) {
	if !opts.RateLimit.Enabled {
		logger.Info("Rate limiting is disabled")
		return nil, nil
	}

	switch opts.RateLimit.Backend {
	case ratelimitopts.BackendRedis:
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:         opts.Redis.Addr(),
			Password:     opts.Redis.Password,
			DB:           opts.Redis.Database,
			PoolSize:     opts.Redis.PoolSize,
			DialTimeout:  opts.Redis.DialTimeout,
			ReadTimeout:  opts.Redis.ReadTimeout,
			WriteTimeout: opts.Redis.WriteTimeout,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
		logger.Infow("Redis rate limiter initialized",
			"addr", opts.Redis.Addr(),
			"limit", opts.RateLimit.Limit,
			"window", opts.RateLimit.Window.String(),
		)
		return middleware.NewRedisRateLimiter(
			redisClient,
			opts.RateLimit.Limit,
			opts.RateLimit.Window,
			opts.RateLimit.KeyPrefix,
		), nil

	default:
		memLimiter := middleware.NewMemoryRateLimiter(opts.RateLimit.Limit, opts.RateLimit.Window)
		s.closers = append(s.closers, memLimiter.Stop)
		logger.Infow("Memory rate limiter initialized",
			"limit", opts.RateLimit.Limit,
			"window", opts.RateLimit.Window.String(),
		)
		return memLimiter, nil
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
