package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"substrate/internal/appconfig"
	"substrate/internal/branches"
	"substrate/internal/entities"
	"substrate/internal/ingest"
	"substrate/internal/llm"
	"substrate/internal/offline"
	"substrate/internal/ratelimit"
	"substrate/internal/retrieval"
	"substrate/internal/review"
	"substrate/internal/scope"
	"substrate/internal/snapshots"
	"substrate/internal/store"
	"substrate/internal/sync"
	"substrate/interfaces/http/rest"
	"substrate/interfaces/http/rest/handlers"
	"substrate/pkg/auth"
	"substrate/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := appconfig.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	graphStore, err := store.New(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		logger.Fatal("failed to connect to graph store", zap.Error(err))
	}
	defer graphStore.Close(ctx)

	if err := graphStore.SchemaInit(ctx); err != nil {
		logger.Fatal("failed to bootstrap graph schema", zap.Error(err))
	}

	branchStore, err := branches.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("failed to connect to branch store", zap.Error(err))
	}

	validator, err := auth.NewJWTValidator(cfg.JWT)
	if err != nil {
		logger.Fatal("failed to build jwt validator", zap.Error(err))
	}
	guard := ratelimit.NewGuard(cfg.RatelimitPolicies())

	collaborator := llm.NewAnthropicAdapter(cfg.AnthropicAPIKey)

	resolver := scope.NewResolver(graphStore)
	entitiesSvc := entities.NewService(graphStore)
	snapshotsSvc := snapshots.NewService(graphStore)
	reviewSvc := review.NewService(entitiesSvc, review.NewAuditLog(graphStore))
	offlineSvc := offline.NewService(graphStore, entitiesSvc, snapshotsSvc)
	pipeline := ingest.NewPipeline(entitiesSvc, snapshotsSvc, collaborator, logger)
	syncSvc := sync.NewService(graphStore, resolver, pipeline)

	intentRouter := retrieval.NewIntentRouter(collaborator, nil)
	var embeddingIndex *retrieval.EmbeddingIndex // nil: semantic_search degrades until a pgvector pool is wired
	retrievalSvc := retrieval.NewService(graphStore, entitiesSvc, intentRouter, embeddingIndex, collaborator)

	h := rest.Handlers{
		Graph:     handlers.NewGraphHandler(resolver, entitiesSvc, logger),
		Concepts:  handlers.NewConceptsHandler(entitiesSvc, resolver, logger),
		Review:    handlers.NewReviewHandler(reviewSvc, resolver, logger),
		Retrieval: handlers.NewRetrievalHandler(retrievalSvc, resolver, guard, logger),
		Ingest:    handlers.NewIngestHandler(pipeline, resolver, guard, logger),
		Branches:  handlers.NewBranchesHandler(branchStore, logger),
		Sync:      handlers.NewSyncHandler(syncSvc, offlineSvc, pipeline, resolver, logger),
	}

	metrics := observability.NewCollector("substrate")
	router := rest.NewRouter(h, validator, guard, logger, metrics)
	httpHandler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	log.Println("server stopped")
}
