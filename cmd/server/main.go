package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/config"
	"catalog-admin/internal/api"
	"catalog-admin/internal/broker"
	"catalog-admin/internal/redisclient"
	"catalog-admin/internal/service"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"
	"catalog-admin/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting catalog admin service")

	tp, err := util.InitTracer("catalog-admin", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	docStore := store.NewGitHubStore(cfg.Store.Token, cfg.Store.Owner, cfg.Store.Repo, cfg.Store.Branch)
	log.Printf("Document store ready: %s/%s@%s", cfg.Store.Owner, cfg.Store.Repo, cfg.Store.Branch)

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		time.Duration(cfg.Redis.TTLSeconds)*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	// Mutations read version tokens straight from the store; only the
	// read-mostly search path goes through the cache.
	cachedStore := redisclient.NewCachedStore(docStore, redisClient)

	indexer := service.NewIndexRegenerator(docStore, eventPublisher)
	searchService := service.NewSearchService(cachedStore)
	catalogService := service.NewCatalogService(docStore, searchService, indexer, eventPublisher, cfg.Store.AssetBaseURL)
	imageScanner := service.NewImageScanner(docStore, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	indexConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog, cfg.Kafka.ConsumerGroup)
	indexWorker := worker.NewIndexWorker(indexConsumer, indexer,
		time.Duration(cfg.Worker.IndexRefreshSeconds)*time.Second)
	go func() {
		if err := indexWorker.Start(workerCtx); err != nil {
			log.Printf("Index worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(catalogService, searchService, imageScanner)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	indexWorker.Stop()

	log.Println("Server exited")
}
