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

	"feature-service/config"
	"feature-service/internal/api"
	"feature-service/internal/broker"
	"feature-service/internal/redisclient"
	"feature-service/internal/segment"
	"feature-service/internal/service"
	"feature-service/internal/store"
	"feature-service/internal/util"
	"feature-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting feature service")

	tp, err := util.InitTracer("feature-service", cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if err := db.EnsureTables(context.Background()); err != nil {
		log.Fatalf("Failed to ensure tables: %v", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	runProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicRuns)
	defer runProducer.Close()
	segmentProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSegments)
	defer segmentProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(runProducer, segmentProducer)

	bucketizer, err := segment.NewBucketizer(cfg.Segment.LowerThreshold, cfg.Segment.UpperThreshold)
	if err != nil {
		log.Fatalf("Invalid segment thresholds: %v", err)
	}

	pipelineService := service.NewPipelineService(
		db,
		redisClient,
		eventPublisher,
		cfg.Pipeline.LookbackYears,
		time.Duration(cfg.Pipeline.FeatureCacheTTLMins)*time.Minute,
		time.Duration(cfg.Pipeline.RunLockTTLMins)*time.Minute,
	)
	segmentService := service.NewSegmentService(db, eventPublisher, bucketizer)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	runConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicRuns, cfg.Kafka.ConsumerGroup)
	runWorker := worker.NewRunWorker(runConsumer, pipelineService)
	go func() {
		if err := runWorker.Start(workerCtx); err != nil {
			log.Printf("Run worker error: %v", err)
		}
	}()

	segmentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSegments, "segment-service-group")
	segmentWorker := worker.NewSegmentWorker(segmentConsumer, segmentService)
	go func() {
		if err := segmentWorker.Start(workerCtx); err != nil {
			log.Printf("Segment worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(pipelineService, segmentService)
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
	runWorker.Stop()
	segmentWorker.Stop()

	log.Println("Server exited")
}
