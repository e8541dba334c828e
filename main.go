package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"greendrake/carads/internal/api"
	"greendrake/carads/internal/cache"
	"greendrake/carads/internal/config"
	"greendrake/carads/internal/db"
	"greendrake/carads/internal/events"
	"greendrake/carads/internal/platform/logger"
	"greendrake/carads/internal/platform/metrics"
	"greendrake/carads/internal/platform/tracer"
	"greendrake/carads/internal/services"
	"greendrake/carads/internal/storage"
	"greendrake/carads/internal/tasks"
)

const serviceName = "carads"

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	shutdownTracer, err := tracer.Init(ctx, cfg.OtelEndpoint, serviceName)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Warn("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Warn("Error disconnecting from Redis", zap.Error(err))
		}
	}()

	m := metrics.New(serviceName)

	// Initialize Task Client
	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Start Service API (always runs)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(log, m, taskClient, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Service API listening", zap.String("port", cfg.ServiceApiPort))
		if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Service API ListenAndServe error", zap.Error(err))
		}
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var publisher events.Publisher = events.NoopPublisher{}
	var backgroundTaskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	log.Info("Starting application", zap.String("mode", cfg.RunMode))

	apiMode := func() {
		if err := db.EnsureIndexes(ctx, mongoDb); err != nil {
			log.Fatal("Failed to ensure indexes", zap.Error(err))
		}

		if cfg.NatsURL != "" {
			natsPublisher, err := events.NewNATSPublisher(cfg.NatsURL, serviceName)
			if err != nil {
				log.Fatal("Failed to connect to NATS", zap.Error(err))
			}
			publisher = natsPublisher
		}

		imageHost, err := storage.NewImageHost(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize image host", zap.Error(err), zap.String("image_host", cfg.ImageHost))
		}

		carService := services.NewCarService(mongoDb, cache.NewCarCache(redisClient, cfg.CarCacheTTL), publisher, m, log)
		uploadService := services.NewUploadService(imageHost, cfg.UploadTempDir, cfg.ImageMaxDimension, cfg.ImageMaxPixels, m, log)

		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, log, m, carService, uploadService),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Main API listening", zap.String("port", cfg.ApiPort), zap.String("image_host", cfg.ImageHost))
			if err := mainApiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal("Main API ListenAndServe error", zap.Error(err))
			}
		}()
	}

	bgMode := func() {
		processor := tasks.NewTaskProcessor(cfg, log)
		var mux *asynq.ServeMux
		backgroundTaskSrv, mux = tasks.SetupServer(redisClient, processor, log)
		if err := backgroundTaskSrv.Start(mux); err != nil {
			log.Fatal("Background task server error", zap.Error(err))
		}

		scheduler, err = tasks.NewScheduler(redisClient, cfg, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := scheduler.Start(); err != nil {
			log.Fatal("Scheduler error", zap.Error(err))
		}
		log.Info("Background worker started", zap.Duration("temp_sweep_interval", cfg.TempSweepInterval))
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatal("Invalid run mode", zap.String("mode", cfg.RunMode))
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case <-shutdownChan:
		log.Info("Shutdown requested via Service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Warn("Service API server shutdown error", zap.Error(err))
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Warn("Main API server shutdown error", zap.Error(err))
		}
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}
	publisher.Close()

	wg.Wait()
	log.Info("Server gracefully stopped")
}
