package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hatrick/crease/internal/api/rest"
	"github.com/hatrick/crease/internal/api/websocket"
	"github.com/hatrick/crease/internal/cache"
	"github.com/hatrick/crease/internal/config"
	"github.com/hatrick/crease/internal/fantrax"
	"github.com/hatrick/crease/internal/publisher"
	"github.com/hatrick/crease/internal/refresh"
	"github.com/hatrick/crease/internal/scheduler"
	"github.com/hatrick/crease/internal/service"
	"github.com/hatrick/crease/internal/stats"
	"github.com/hatrick/crease/internal/store"
	"github.com/hatrick/crease/internal/store/repository"
)

const (
	serviceName    = "crease"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - Fantasy Hockey Stats Service", serviceName, serviceVersion)

	// Load configuration from environment
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database connection
	db, err := store.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("✓ Connected to database")

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Initialize Redis client with retry logic
	var redisCache *cache.RedisCache
	maxRetries := 10
	retryDelay := 2 * time.Second

	log.Println("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
	}
	defer redisCache.Close()

	log.Println("✓ Connected to Redis")

	// Initialize Redis stream publisher with retry logic
	var redisPublisher *publisher.RedisStreamPublisher
	log.Println("Initializing Redis publisher...")
	for i := 0; i < maxRetries; i++ {
		redisPublisher, err = publisher.NewRedisPublisher(cfg.Redis.URL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Redis publisher attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to initialize Redis publisher after %d attempts: %v", maxRetries, err)
		}
	}
	defer redisPublisher.Close()

	log.Println("✓ Redis publisher initialized")

	// Repositories with the read-through listing cache
	skaterRepo := repository.NewSkaterRepository(db, redisCache, cfg.Redis.CacheTTL)
	goalieRepo := repository.NewGoalieRepository(db, redisCache, cfg.Redis.CacheTTL)
	seasonRepo := repository.NewSeasonRepository(db)

	// Scoring engine with env-overridden thresholds
	engineCfg := stats.DefaultConfig()
	engineCfg.MinGamesForAdjustedScore = cfg.Scoring.MinGamesForAdjustedScore
	engineCfg.SavePercentBaseline = cfg.Scoring.SavePercentBaseline
	engineCfg.GAAMaxDiffRatio = cfg.Scoring.GAAMaxDiffRatio

	engine, err := stats.NewEngine(engineCfg)
	if err != nil {
		log.Fatalf("Failed to build scoring engine: %v", err)
	}

	statsService := service.NewStatsService(engine, skaterRepo, goalieRepo, seasonRepo)

	// WebSocket server doubles as the refresh event broadcaster
	wsServer := websocket.NewServer()

	// Refresh pipeline: importer -> runner -> job service
	importer := fantrax.NewImporter(skaterRepo, goalieRepo)
	runner := refresh.NewRunner(importer, fantrax.ClientConfig{
		BaseURL:  cfg.Fantrax.BaseURL,
		LeagueID: cfg.Fantrax.LeagueID,
		Username: cfg.Fantrax.Username,
		Password: cfg.Fantrax.Password,
	}, cfg.Fantrax.CSVDir)

	refreshService := refresh.NewService(db, runner, wsServer, redisPublisher, nil)
	refreshService.Start()

	log.Println("✓ Refresh worker started")

	// Daily refresh scheduler
	schedulerConfig := scheduler.DefaultConfig()
	schedulerConfig.EnableDailyRefresh = cfg.Scheduler.EnableDailyRefresh
	schedulerConfig.DailyRefreshHour = cfg.Scheduler.DailyRefreshHour
	schedulerConfig.RefreshOnStart = cfg.Scheduler.RefreshOnStart
	schedulerConfig.CurrentSeason = cfg.Scheduler.CurrentSeason

	sched := scheduler.NewOrchestrator(refreshService, schedulerConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)

	log.Println("✓ Scheduler started")

	// Initialize REST API server
	handler := rest.NewHandler(statsService, db, redisCache)
	refreshHandler := rest.NewRefreshHandler(refreshService)
	restServer := rest.NewServer(cfg.Server.RESTPort, handler, refreshHandler, cfg.APIKey)
	go func() {
		log.Printf("Starting REST API server on port %s", cfg.Server.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ REST API server listening on :%s", cfg.Server.RESTPort)

	// Initialize WebSocket server
	go func() {
		log.Printf("Starting WebSocket server on port %s", cfg.Server.WSPort)
		if err := wsServer.Start(cfg.Server.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("✓ WebSocket server listening on :%s", cfg.Server.WSPort)
	log.Printf("✓ Crease v%s started successfully", serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", cfg.Server.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s", cfg.Server.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down Crease gracefully...")

	// Graceful shutdown
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := refreshService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Refresh service shutdown error: %v", err)
	}
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}

	log.Println("Crease stopped")
}
