package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/studyflash/internal/api"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/generator"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/worker"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("generation_worker_count=%d", cfg.GenerationWorkerCount)
	log.Debug("generation_queue_size=%d", cfg.GenerationQueueSize)
	log.Debug("generate_rate_per_minute=%d burst=%d", cfg.GenerateRatePerMinute, cfg.GenerateBurst)
	log.Debug("openai_model=%s", cfg.OpenAIModel)
	log.Debug("session_ttl=%s", cfg.SessionTTL)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Repositories
	userRepo := sqlite.NewUserRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	deckRepo := sqlite.NewDeckRepository(database.DB)
	cardRepo := sqlite.NewCardRepository(database.DB)
	reviewRepo := sqlite.NewReviewRepository(database.DB)

	gen := generator.NewOpenAI(generator.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		Temperature: float32(cfg.GenerationTemperature),
		Timeout:     cfg.GenerationTimeout,
	})
	if !gen.Configured() {
		log.Warn("OPENAI_API_KEY is not set; generation endpoints will return 503")
	}

	generationPool := worker.NewPool("generation", cfg.GenerationWorkerCount, cfg.GenerationQueueSize)

	authService := services.NewAuthService(userRepo, sessionRepo, cfg.SessionTTL)
	jobQueue := jobs.NewWorkerQueue(generationPool, authService.PurgeExpiredSessions)
	generationService := services.NewGenerationService(gen, deckRepo, cardRepo, jobQueue)
	jobQueue.SetFiller(generationService)

	srv := &api.Server{
		AuthService:       authService,
		DeckService:       services.NewDeckService(deckRepo),
		CardService:       services.NewCardService(cardRepo, deckRepo),
		StudyService:      services.NewStudyService(deckRepo, cardRepo, reviewRepo),
		GenerationService: generationService,
		ProgressService:   services.NewProgressService(reviewRepo, time.Local),
		DB:                database,
		GenerateLimiter:   api.NewRateLimiter(cfg.GenerateRatePerMinute, cfg.GenerateBurst),
		MaxUploadBytes:    cfg.MaxUploadBytes,
		SessionTTL:        cfg.SessionTTL,
		CookieSecure:      cfg.CookieSecure,
	}

	ctx, cancel := context.WithCancel(context.Background())
	generationPool.Start(ctx)
	go purgeSessionsPeriodically(ctx, jobQueue, log)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerationTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping generation pool")
	cancel()
	generationPool.Stop()

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped")
	log.Info("===========================================")
}

// purgeSessionsPeriodically queues an expired-session sweep at startup and
// then every sessionPurgeInterval until ctx is cancelled.
func purgeSessionsPeriodically(ctx context.Context, queue jobs.JobQueue, log *logger.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		if err := queue.EnqueueSessionPurge(); err != nil {
			log.Warn("failed to queue session purge: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
