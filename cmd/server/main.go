package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"figurdle/internal/config"
	"figurdle/internal/database"
	"figurdle/internal/generator"
	"figurdle/internal/handlers"
	"figurdle/internal/repository"
	"figurdle/internal/security"
	"figurdle/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Refuse to serve signed endpoints without a signing secret
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid game timezone %q: %v", cfg.GameTimezone, err)
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	puzzleRepo := repository.NewPuzzleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Operator alerting for failed rotations
	alertService, err := service.NewAlertService(cfg.AWSRegion, cfg.AlertFromEmail, cfg.AlertToEmail)
	if err != nil {
		log.Fatalf("Failed to initialize alert service: %v", err)
	}

	// Character generator; without an API key the server still serves
	// existing puzzles but cannot rotate
	var gen generator.Generator
	gen, err = generator.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.GenerateImages)
	if err != nil {
		log.Printf("Warning: character generation unavailable: %v", err)
		gen = generator.Disabled(err)
	}

	// Initialize services
	signer := security.NewPuzzleSigner(cfg.PuzzleSigningSecret)
	sessionService := service.NewSessionService(sessionRepo, puzzleRepo)
	rotationService := service.NewRotationService(puzzleRepo, gen, alertService,
		cfg.RotationAttempts, cfg.HintCount, cfg.GenerationTimeout)
	guessService := service.NewGuessService(puzzleRepo, sessionService, signer)

	// Initialize handlers
	middleware := handlers.NewMiddleware(security.NewRateLimiter(30, time.Minute))
	puzzleHandler := handlers.NewPuzzleHandler(puzzleRepo, sessionService, signer, loc)
	guessHandler := handlers.NewGuessHandler(guessService, sessionService, loc)
	sessionHandler := handlers.NewSessionHandler(sessionService, loc)
	adminHandler := handlers.NewAdminHandler(rotationService, cfg.AdminSecret, cfg.Environment, loc)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", adminHandler.Healthz)
	mux.HandleFunc("GET /health", adminHandler.Health)

	mux.HandleFunc("GET /puzzle/today", puzzleHandler.Today)
	mux.HandleFunc("GET /puzzle/by-date/{date}", puzzleHandler.ByDate)
	mux.HandleFunc("GET /puzzle/available", puzzleHandler.Available)

	mux.HandleFunc("POST /guess", middleware.RateLimit(guessHandler.Guess))

	mux.HandleFunc("GET /session/status", sessionHandler.Status)
	mux.HandleFunc("POST /session/update-progress", sessionHandler.UpdateProgress)
	mux.HandleFunc("POST /session/complete", sessionHandler.Complete)

	mux.HandleFunc("POST /admin/rotate", middleware.RateLimit(adminHandler.Rotate))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Keep today's puzzle rotated even without an external scheduler
	if cfg.DailyRotation {
		go rotateDaily(rotationService, loc)
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// rotateDaily periodically ensures the current game day has a puzzle.
// Rotation is idempotent, so overlapping with an external scheduler or a
// manual trigger is harmless
func rotateDaily(rotation *service.RotationService, loc *time.Location) {
	rotate := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		date := service.GameDay(time.Now(), loc)
		if _, _, err := rotation.Rotate(ctx, date); err != nil {
			log.Printf("Scheduled rotation for %s failed: %v", date, err)
		}
	}

	rotate()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rotate()
	}
}
