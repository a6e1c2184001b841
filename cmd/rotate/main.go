package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"figurdle/internal/config"
	"figurdle/internal/database"
	"figurdle/internal/generator"
	"figurdle/internal/models"
	"figurdle/internal/repository"
	"figurdle/internal/service"
)

// rotate triggers the daily puzzle rotation from the command line, for cron
// or cloud schedulers that prefer running a binary over calling the admin
// endpoint. Rotation is idempotent: re-running for an existing date reports
// the committed puzzle and changes nothing
func main() {
	dateFlag := flag.String("date", "", "Game day to rotate (YYYY-MM-DD, default: today)")
	timeoutFlag := flag.Duration("timeout", 5*time.Minute, "Overall rotation timeout")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid game timezone %q: %v", cfg.GameTimezone, err)
	}

	date := service.GameDay(time.Now(), loc)
	if *dateFlag != "" {
		if _, err := time.Parse(models.DateFormat, *dateFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -date %q, expected YYYY-MM-DD\n", *dateFlag)
			os.Exit(1)
		}
		date = *dateFlag
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	alertService, err := service.NewAlertService(cfg.AWSRegion, cfg.AlertFromEmail, cfg.AlertToEmail)
	if err != nil {
		log.Fatalf("Failed to initialize alert service: %v", err)
	}

	gen, err := generator.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.GenerateImages)
	if err != nil {
		log.Fatalf("Failed to initialize generator: %v", err)
	}

	puzzleRepo := repository.NewPuzzleRepository(db)
	rotation := service.NewRotationService(puzzleRepo, gen, alertService,
		cfg.RotationAttempts, cfg.HintCount, cfg.GenerationTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	puzzle, created, err := rotation.Rotate(ctx, date)
	if err != nil {
		log.Fatalf("Rotation failed for %s: %v", date, err)
	}

	if created {
		fmt.Printf("Created puzzle for %s: %s (%d hints)\n", puzzle.PuzzleDate, puzzle.Answer, puzzle.HintsCount())
	} else {
		fmt.Printf("Puzzle already exists for %s: %s\n", puzzle.PuzzleDate, puzzle.Answer)
	}
}
