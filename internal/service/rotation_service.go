package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"figurdle/internal/generator"
	"figurdle/internal/matcher"
	"figurdle/internal/models"
)

// ErrRotationFailed means no usable character could be committed within the
// attempt budget. The previous day's state is left untouched
var ErrRotationFailed = errors.New("rotation failed")

// RotationService owns the daily puzzle lifecycle: it generates a candidate
// character, validates it against the all-time used-character ledger, and
// commits puzzle plus ledger entry atomically. Rotation is idempotent per
// date, so re-triggered schedulers are harmless
type RotationService struct {
	puzzles   PuzzleStore
	generator generator.Generator
	alerts    *AlertService

	maxAttempts int
	hintCount   int
	timeout     time.Duration
}

// NewRotationService creates a rotation service
func NewRotationService(puzzles PuzzleStore, gen generator.Generator, alerts *AlertService, maxAttempts, hintCount int, timeout time.Duration) *RotationService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if hintCount < 1 || hintCount > models.MaxHints {
		hintCount = models.MaxHints
	}
	return &RotationService{
		puzzles:     puzzles,
		generator:   gen,
		alerts:      alerts,
		maxAttempts: maxAttempts,
		hintCount:   hintCount,
		timeout:     timeout,
	}
}

// Rotate ensures a puzzle exists for the given date. Returns the puzzle and
// whether this call created it. An existing puzzle short-circuits, which is
// the overlap guard for duplicate scheduler invocations
func (s *RotationService) Rotate(ctx context.Context, puzzleDate string) (*models.Puzzle, bool, error) {
	existing, err := s.puzzles.GetByDate(puzzleDate)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing puzzle: %w", err)
	}
	if existing != nil {
		log.Printf("Puzzle already exists for %s: %s", puzzleDate, existing.Answer)
		return existing, false, nil
	}

	exclude, err := s.puzzles.ListUsedNames()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load used characters: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		puzzle, err := s.tryGenerate(ctx, puzzleDate, exclude, attempt)
		if err != nil {
			lastErr = err
			log.Printf("Rotation attempt %d/%d for %s failed: %v", attempt, s.maxAttempts, puzzleDate, err)
			continue
		}
		return puzzle, true, nil
	}

	err = fmt.Errorf("%w: no usable character for %s after %d attempts: %v",
		ErrRotationFailed, puzzleDate, s.maxAttempts, lastErr)
	s.alerts.RotationFailed(ctx, puzzleDate, err)
	return nil, false, err
}

// tryGenerate runs one generate-validate-commit cycle
func (s *RotationService) tryGenerate(ctx context.Context, puzzleDate string, exclude []string, attempt int) (*models.Puzzle, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	character, err := s.generator.GenerateCharacter(genCtx, exclude, s.hintCount, attempt)
	if err != nil {
		return nil, err
	}

	normalized := matcher.Normalize(character.Answer)
	if normalized == "" {
		return nil, fmt.Errorf("generated character has an empty name")
	}

	used, err := s.puzzles.IsNameUsed(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check used characters: %w", err)
	}
	if used {
		return nil, fmt.Errorf("character %q was already used", character.Answer)
	}

	// Artwork is best effort; a failed image never fails the rotation
	imageURL, err := s.generator.GenerateImage(genCtx, character.Answer)
	if err != nil {
		log.Printf("Image generation for %q failed: %v", character.Answer, err)
		imageURL = ""
	}

	puzzle := &models.Puzzle{
		PuzzleDate: puzzleDate,
		Answer:     character.Answer,
		Aliases:    character.Aliases,
		Hints:      character.Hints,
		SourceURLs: character.SourceURLs,
		ImageURL:   imageURL,
	}
	ledgerEntry := &models.UsedCharacter{
		Name:           character.Answer,
		NameNormalized: normalized,
		PuzzleDate:     puzzleDate,
	}

	if err := s.puzzles.CreateWithUsedCharacter(puzzle, ledgerEntry); err != nil {
		// A concurrent rotation may have won the commit race
		if existing, getErr := s.puzzles.GetByDate(puzzleDate); getErr == nil && existing != nil {
			log.Printf("Concurrent rotation already committed %s for %s", existing.Answer, puzzleDate)
			return existing, nil
		}
		return nil, fmt.Errorf("failed to commit puzzle: %w", err)
	}

	log.Printf("Committed new puzzle for %s: %s (%d hints)", puzzleDate, puzzle.Answer, len(puzzle.Hints))
	return puzzle, nil
}
