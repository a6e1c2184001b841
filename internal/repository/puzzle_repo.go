package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"figurdle/internal/database"
	"figurdle/internal/models"
)

// PuzzleRepository handles puzzle and used-character database operations
type PuzzleRepository struct {
	db *database.DB
}

// NewPuzzleRepository creates a new puzzle repository
func NewPuzzleRepository(db *database.DB) *PuzzleRepository {
	return &PuzzleRepository{db: db}
}

// GetByDate retrieves the puzzle for a calendar date, or nil if none exists
func (r *PuzzleRepository) GetByDate(puzzleDate string) (*models.Puzzle, error) {
	query := `
		SELECT id, puzzle_date, answer, aliases, hints, source_urls, image_url, created_at
		FROM puzzles
		WHERE puzzle_date = ?
	`

	puzzle := &models.Puzzle{}
	var aliasesJSON, hintsJSON, sourceURLsJSON []byte
	var imageURL sql.NullString

	err := r.db.QueryRow(query, puzzleDate).Scan(
		&puzzle.ID,
		&puzzle.PuzzleDate,
		&puzzle.Answer,
		&aliasesJSON,
		&hintsJSON,
		&sourceURLsJSON,
		&imageURL,
		&puzzle.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(aliasesJSON, &puzzle.Aliases); err != nil {
		return nil, fmt.Errorf("failed to decode aliases: %w", err)
	}
	if err := json.Unmarshal(hintsJSON, &puzzle.Hints); err != nil {
		return nil, fmt.Errorf("failed to decode hints: %w", err)
	}
	if err := json.Unmarshal(sourceURLsJSON, &puzzle.SourceURLs); err != nil {
		return nil, fmt.Errorf("failed to decode source urls: %w", err)
	}
	if imageURL.Valid {
		puzzle.ImageURL = imageURL.String
	}

	return puzzle, nil
}

// ListSummaries returns the public listing of puzzles up to and including
// the given date, newest first
func (r *PuzzleRepository) ListSummaries(throughDate string) ([]models.PuzzleSummary, error) {
	query := `
		SELECT puzzle_date, image_url
		FROM puzzles
		WHERE puzzle_date <= ?
		ORDER BY puzzle_date DESC
	`

	rows, err := r.db.Query(query, throughDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.PuzzleSummary
	for rows.Next() {
		var s models.PuzzleSummary
		var imageURL sql.NullString
		if err := rows.Scan(&s.PuzzleDate, &imageURL); err != nil {
			return nil, err
		}
		s.HasImage = imageURL.Valid && imageURL.String != ""
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// IsNameUsed reports whether a normalized character name already appears in
// the used-character ledger
func (r *PuzzleRepository) IsNameUsed(nameNormalized string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM used_characters WHERE name_normalized = ?"
	if err := r.db.QueryRow(query, nameNormalized).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUsedNames returns every character name ever consumed, for the
// generator's exclusion list
func (r *PuzzleRepository) ListUsedNames() ([]string, error) {
	rows, err := r.db.Query("SELECT name FROM used_characters ORDER BY puzzle_date DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// CreateWithUsedCharacter persists a puzzle and its used-character ledger
// entry in one transaction. Both rows commit or neither does; a puzzle must
// never exist without burning its character name, and vice versa
func (r *PuzzleRepository) CreateWithUsedCharacter(puzzle *models.Puzzle, used *models.UsedCharacter) error {
	aliasesJSON, err := json.Marshal(puzzle.Aliases)
	if err != nil {
		return fmt.Errorf("failed to encode aliases: %w", err)
	}
	hintsJSON, err := json.Marshal(puzzle.Hints)
	if err != nil {
		return fmt.Errorf("failed to encode hints: %w", err)
	}
	sourceURLsJSON, err := json.Marshal(puzzle.SourceURLs)
	if err != nil {
		return fmt.Errorf("failed to encode source urls: %w", err)
	}

	var imageURL interface{}
	if puzzle.ImageURL != "" {
		imageURL = puzzle.ImageURL
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// JSON documents are bound as strings: a []byte parameter would reach
	// postgres as a bytea literal, which the JSONB columns reject
	id, err := tx.ExecReturningID(`
		INSERT INTO puzzles (puzzle_date, answer, aliases, hints, source_urls, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`, puzzle.PuzzleDate, puzzle.Answer, string(aliasesJSON), string(hintsJSON), string(sourceURLsJSON), imageURL)
	if err != nil {
		return fmt.Errorf("failed to insert puzzle: %w", err)
	}
	puzzle.ID = id

	if _, err := tx.Exec(`
		INSERT INTO used_characters (name, name_normalized, puzzle_date)
		VALUES (?, ?, ?)
	`, used.Name, used.NameNormalized, used.PuzzleDate); err != nil {
		return fmt.Errorf("failed to insert used character: %w", err)
	}

	return tx.Commit()
}
