package service

import (
	"time"

	"figurdle/internal/models"
)

// PuzzleStore defines the puzzle persistence operations the services need.
// Satisfied by repository.PuzzleRepository
type PuzzleStore interface {
	GetByDate(puzzleDate string) (*models.Puzzle, error)
	ListSummaries(throughDate string) ([]models.PuzzleSummary, error)
	IsNameUsed(nameNormalized string) (bool, error)
	ListUsedNames() ([]string, error)
	CreateWithUsedCharacter(puzzle *models.Puzzle, used *models.UsedCharacter) error
}

// SessionStore defines the session persistence operations the services need.
// Satisfied by repository.SessionRepository
type SessionStore interface {
	Create(session *models.UserSession) error
	GetByID(sessionID string) (*models.UserSession, error)
	UpdateProgress(sessionID string, attempts, hintsRevealed int) (bool, error)
	Complete(sessionID, gameResult string, attempts, hintsRevealed int) (bool, error)
}

// GameDay formats the calendar day the given instant falls on in the game's
// timezone. Puzzles, sessions, and signatures all key on this value
func GameDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DateFormat)
}
