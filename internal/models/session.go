package models

import "time"

// Game results. Empty string means the session is still open
const (
	ResultWon  = "won"
	ResultLost = "lost"
)

// UserSession tracks one visitor's eligibility and progress for a single
// puzzle date, keyed by the opaque cookie token
type UserSession struct {
	SessionID     string
	PuzzleDate    string // YYYY-MM-DD
	CanPlay       bool
	HasPlayed     bool
	Result        string // won, lost, or empty while open
	Attempts      int
	HintsRevealed int
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCompleted reports whether the session has reached a terminal result
func (s *UserSession) IsCompleted() bool {
	return s.Result != ""
}

// AppliesTo reports whether this session grants play for the given date
func (s *UserSession) AppliesTo(puzzleDate string) bool {
	return s.PuzzleDate == puzzleDate
}
