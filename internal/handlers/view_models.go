package handlers

import (
	"time"

	"figurdle/internal/models"
)

// PublicPuzzle is the signed puzzle descriptor handed to clients. The answer
// appears only for sessions that already finished this date's puzzle
type PublicPuzzle struct {
	PuzzleDate    string   `json:"puzzle_date"`
	HintsCount    int      `json:"hints_count"`
	Signature     string   `json:"signature"`
	RevealedHints []string `json:"revealed_hints"`
	ImageURL      *string  `json:"image_url,omitempty"`
	Answer        *string  `json:"answer,omitempty"`
}

// PuzzleAvailability is one entry of the past-puzzle listing
type PuzzleAvailability struct {
	PuzzleDate string `json:"puzzle_date"`
	HasImage   bool   `json:"has_image"`
}

// GuessIn is the request body for POST /guess
type GuessIn struct {
	Guess      string `json:"guess"`
	Revealed   int    `json:"revealed"`
	Signature  string `json:"signature"`
	PuzzleDate string `json:"puzzle_date"`
	HintsCount int    `json:"hints_count"`
}

// GuessOut is the response body for POST /guess
type GuessOut struct {
	Correct          bool    `json:"correct"`
	RevealNextHint   bool    `json:"reveal_next_hint"`
	NextHint         *string `json:"next_hint"`
	NormalizedAnswer *string `json:"normalized_answer"`
}

// SessionView is the UserSession projection returned to clients
type SessionView struct {
	SessionID     string     `json:"session_id"`
	PuzzleDate    string     `json:"puzzle_date"`
	CanPlay       bool       `json:"can_play"`
	HasPlayed     bool       `json:"has_played"`
	Result        *string    `json:"result"`
	Attempts      int        `json:"attempts"`
	HintsRevealed int        `json:"hints_revealed"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// ProgressIn is the request body for POST /session/update-progress
type ProgressIn struct {
	Attempts      int `json:"attempts"`
	HintsRevealed int `json:"hints_revealed"`
}

// CompleteIn is the request body for POST /session/complete
type CompleteIn struct {
	Result        string `json:"result"`
	Attempts      int    `json:"attempts"`
	HintsRevealed int    `json:"hints_revealed"`
}

// RotateOut is the admin rotation response; non-secret metadata only
type RotateOut struct {
	Status     string `json:"status"` // created or exists
	PuzzleDate string `json:"puzzle_date"`
	Character  string `json:"character"`
	HintsCount int    `json:"hints_count"`
}

// sessionView projects a session for client consumption
func sessionView(s *models.UserSession) SessionView {
	view := SessionView{
		SessionID:     s.SessionID,
		PuzzleDate:    s.PuzzleDate,
		CanPlay:       s.CanPlay,
		HasPlayed:     s.HasPlayed,
		Attempts:      s.Attempts,
		HintsRevealed: s.HintsRevealed,
		CompletedAt:   s.CompletedAt,
	}
	if s.Result != "" {
		result := s.Result
		view.Result = &result
	}
	return view
}
