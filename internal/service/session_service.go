package service

import (
	"errors"
	"fmt"

	"figurdle/internal/models"
	"figurdle/internal/security"
)

var (
	// ErrResultConflict means a completed session was asked to record a
	// different result. History is never rewritten
	ErrResultConflict = errors.New("session already completed with a different result")

	// ErrInvalidResult means the caller supplied a result outside won/lost
	ErrInvalidResult = errors.New("invalid game result")
)

// SessionService owns per-visitor, per-day eligibility and progress. It is
// the only writer of a session's can_play and result fields
type SessionService struct {
	sessions SessionStore
	puzzles  PuzzleStore
}

// NewSessionService creates a session service
func NewSessionService(sessions SessionStore, puzzles PuzzleStore) *SessionService {
	return &SessionService{sessions: sessions, puzzles: puzzles}
}

// GetOrCreate resolves the caller's session for the given puzzle date. A
// missing token, an unknown token, or a session scoped to a different date
// all yield a fresh session; yesterday's cookie never grants today's play.
// Returns the session and whether it was newly created
func (s *SessionService) GetOrCreate(sessionID, puzzleDate string) (*models.UserSession, bool, error) {
	if sessionID != "" {
		existing, err := s.sessions.GetByID(sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load session: %w", err)
		}
		if existing != nil && existing.AppliesTo(puzzleDate) {
			return existing, false, nil
		}
	}

	session := &models.UserSession{
		SessionID:  security.GenerateSessionID(),
		PuzzleDate: puzzleDate,
		CanPlay:    true,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	return session, true, nil
}

// Get returns the session for a token, or nil if the token is unknown
func (s *SessionService) Get(sessionID string) (*models.UserSession, error) {
	return s.sessions.GetByID(sessionID)
}

// UpdateProgress applies new counters to an open session. Client-sent values
// are advisory: decreases are clamped to the server's stored counters and
// hints are capped at the session's puzzle hint count. Returns the session
// as stored
func (s *SessionService) UpdateProgress(session *models.UserSession, attempts, hintsRevealed int) (*models.UserSession, error) {
	if session.IsCompleted() {
		return session, nil
	}

	// Monotonic clamp: server truth never rolls back
	if attempts < session.Attempts {
		attempts = session.Attempts
	}
	if hintsRevealed < session.HintsRevealed {
		hintsRevealed = session.HintsRevealed
	}
	limit, err := s.hintCap(session.PuzzleDate)
	if err != nil {
		return nil, err
	}
	if hintsRevealed > limit {
		hintsRevealed = limit
	}

	if _, err := s.sessions.UpdateProgress(session.SessionID, attempts, hintsRevealed); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return s.reload(session)
}

// Complete transitions a session to a terminal result. Calling it again with
// the same result is a no-op; a different result is rejected. The
// single-writer guard in the store resolves racing completions; the loser
// falls through to the idempotency check
func (s *SessionService) Complete(session *models.UserSession, gameResult string, attempts, hintsRevealed int) (*models.UserSession, error) {
	if gameResult != models.ResultWon && gameResult != models.ResultLost {
		return nil, ErrInvalidResult
	}

	if session.IsCompleted() {
		if session.Result != gameResult {
			return nil, ErrResultConflict
		}
		return session, nil
	}

	if attempts < session.Attempts {
		attempts = session.Attempts
	}
	if hintsRevealed < session.HintsRevealed {
		hintsRevealed = session.HintsRevealed
	}

	updated, err := s.sessions.Complete(session.SessionID, gameResult, attempts, hintsRevealed)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	current, err := s.reload(session)
	if err != nil {
		return nil, err
	}
	if !updated && current.Result != gameResult {
		return nil, ErrResultConflict
	}

	return current, nil
}

// hintCap returns the hint count of the session's puzzle, falling back to
// the global maximum when no puzzle exists for the date
func (s *SessionService) hintCap(puzzleDate string) (int, error) {
	puzzle, err := s.puzzles.GetByDate(puzzleDate)
	if err != nil {
		return 0, fmt.Errorf("failed to load puzzle: %w", err)
	}
	if puzzle == nil {
		return models.MaxHints, nil
	}
	return puzzle.HintsCount(), nil
}

// reload re-reads a session after a write so callers see stored truth
func (s *SessionService) reload(session *models.UserSession) (*models.UserSession, error) {
	current, err := s.sessions.GetByID(session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("session %s disappeared", session.SessionID)
	}
	return current, nil
}
