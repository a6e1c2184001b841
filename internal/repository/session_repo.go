package repository

import (
	"database/sql"
	"time"

	"figurdle/internal/database"
	"figurdle/internal/models"
)

// SessionRepository handles user session database operations.
//
// All mutating queries carry monotonic guards in their WHERE clauses, so two
// racing read-modify-write cycles for the same session cannot roll counters
// back or double-complete: the stale writer simply matches zero rows
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a fresh session row
func (r *SessionRepository) Create(session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (session_id, puzzle_date, can_play, has_played, attempts, hints_revealed)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		session.SessionID,
		session.PuzzleDate,
		session.CanPlay,
		session.HasPlayed,
		session.Attempts,
		session.HintsRevealed,
	)
	return err
}

// GetByID retrieves a session by its token, or nil if none exists
func (r *SessionRepository) GetByID(sessionID string) (*models.UserSession, error) {
	query := `
		SELECT session_id, puzzle_date, can_play, has_played, result,
		       attempts, hints_revealed, completed_at, created_at, updated_at
		FROM user_sessions
		WHERE session_id = ?
	`

	session := &models.UserSession{}
	var result sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRow(query, sessionID).Scan(
		&session.SessionID,
		&session.PuzzleDate,
		&session.CanPlay,
		&session.HasPlayed,
		&result,
		&session.Attempts,
		&session.HintsRevealed,
		&completedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if result.Valid {
		session.Result = result.String
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return session, nil
}

// UpdateProgress writes new counters for an open session. The guards only
// match when the session is still open and the new values do not decrease,
// so a replayed stale update matches zero rows instead of rolling back
// server truth. Returns whether a row was updated
func (r *SessionRepository) UpdateProgress(sessionID string, attempts, hintsRevealed int) (bool, error) {
	query := `
		UPDATE user_sessions
		SET attempts = ?, hints_revealed = ?, has_played = ?, updated_at = ?
		WHERE session_id = ?
		  AND result IS NULL
		  AND attempts <= ?
		  AND hints_revealed <= ?
	`

	result, err := r.db.Exec(query,
		attempts, hintsRevealed, true, time.Now().UTC(),
		sessionID, attempts, hintsRevealed,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Complete transitions an open session to its terminal state. Matches only
// while result is unset; the caller inspects the returned flag to decide
// whether a zero-row match was an idempotent repeat or a conflict
func (r *SessionRepository) Complete(sessionID, gameResult string, attempts, hintsRevealed int) (bool, error) {
	now := time.Now().UTC()
	query := `
		UPDATE user_sessions
		SET can_play = ?, has_played = ?, result = ?, attempts = ?,
		    hints_revealed = ?, completed_at = ?, updated_at = ?
		WHERE session_id = ?
		  AND result IS NULL
	`

	result, err := r.db.Exec(query,
		false, true, gameResult, attempts, hintsRevealed, now, now,
		sessionID,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
