package service

import (
	"errors"
	"fmt"

	"figurdle/internal/matcher"
	"figurdle/internal/models"
	"figurdle/internal/security"
)

var (
	// ErrInvalidSignature covers any integrity failure: bad tag, tampered
	// date, tampered hint count, or a signature replayed against a puzzle
	// whose stored hint count differs. Callers must not distinguish them
	ErrInvalidSignature = errors.New("invalid puzzle signature")

	// ErrPuzzleNotFound means no puzzle exists for the requested date
	ErrPuzzleNotFound = errors.New("puzzle not found")

	// ErrNotEligible means the session already finished this date's puzzle
	ErrNotEligible = errors.New("session is not eligible to play")
)

// GuessRequest is the client's claim about which puzzle and reveal state it
// is acting on. Only the signature is trusted; the reveal count is advisory
type GuessRequest struct {
	Guess      string
	Revealed   int
	Signature  string
	PuzzleDate string
	HintsCount int
}

// GuessOutcome is the deterministic protocol response for one guess
type GuessOutcome struct {
	Correct          bool
	RevealNextHint   bool
	NextHint         string
	NormalizedAnswer string
	Session          *models.UserSession
}

// GuessService implements the stateless guess protocol on top of the signer,
// the fuzzy matcher, and the session tracker
type GuessService struct {
	puzzles  PuzzleStore
	sessions *SessionService
	signer   *security.PuzzleSigner
}

// NewGuessService creates a guess service
func NewGuessService(puzzles PuzzleStore, sessions *SessionService, signer *security.PuzzleSigner) *GuessService {
	return &GuessService{
		puzzles:  puzzles,
		sessions: sessions,
		signer:   signer,
	}
}

// Evaluate runs the guess protocol for one request. Every check fails closed
// and mutates nothing; state changes happen only on a decided outcome
func (s *GuessService) Evaluate(req GuessRequest, session *models.UserSession) (*GuessOutcome, error) {
	if !s.signer.Verify(req.PuzzleDate, req.HintsCount, req.Signature) {
		return nil, ErrInvalidSignature
	}

	puzzle, err := s.puzzles.GetByDate(req.PuzzleDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzle: %w", err)
	}
	if puzzle == nil {
		return nil, ErrPuzzleNotFound
	}

	// A valid signature from another day's puzzle metadata must not apply
	if puzzle.HintsCount() != req.HintsCount {
		return nil, ErrInvalidSignature
	}

	if session == nil || !session.CanPlay || !session.AppliesTo(req.PuzzleDate) || session.IsCompleted() {
		return nil, ErrNotEligible
	}

	// The server-tracked reveal count is authoritative; the client's claim
	// cannot skip ahead or replay an earlier index
	revealed := session.HintsRevealed
	attempts := session.Attempts + 1

	if matcher.Matches(req.Guess, puzzle.Answer, puzzle.Aliases) {
		updated, err := s.sessions.Complete(session, models.ResultWon, attempts, revealed)
		if err != nil {
			return nil, err
		}
		return &GuessOutcome{
			Correct:          true,
			NormalizedAnswer: puzzle.Answer,
			Session:          updated,
		}, nil
	}

	// A puzzle with n hints allows n guesses: the first n-1 misses each
	// unlock the next hint, the nth miss ends the game
	if revealed+1 < puzzle.HintsCount() {
		updated, err := s.sessions.UpdateProgress(session, attempts, revealed+1)
		if err != nil {
			return nil, err
		}
		return &GuessOutcome{
			RevealNextHint: true,
			NextHint:       puzzle.Hints[revealed],
			Session:        updated,
		}, nil
	}

	// Hints exhausted: terminal loss, answer disclosed
	updated, err := s.sessions.Complete(session, models.ResultLost, attempts, revealed)
	if err != nil {
		return nil, err
	}
	return &GuessOutcome{
		NormalizedAnswer: puzzle.Answer,
		Session:          updated,
	}, nil
}
