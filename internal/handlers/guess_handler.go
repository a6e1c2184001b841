package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"figurdle/internal/service"
)

// GuessHandler runs the guess protocol
type GuessHandler struct {
	guesses  *service.GuessService
	sessions *service.SessionService
	loc      *time.Location
}

// NewGuessHandler creates a new guess handler
func NewGuessHandler(guesses *service.GuessService, sessions *service.SessionService, loc *time.Location) *GuessHandler {
	return &GuessHandler{
		guesses:  guesses,
		sessions: sessions,
		loc:      loc,
	}
}

// Guess handles POST /guess
func (h *GuessHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var in GuessIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		return
	}
	if in.Guess == "" || in.PuzzleDate == "" || in.Signature == "" {
		respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		return
	}

	// Guessing without a prior status check is fine: a fresh visitor gets a
	// session for today on the spot
	today := service.GameDay(time.Now(), h.loc)
	session, created, err := h.sessions.GetOrCreate(sessionToken(r), today)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to resolve session", err)
		return
	}
	if created {
		setSessionCookie(w, r, session.SessionID, h.loc)
	}

	outcome, err := h.guesses.Evaluate(service.GuessRequest{
		Guess:      in.Guess,
		Revealed:   in.Revealed,
		Signature:  in.Signature,
		PuzzleDate: in.PuzzleDate,
		HintsCount: in.HintsCount,
	}, session)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			// Deliberately silent about which field failed
			respondWithError(w, http.StatusBadRequest, ErrCategoryTampered, "", nil)
		case errors.Is(err, service.ErrPuzzleNotFound):
			respondWithError(w, http.StatusNotFound, ErrCategoryNotFound, "", nil)
		case errors.Is(err, service.ErrNotEligible):
			// Renderable as "come back tomorrow", not an error banner
			respondWithError(w, http.StatusForbidden, ErrCategoryNotEligible, "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Guess evaluation failed", err)
		}
		return
	}

	out := GuessOut{
		Correct:        outcome.Correct,
		RevealNextHint: outcome.RevealNextHint,
	}
	if outcome.NextHint != "" {
		hint := outcome.NextHint
		out.NextHint = &hint
	}
	if outcome.NormalizedAnswer != "" {
		answer := outcome.NormalizedAnswer
		out.NormalizedAnswer = &answer
	}

	respondJSON(w, http.StatusOK, out)
}
