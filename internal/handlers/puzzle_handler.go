package handlers

import (
	"net/http"
	"time"

	"figurdle/internal/models"
	"figurdle/internal/security"
	"figurdle/internal/service"
)

// PuzzleHandler serves the signed public puzzle descriptors
type PuzzleHandler struct {
	puzzles  service.PuzzleStore
	sessions *service.SessionService
	signer   *security.PuzzleSigner
	loc      *time.Location
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(puzzles service.PuzzleStore, sessions *service.SessionService, signer *security.PuzzleSigner, loc *time.Location) *PuzzleHandler {
	return &PuzzleHandler{
		puzzles:  puzzles,
		sessions: sessions,
		signer:   signer,
		loc:      loc,
	}
}

// Today serves the current game day's puzzle descriptor
func (h *PuzzleHandler) Today(w http.ResponseWriter, r *http.Request) {
	h.servePuzzle(w, r, service.GameDay(time.Now(), h.loc))
}

// ByDate serves a past puzzle descriptor for replay
func (h *PuzzleHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		return
	}
	if date > service.GameDay(time.Now(), h.loc) {
		// Tomorrow's puzzle is not served early
		respondWithError(w, http.StatusNotFound, ErrCategoryNotFound, "", nil)
		return
	}

	h.servePuzzle(w, r, date)
}

// Available lists the dates that have a puzzle, newest first
func (h *PuzzleHandler) Available(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.puzzles.ListSummaries(service.GameDay(time.Now(), h.loc))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to list puzzles", err)
		return
	}

	out := make([]PuzzleAvailability, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, PuzzleAvailability{PuzzleDate: s.PuzzleDate, HasImage: s.HasImage})
	}

	respondJSON(w, http.StatusOK, out)
}

// servePuzzle builds the signed descriptor for one date. Hints beyond the
// caller's unlocked count stay server-side; the answer appears only once the
// caller's session for this date is completed
func (h *PuzzleHandler) servePuzzle(w http.ResponseWriter, r *http.Request, date string) {
	puzzle, err := h.puzzles.GetByDate(date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to load puzzle", err)
		return
	}
	if puzzle == nil {
		respondWithError(w, http.StatusNotFound, ErrCategoryNotFound, "", nil)
		return
	}

	out := PublicPuzzle{
		PuzzleDate:    puzzle.PuzzleDate,
		HintsCount:    puzzle.HintsCount(),
		Signature:     h.signer.Sign(puzzle.PuzzleDate, puzzle.HintsCount()),
		RevealedHints: []string{},
	}
	if puzzle.HasImage() {
		imageURL := puzzle.ImageURL
		out.ImageURL = &imageURL
	}

	// Reading the puzzle never creates a session; only /session/status and
	// /guess do that
	if token := sessionToken(r); token != "" {
		session, err := h.sessions.Get(token)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to load session", err)
			return
		}
		if session != nil && session.AppliesTo(date) {
			unlocked := session.HintsRevealed
			if unlocked > puzzle.HintsCount() {
				unlocked = puzzle.HintsCount()
			}
			out.RevealedHints = puzzle.Hints[:unlocked]

			if session.IsCompleted() {
				answer := puzzle.Answer
				out.Answer = &answer
			}
		}
	}

	respondJSON(w, http.StatusOK, out)
}
