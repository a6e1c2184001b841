package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"figurdle/internal/models"
	"figurdle/internal/security"
	"figurdle/internal/service"
)

// SessionHandler exposes the per-day session state
type SessionHandler struct {
	sessions *service.SessionService
	loc      *time.Location
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, loc *time.Location) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		loc:      loc,
	}
}

// Status handles GET /session/status: explicit get-or-create. A missing or
// stale cookie means "new visitor", never an error
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	today := service.GameDay(time.Now(), h.loc)

	session, created, err := h.sessions.GetOrCreate(sessionToken(r), today)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to resolve session", err)
		return
	}
	if created {
		setSessionCookie(w, r, session.SessionID, h.loc)
	}

	respondJSON(w, http.StatusOK, sessionView(session))
}

// UpdateProgress handles POST /session/update-progress. Counters only move
// forward; a stale client cannot roll back server truth
func (h *SessionHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var in ProgressIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		return
	}
	if in.Attempts < 0 || in.HintsRevealed < 0 {
		respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		return
	}

	session := h.currentSession(w, r)
	if session == nil {
		return
	}

	updated, err := h.sessions.UpdateProgress(session, in.Attempts, in.HintsRevealed)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to update progress", err)
		return
	}

	respondJSON(w, http.StatusOK, sessionView(updated))
}

// Complete handles POST /session/complete. Idempotent for a repeated result;
// a conflicting result is rejected
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var in CompleteIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		return
	}

	session := h.currentSession(w, r)
	if session == nil {
		return
	}

	updated, err := h.sessions.Complete(session, in.Result, in.Attempts, in.HintsRevealed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResult):
			respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
		case errors.Is(err, service.ErrResultConflict):
			respondWithError(w, http.StatusConflict, ErrCategoryInvalidRequest, "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to complete session", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, sessionView(updated))
}

// currentSession loads the caller's session for today, writing the response
// itself when there is none to mutate
func (h *SessionHandler) currentSession(w http.ResponseWriter, r *http.Request) *models.UserSession {
	token := sessionToken(r)
	if token == "" {
		respondWithError(w, http.StatusForbidden, ErrCategoryNotEligible, "", nil)
		return nil
	}

	session, err := h.sessions.Get(token)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Failed to load session", err)
		return nil
	}
	if session == nil || !session.AppliesTo(service.GameDay(time.Now(), h.loc)) {
		respondWithError(w, http.StatusForbidden, ErrCategoryNotEligible, "", nil)
		return nil
	}

	return session
}

// setSessionCookie issues the opaque session cookie, expiring at the end of
// the game day it is scoped to
func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, loc *time.Location) {
	now := time.Now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, sessionID, midnight))
}
