package handlers

import (
	"net/http"
	"time"

	"figurdle/internal/models"
	"figurdle/internal/security"
	"figurdle/internal/service"
)

// AdminHandler exposes the manual rotation trigger and health checks
type AdminHandler struct {
	rotation    *service.RotationService
	adminSecret string
	environment string
	loc         *time.Location
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(rotation *service.RotationService, adminSecret, environment string, loc *time.Location) *AdminHandler {
	return &AdminHandler{
		rotation:    rotation,
		adminSecret: adminSecret,
		environment: environment,
		loc:         loc,
	}
}

// Rotate handles POST /admin/rotate. Guarded by the admin shared secret,
// which is distinct from the puzzle signing secret. The date defaults to
// today's game day; an optional date query parameter backfills past days
func (h *AdminHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	if !security.CheckAdminSecret(h.adminSecret, r.Header.Get("X-Admin-Secret")) {
		respondWithError(w, http.StatusUnauthorized, ErrCategoryUnauthorized, "", nil)
		return
	}

	date := service.GameDay(time.Now(), h.loc)
	if requested := r.URL.Query().Get("date"); requested != "" {
		if _, err := time.Parse(models.DateFormat, requested); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrCategoryInvalidRequest, "", nil)
			return
		}
		date = requested
	}

	puzzle, created, err := h.rotation.Rotate(r.Context(), date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCategoryInternal, "Rotation failed", err)
		return
	}

	status := "exists"
	if created {
		status = "created"
	}

	respondJSON(w, http.StatusOK, RotateOut{
		Status:     status,
		PuzzleDate: puzzle.PuzzleDate,
		Character:  puzzle.Answer,
		HintsCount: puzzle.HintsCount(),
	})
}

// Healthz handles GET /healthz
func (h *AdminHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Health handles GET /health
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"environment": h.environment,
	})
}
