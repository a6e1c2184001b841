package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"figurdle/internal/models"
	"figurdle/internal/security"
	"figurdle/internal/service"
)

// memPuzzleStore is an in-memory service.PuzzleStore
type memPuzzleStore struct {
	puzzles map[string]*models.Puzzle
}

func (m *memPuzzleStore) GetByDate(puzzleDate string) (*models.Puzzle, error) {
	return m.puzzles[puzzleDate], nil
}

func (m *memPuzzleStore) ListSummaries(throughDate string) ([]models.PuzzleSummary, error) {
	var out []models.PuzzleSummary
	for date, p := range m.puzzles {
		if date <= throughDate {
			out = append(out, models.PuzzleSummary{PuzzleDate: date, HasImage: p.HasImage()})
		}
	}
	return out, nil
}

func (m *memPuzzleStore) IsNameUsed(nameNormalized string) (bool, error) { return false, nil }
func (m *memPuzzleStore) ListUsedNames() ([]string, error)              { return nil, nil }
func (m *memPuzzleStore) CreateWithUsedCharacter(puzzle *models.Puzzle, used *models.UsedCharacter) error {
	m.puzzles[puzzle.PuzzleDate] = puzzle
	return nil
}

// memSessionStore is an in-memory service.SessionStore with the same write
// guards as the SQL repository
type memSessionStore struct {
	sessions map[string]*models.UserSession
}

func (m *memSessionStore) Create(session *models.UserSession) error {
	copied := *session
	m.sessions[session.SessionID] = &copied
	return nil
}

func (m *memSessionStore) GetByID(sessionID string) (*models.UserSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *memSessionStore) UpdateProgress(sessionID string, attempts, hintsRevealed int) (bool, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.Result != "" || s.Attempts > attempts || s.HintsRevealed > hintsRevealed {
		return false, nil
	}
	s.Attempts = attempts
	s.HintsRevealed = hintsRevealed
	s.HasPlayed = true
	return true, nil
}

func (m *memSessionStore) Complete(sessionID, gameResult string, attempts, hintsRevealed int) (bool, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.Result != "" {
		return false, nil
	}
	now := time.Now()
	s.CanPlay = false
	s.HasPlayed = true
	s.Result = gameResult
	s.Attempts = attempts
	s.HintsRevealed = hintsRevealed
	s.CompletedAt = &now
	return true, nil
}

type testEnv struct {
	mux      *http.ServeMux
	puzzles  *memPuzzleStore
	sessions *memSessionStore
	signer   *security.PuzzleSigner
	today    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	loc := time.UTC
	today := service.GameDay(time.Now(), loc)

	puzzles := &memPuzzleStore{puzzles: map[string]*models.Puzzle{
		today: {
			ID:         1,
			PuzzleDate: today,
			Answer:     "Marie Curie",
			Aliases:    []string{"Maria Sklodowska"},
			Hints:      []string{"h1", "h2", "h3", "h4", "h5"},
		},
	}}
	sessionStore := &memSessionStore{sessions: map[string]*models.UserSession{}}

	signer := security.NewPuzzleSigner("handler-test-secret")
	sessionSvc := service.NewSessionService(sessionStore, puzzles)
	guessSvc := service.NewGuessService(puzzles, sessionSvc, signer)

	puzzleHandler := NewPuzzleHandler(puzzles, sessionSvc, signer, loc)
	guessHandler := NewGuessHandler(guessSvc, sessionSvc, loc)
	sessionHandler := NewSessionHandler(sessionSvc, loc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /puzzle/today", puzzleHandler.Today)
	mux.HandleFunc("GET /puzzle/by-date/{date}", puzzleHandler.ByDate)
	mux.HandleFunc("GET /puzzle/available", puzzleHandler.Available)
	mux.HandleFunc("POST /guess", guessHandler.Guess)
	mux.HandleFunc("GET /session/status", sessionHandler.Status)
	mux.HandleFunc("POST /session/complete", sessionHandler.Complete)
	mux.HandleFunc("POST /session/update-progress", sessionHandler.UpdateProgress)

	return &testEnv{mux: mux, puzzles: puzzles, sessions: sessionStore, signer: signer, today: today}
}

func (e *testEnv) do(t *testing.T, method, target, cookie string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func TestPuzzleTodaySignedDescriptor(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/puzzle/today", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var out PublicPuzzle
	decodeBody(t, rec, &out)

	if out.PuzzleDate != env.today {
		t.Errorf("puzzle_date = %q, want %q", out.PuzzleDate, env.today)
	}
	if out.HintsCount != 5 {
		t.Errorf("hints_count = %d", out.HintsCount)
	}
	if !env.signer.Verify(out.PuzzleDate, out.HintsCount, out.Signature) {
		t.Error("descriptor signature does not verify")
	}
	if len(out.RevealedHints) != 0 {
		t.Errorf("fresh visitor got %d revealed hints", len(out.RevealedHints))
	}
	if out.Answer != nil {
		t.Error("answer leaked to an anonymous request")
	}
	if sessionCookie(rec) != "" {
		t.Error("reading the puzzle must not create a session")
	}
}

func TestPuzzleByDateValidation(t *testing.T) {
	env := newTestEnv(t)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(models.DateFormat)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"malformed date", "/puzzle/by-date/not-a-date", http.StatusBadRequest},
		{"future date", "/puzzle/by-date/" + tomorrow, http.StatusNotFound},
		{"absent date", "/puzzle/by-date/2000-01-01", http.StatusNotFound},
		{"today", "/puzzle/by-date/" + env.today, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "GET", tt.target, "", nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestSessionStatusCreatesSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/session/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cookie := sessionCookie(rec)
	if cookie == "" {
		t.Fatal("expected a session cookie")
	}

	var view SessionView
	decodeBody(t, rec, &view)
	if view.PuzzleDate != env.today || !view.CanPlay || view.Result != nil {
		t.Errorf("unexpected fresh session view: %+v", view)
	}

	// The same cookie resolves to the same session, no new cookie issued
	rec2 := env.do(t, "GET", "/session/status", cookie, nil)
	var view2 SessionView
	decodeBody(t, rec2, &view2)
	if view2.SessionID != view.SessionID {
		t.Error("same cookie resolved to a different session")
	}
	if sessionCookie(rec2) != "" {
		t.Error("existing session re-issued a cookie")
	}
}

func TestGuessFlowWin(t *testing.T) {
	env := newTestEnv(t)

	body := GuessIn{
		Guess:      "marie curie",
		Signature:  env.signer.Sign(env.today, 5),
		PuzzleDate: env.today,
		HintsCount: 5,
	}

	rec := env.do(t, "POST", "/guess", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// A fresh visitor gets a session on the spot
	cookie := sessionCookie(rec)
	if cookie == "" {
		t.Fatal("expected a session cookie from a cold guess")
	}

	var out GuessOut
	decodeBody(t, rec, &out)
	if !out.Correct {
		t.Error("expected a correct outcome")
	}
	if out.NormalizedAnswer == nil || *out.NormalizedAnswer != "Marie Curie" {
		t.Errorf("normalized_answer = %v", out.NormalizedAnswer)
	}

	// The completed session now sees the answer in the descriptor
	pRec := env.do(t, "GET", "/puzzle/today", cookie, nil)
	var pub PublicPuzzle
	decodeBody(t, pRec, &pub)
	if pub.Answer == nil || *pub.Answer != "Marie Curie" {
		t.Error("completed session did not receive the answer")
	}

	// And a second guess is refused
	rec2 := env.do(t, "POST", "/guess", cookie, body)
	if rec2.Code != http.StatusForbidden {
		t.Errorf("replayed guess status = %d, want 403", rec2.Code)
	}
}

func TestGuessFlowHintsAndLoss(t *testing.T) {
	env := newTestEnv(t)

	body := GuessIn{
		Guess:      "Isaac Newton",
		Signature:  env.signer.Sign(env.today, 5),
		PuzzleDate: env.today,
		HintsCount: 5,
	}

	var cookie string
	for i := 0; i < 4; i++ {
		rec := env.do(t, "POST", "/guess", cookie, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("guess %d status = %d", i+1, rec.Code)
		}
		if c := sessionCookie(rec); c != "" {
			cookie = c
		}

		var out GuessOut
		decodeBody(t, rec, &out)
		if out.Correct || !out.RevealNextHint {
			t.Fatalf("guess %d: unexpected outcome %+v", i+1, out)
		}
		want := fmt.Sprintf("h%d", i+1)
		if out.NextHint == nil || *out.NextHint != want {
			t.Errorf("guess %d: next_hint = %v, want %s", i+1, out.NextHint, want)
		}
	}

	rec := env.do(t, "POST", "/guess", cookie, body)
	var out GuessOut
	decodeBody(t, rec, &out)
	if out.Correct || out.RevealNextHint {
		t.Error("final guess must be terminal")
	}
	if out.NormalizedAnswer == nil || *out.NormalizedAnswer != "Marie Curie" {
		t.Errorf("expected answer disclosure, got %v", out.NormalizedAnswer)
	}

	// The lost session sees its unlocked hints but stays completed
	pRec := env.do(t, "GET", "/puzzle/today", cookie, nil)
	var pub PublicPuzzle
	decodeBody(t, pRec, &pub)
	if len(pub.RevealedHints) != 4 {
		t.Errorf("revealed_hints = %v", pub.RevealedHints)
	}
	if pub.Answer == nil {
		t.Error("lost session did not receive the answer")
	}
}

func TestGuessRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	goodSig := env.signer.Sign(env.today, 5)

	tests := []struct {
		name   string
		body   GuessIn
		status int
		errCat string
	}{
		{
			"missing guess",
			GuessIn{Signature: goodSig, PuzzleDate: env.today, HintsCount: 5},
			http.StatusBadRequest, ErrCategoryInvalidRequest,
		},
		{
			"missing signature",
			GuessIn{Guess: "x", PuzzleDate: env.today, HintsCount: 5},
			http.StatusBadRequest, ErrCategoryInvalidRequest,
		},
		{
			"tampered hint count",
			GuessIn{Guess: "x", Signature: goodSig, PuzzleDate: env.today, HintsCount: 7},
			http.StatusBadRequest, ErrCategoryTampered,
		},
		{
			"signature for another date",
			GuessIn{Guess: "x", Signature: env.signer.Sign("2000-01-01", 5), PuzzleDate: env.today, HintsCount: 5},
			http.StatusBadRequest, ErrCategoryTampered,
		},
		{
			"valid signature, absent puzzle",
			GuessIn{Guess: "x", Signature: env.signer.Sign("2000-01-01", 5), PuzzleDate: "2000-01-01", HintsCount: 5},
			http.StatusNotFound, ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/guess", "", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp struct {
				Error string `json:"error"`
			}
			decodeBody(t, rec, &resp)
			if resp.Error != tt.errCat {
				t.Errorf("error = %q, want %q", resp.Error, tt.errCat)
			}
		})
	}
}

func TestSessionCompleteIdempotency(t *testing.T) {
	env := newTestEnv(t)

	statusRec := env.do(t, "GET", "/session/status", "", nil)
	cookie := sessionCookie(statusRec)

	complete := CompleteIn{Result: models.ResultWon, Attempts: 2, HintsRevealed: 1}

	rec := env.do(t, "POST", "/session/complete", cookie, complete)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Repeating the same result is fine
	rec = env.do(t, "POST", "/session/complete", cookie, complete)
	if rec.Code != http.StatusOK {
		t.Errorf("idempotent repeat status = %d", rec.Code)
	}

	// A different result is a conflict
	rec = env.do(t, "POST", "/session/complete", cookie, CompleteIn{Result: models.ResultLost})
	if rec.Code != http.StatusConflict {
		t.Errorf("conflicting result status = %d, want 409", rec.Code)
	}

	// An invalid result is a bad request
	rec = env.do(t, "POST", "/session/complete", cookie, CompleteIn{Result: "draw"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid result status = %d, want 400", rec.Code)
	}
}

func TestSessionCompleteRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/session/complete", "", CompleteIn{Result: models.ResultWon})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = env.do(t, "POST", "/session/complete", "unknown-token", CompleteIn{Result: models.ResultWon})
	if rec.Code != http.StatusForbidden {
		t.Errorf("unknown token status = %d, want 403", rec.Code)
	}
}

func TestSessionUpdateProgressMonotonic(t *testing.T) {
	env := newTestEnv(t)

	statusRec := env.do(t, "GET", "/session/status", "", nil)
	cookie := sessionCookie(statusRec)

	rec := env.do(t, "POST", "/session/update-progress", cookie, ProgressIn{Attempts: 3, HintsRevealed: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view SessionView
	decodeBody(t, rec, &view)
	if view.Attempts != 3 || view.HintsRevealed != 2 {
		t.Errorf("view = %d/%d", view.Attempts, view.HintsRevealed)
	}

	// A lower claim does not roll the counters back
	rec = env.do(t, "POST", "/session/update-progress", cookie, ProgressIn{Attempts: 1, HintsRevealed: 0})
	decodeBody(t, rec, &view)
	if view.Attempts != 3 || view.HintsRevealed != 2 {
		t.Errorf("rolled back to %d/%d", view.Attempts, view.HintsRevealed)
	}

	// Negative counters are rejected outright
	rec = env.do(t, "POST", "/session/update-progress", cookie, ProgressIn{Attempts: -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative counters status = %d, want 400", rec.Code)
	}
}

func TestPuzzleAvailableListing(t *testing.T) {
	env := newTestEnv(t)

	env.puzzles.puzzles["2000-01-01"] = &models.Puzzle{
		PuzzleDate: "2000-01-01",
		Answer:     "Ada Lovelace",
		Hints:      []string{"a", "b", "c", "d", "e"},
		ImageURL:   "https://img.example/ada.png",
	}

	rec := env.do(t, "GET", "/puzzle/available", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out []PuzzleAvailability
	decodeBody(t, rec, &out)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	for _, entry := range out {
		if entry.PuzzleDate == "2000-01-01" && !entry.HasImage {
			t.Error("expected has_image for the archived puzzle")
		}
	}
}

// staticGenerator feeds the admin handler a deterministic rotation
type staticGenerator struct{}

func (staticGenerator) GenerateCharacter(ctx context.Context, exclude []string, hintCount, attempt int) (*models.GeneratedCharacter, error) {
	c := &models.GeneratedCharacter{Answer: "Grace Hopper"}
	for i := 0; i < hintCount; i++ {
		c.Hints = append(c.Hints, fmt.Sprintf("hint %d", i+1))
	}
	return c, nil
}

func (staticGenerator) GenerateImage(ctx context.Context, answer string) (string, error) {
	return "", errors.New("images disabled")
}

func TestAdminRotateAuthAndIdempotency(t *testing.T) {
	loc := time.UTC
	puzzles := &memPuzzleStore{puzzles: map[string]*models.Puzzle{}}
	alerts, _ := service.NewAlertService("", "", "")
	rotation := service.NewRotationService(puzzles, staticGenerator{}, alerts, 3, 5, time.Minute)
	handler := NewAdminHandler(rotation, "s3cret", "test", loc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/rotate", handler.Rotate)

	do := func(secret, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", target, nil)
		if secret != "" {
			req.Header.Set("X-Admin-Secret", secret)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("", "/admin/rotate"); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing secret status = %d, want 401", rec.Code)
	}
	if rec := do("wrong", "/admin/rotate"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", rec.Code)
	}
	if rec := do("s3cret", "/admin/rotate?date=bogus"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}

	rec := do("s3cret", "/admin/rotate?date=2026-08-29")
	if rec.Code != http.StatusOK {
		t.Fatalf("rotate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out RotateOut
	decodeBody(t, rec, &out)
	if out.Status != "created" || out.Character != "Grace Hopper" || out.HintsCount != 5 {
		t.Errorf("unexpected rotation response: %+v", out)
	}

	rec = do("s3cret", "/admin/rotate?date=2026-08-29")
	decodeBody(t, rec, &out)
	if out.Status != "exists" {
		t.Errorf("re-rotation status = %q, want exists", out.Status)
	}
}
