package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"figurdle/internal/matcher"
	"figurdle/internal/models"
)

// fakePuzzleStore is an in-memory PuzzleStore mirroring the repository's
// transactional semantics
type fakePuzzleStore struct {
	puzzles   map[string]*models.Puzzle
	usedNames map[string]string // normalized -> display name
	commits   int
	failNext  error
	onFail    func() // runs after a failNext rejection, before returning
}

func newFakePuzzleStore() *fakePuzzleStore {
	return &fakePuzzleStore{
		puzzles:   make(map[string]*models.Puzzle),
		usedNames: make(map[string]string),
	}
}

func (f *fakePuzzleStore) GetByDate(puzzleDate string) (*models.Puzzle, error) {
	return f.puzzles[puzzleDate], nil
}

func (f *fakePuzzleStore) ListSummaries(throughDate string) ([]models.PuzzleSummary, error) {
	var out []models.PuzzleSummary
	for date, p := range f.puzzles {
		if date <= throughDate {
			out = append(out, models.PuzzleSummary{PuzzleDate: date, HasImage: p.HasImage()})
		}
	}
	return out, nil
}

func (f *fakePuzzleStore) IsNameUsed(nameNormalized string) (bool, error) {
	_, ok := f.usedNames[nameNormalized]
	return ok, nil
}

func (f *fakePuzzleStore) ListUsedNames() ([]string, error) {
	var names []string
	for _, name := range f.usedNames {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakePuzzleStore) CreateWithUsedCharacter(puzzle *models.Puzzle, used *models.UsedCharacter) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		if f.onFail != nil {
			f.onFail()
		}
		return err
	}
	if _, exists := f.puzzles[puzzle.PuzzleDate]; exists {
		return errors.New("unique constraint: puzzle_date")
	}
	if _, exists := f.usedNames[used.NameNormalized]; exists {
		return errors.New("unique constraint: name_normalized")
	}
	f.puzzles[puzzle.PuzzleDate] = puzzle
	f.usedNames[used.NameNormalized] = used.Name
	f.commits++
	return nil
}

// fakeSessionStore is an in-memory SessionStore honoring the same monotonic
// write guards as the SQL repository
type fakeSessionStore struct {
	sessions map[string]*models.UserSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.UserSession)}
}

func (f *fakeSessionStore) Create(session *models.UserSession) error {
	if _, exists := f.sessions[session.SessionID]; exists {
		return errors.New("unique constraint: session_id")
	}
	copied := *session
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	f.sessions[session.SessionID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByID(sessionID string) (*models.UserSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) UpdateProgress(sessionID string, attempts, hintsRevealed int) (bool, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.Result != "" || s.Attempts > attempts || s.HintsRevealed > hintsRevealed {
		return false, nil
	}
	s.Attempts = attempts
	s.HintsRevealed = hintsRevealed
	s.HasPlayed = true
	s.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeSessionStore) Complete(sessionID, gameResult string, attempts, hintsRevealed int) (bool, error) {
	s, ok := f.sessions[sessionID]
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
	s.UpdatedAt = now
	return true, nil
}

// fakeGenerator returns scripted characters in order, then errors
type fakeGenerator struct {
	characters []*models.GeneratedCharacter
	calls      int
	imageURL   string
}

func (f *fakeGenerator) GenerateCharacter(ctx context.Context, exclude []string, hintCount, attempt int) (*models.GeneratedCharacter, error) {
	if f.calls >= len(f.characters) {
		return nil, fmt.Errorf("generation failed on call %d", f.calls+1)
	}
	c := f.characters[f.calls]
	f.calls++
	return c, nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, answer string) (string, error) {
	return f.imageURL, nil
}

// testCharacter builds a generator record with the required hint count
func testCharacter(answer string, hints int) *models.GeneratedCharacter {
	c := &models.GeneratedCharacter{
		Answer:     answer,
		Aliases:    []string{},
		SourceURLs: []string{"https://en.wikipedia.org/wiki/" + matcher.Normalize(answer)},
	}
	for i := 0; i < hints; i++ {
		c.Hints = append(c.Hints, fmt.Sprintf("hint %d", i+1))
	}
	return c
}

// disabledAlerts returns an AlertService that only logs
func disabledAlerts() *AlertService {
	alerts, _ := NewAlertService("", "", "")
	return alerts
}
