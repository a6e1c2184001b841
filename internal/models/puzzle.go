package models

import "time"

// DateFormat is the canonical encoding of a puzzle's calendar day
const DateFormat = "2006-01-02"

// MaxHints is the maximum number of hints a puzzle may carry
const MaxHints = 5

// Puzzle is the record for one calendar day's character. Immutable once
// committed; it doubles as the all-time ledger of used characters
type Puzzle struct {
	ID         int64
	PuzzleDate string // YYYY-MM-DD
	Answer     string
	Aliases    []string
	Hints      []string
	SourceURLs []string
	ImageURL   string
	CreatedAt  time.Time
}

// HintsCount returns the number of hints this puzzle carries
func (p *Puzzle) HintsCount() int {
	return len(p.Hints)
}

// HasImage reports whether artwork was generated for this puzzle
func (p *Puzzle) HasImage() bool {
	return p.ImageURL != ""
}

// UsedCharacter is an append-only entry recording that a character name has
// been consumed. The normalized name is unique for all time
type UsedCharacter struct {
	ID             int64
	Name           string
	NameNormalized string
	PuzzleDate     string
	CreatedAt      time.Time
}

// PuzzleSummary is the public listing entry for a past puzzle
type PuzzleSummary struct {
	PuzzleDate string
	HasImage   bool
}

// GeneratedCharacter is the record shape returned by the character generator
type GeneratedCharacter struct {
	Answer     string   `json:"answer"`
	Aliases    []string `json:"aliases"`
	Hints      []string `json:"hints"`
	SourceURLs []string `json:"source_urls"`
	ImageURL   string   `json:"-"`
}
