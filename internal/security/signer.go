package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// PuzzleSigner issues and verifies integrity tags over a puzzle's public
// fields using HMAC-SHA256. Tags are deterministic for a given secret, so no
// shared state is required, safe for multi-replica deployments. The answer
// never participates in the payload
type PuzzleSigner struct {
	secret []byte
}

// NewPuzzleSigner creates a signer keyed with the given secret
func NewPuzzleSigner(secret string) *PuzzleSigner {
	return &PuzzleSigner{secret: []byte(secret)}
}

// canonicalPayload encodes the signed fields in a fixed, unambiguous order
func canonicalPayload(puzzleDate string, hintsCount int) []byte {
	return []byte(fmt.Sprintf(`{"hints_count":%d,"puzzle_date":%q}`, hintsCount, puzzleDate))
}

// Sign returns the hex-encoded tag binding the puzzle date and hint count
func (s *PuzzleSigner) Sign(puzzleDate string, hintsCount int) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonicalPayload(puzzleDate, hintsCount))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the valid tag for the given fields.
// Comparison is constant time; malformed signatures simply fail
func (s *PuzzleSigner) Verify(puzzleDate string, hintsCount int, signature string) bool {
	if signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonicalPayload(puzzleDate, hintsCount))
	return hmac.Equal(mac.Sum(nil), provided)
}
