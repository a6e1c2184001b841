package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxEditDistance caps typo tolerance so long answers never accept wildly
// different guesses
const maxEditDistance = 3

// stripMarks removes diacritics so "Napoléon" and "Napoleon" compare equal
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds a name into its canonical comparison form: lowercase,
// diacritics stripped, name punctuation dropped, hyphens treated as spaces,
// whitespace collapsed
func Normalize(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '-' || r == '_':
			b.WriteRune(' ')
		case r == '.' || r == ',' || r == '\'' || r == '’' || r == '"':
			// punctuation not meaningful to names
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Matches reports whether a free-text guess denotes the answer, comparing
// the normalized guess against the normalized answer and every alias.
// Exact matches win immediately; otherwise a Levenshtein distance within
// threshold(candidate) counts as a tolerated typo
func Matches(guess, answer string, aliases []string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}

	candidates := make([]string, 0, len(aliases)+1)
	candidates = append(candidates, Normalize(answer))
	for _, a := range aliases {
		candidates = append(candidates, Normalize(a))
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if g == c {
			return true
		}
		if levenshtein(g, c) <= threshold(c) {
			return true
		}
	}

	return false
}

// threshold scales typo tolerance with candidate length: one edit per six
// characters, at least one, never more than maxEditDistance
func threshold(candidate string) int {
	t := len([]rune(candidate)) / 6
	if t < 1 {
		t = 1
	}
	if t > maxEditDistance {
		t = maxEditDistance
	}
	return t
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming form
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
