package parse

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Lie names reported for the ball position.
const (
	LieRough   = "Rough"
	LieFairway = "Fairway"
	LieGreen   = "Green"
	LieBunker  = "Bunker"
	LieTee     = "Tee"
)

type lieWord struct {
	word string
	lie  string
}

// Searched in this order; "sand" is reported as a bunker lie.
var defaultLies = []lieWord{
	{"rough", LieRough},
	{"fairway", LieFairway},
	{"green", LieGreen},
	{"bunker", LieBunker},
	{"sand", LieBunker},
	{"tee", LieTee},
}

// LieMatcher recognises the ball lie in screen text.
//
// An exact case-insensitive substring hit always wins. When none is found,
// longer tokens are compared with Jaro-Winkler similarity so a misread such
// as "Fairwey" still resolves.
type LieMatcher struct {
	words     []lieWord
	minScore  float64
	minLength int
}

// NewLieMatcher returns a matcher with the default vocabulary.
func NewLieMatcher() *LieMatcher {
	return &LieMatcher{words: defaultLies, minScore: 0.92, minLength: 5}
}

// Match returns the lie found in text, or "" if there is none.
func (m *LieMatcher) Match(text string) string {
	if m == nil || text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, w := range m.words {
		if strings.Contains(lower, w.word) {
			return w.lie
		}
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	best, bestScore := "", 0.0
	for _, tok := range tokens {
		if len([]rune(tok)) < m.minLength {
			continue
		}
		for _, w := range m.words {
			if len(w.word) < m.minLength {
				continue
			}
			score := matchr.JaroWinkler(tok, w.word, false)
			if score >= m.minScore && score > bestScore {
				best, bestScore = w.lie, score
			}
		}
	}
	return best
}
