package text

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/speedata/hyphenation"
)

// Hyphenator finds break opportunities inside a word. Opportunities
// returns ascending rune offsets into word at which the word may be
// split (a split at k keeps word[:k] on the line, followed by a
// hyphen). Implementations must be safe for concurrent use.
type Hyphenator interface {
	Opportunities(word []rune) []int
}

// LiangHyphenator hyphenates with Liang patterns (the TeX algorithm).
type LiangHyphenator struct {
	mu   sync.Mutex
	lang *hyphenation.Lang
}

// NewLiangHyphenator loads a pattern file (the standard hyph-*.pat.txt
// TeX pattern format).
func NewLiangHyphenator(patterns io.Reader) (*LiangHyphenator, error) {
	l, err := hyphenation.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("text: load hyphenation patterns: %w", err)
	}
	return &LiangHyphenator{lang: l}, nil
}

// Opportunities implements Hyphenator. Words shorter than four runes
// never hyphenate.
func (h *LiangHyphenator) Opportunities(word []rune) []int {
	if len(word) < 4 {
		return nil
	}
	lower := strings.ToLower(string(word))

	// The pattern matcher keeps positional state per call.
	h.mu.Lock()
	positions := h.lang.Hyphenate(lower)
	h.mu.Unlock()

	out := positions[:0:0]
	for _, p := range positions {
		if p > 0 && p < len(word) {
			out = append(out, p)
		}
	}
	return out
}

// wordAround returns the rune range [start, end) of the letter word
// containing position pos in the logical text, or ok=false when pos is
// not inside a word.
func wordAround(lt *logicalText, pos int) (start, end int, ok bool) {
	if pos < 0 || pos >= len(lt.runes) || !isWordRune(lt.runes[pos]) {
		return 0, 0, false
	}
	start, end = pos, pos+1
	for start > 0 && isWordRune(lt.runes[start-1]) {
		start--
	}
	for end < len(lt.runes) && isWordRune(lt.runes[end]) {
		end++
	}
	return start, end, true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.In(r, unicode.Mn, unicode.Me) || r == runeSHY
}
