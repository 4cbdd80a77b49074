package copywriter

import (
	"strings"
	"unicode"
)

const (
	FormatNewline = "newline"
	// FormatLegacy joins every token and a literal `\n` marker with spaces.
	// Deprecated: kept for clients built against the first API version.
	FormatLegacy = "legacy"

	legacyMarker = `\n`
)

// Formatter interleaves image URLs into generated copy.
type Formatter struct {
	legacy bool
}

func NewFormatter(format string) Formatter {
	return Formatter{legacy: strings.EqualFold(strings.TrimSpace(format), FormatLegacy)}
}

// Format splits text into sentences and spreads urls evenly across the
// sentence boundaries. URL i goes after sentence (i+1)(n+1)/(m+1), kept
// inside [1, n-1] so that nothing follows the last sentence; a single
// sentence gets every URL after it.
func (f Formatter) Format(text string, urls []string) string {
	sentences := SplitSentences(text)
	n, m := len(sentences), len(urls)

	slots := make(map[int][]string, m)
	for i, u := range urls {
		pos := (i + 1) * (n + 1) / (m + 1)
		switch {
		case n > 1:
			pos = min(max(pos, 1), n-1)
		default:
			pos = 1
		}
		slots[pos] = append(slots[pos], u)
	}

	tokens := make([]string, 0, n+m)
	for k, sentence := range sentences {
		tokens = append(tokens, sentence)
		tokens = append(tokens, slots[k+1]...)
	}
	if n == 0 {
		tokens = append(tokens, urls...)
	}

	if !f.legacy {
		return strings.Join(tokens, "\n")
	}
	parts := make([]string, 0, 2*len(tokens))
	for i, token := range tokens {
		if i > 0 {
			parts = append(parts, legacyMarker)
		}
		parts = append(parts, token)
	}
	return strings.Join(parts, " ")
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// SplitSentences breaks text after terminal punctuation that is followed by
// whitespace, and at line breaks. Blank pieces are dropped. Text without any
// break is a single sentence.
func SplitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		current.WriteRune(r)
		if isTerminal(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			flush()
		}
	}
	flush()

	if len(sentences) == 0 {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
	}
	return sentences
}
