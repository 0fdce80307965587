package segment

import (
	"strings"
	"unicode"
)

// Span marks one detected sentence as a half-open range of character offsets
type Span struct {
	Start int
	End   int
}

// Detector analyses text and splits it into an ordered list of
// non-overlapping sentence spans
type Detector interface {
	Detect(text string) []Span
}

// DetectorFunc adapts a plain function to the Detector interface
type DetectorFunc func(text string) []Span

// Detect calls f
func (f DetectorFunc) Detect(text string) []Span { return f(text) }

// RuleDetector is a rule-based sentence boundary detector. A sentence ends
// at a run of terminator characters, together with any closing quotes or
// brackets attached to it, when the text that follows starts a new sentence.
// A statistical model can be substituted through the Detector interface.
type RuleDetector struct{}

// NewRuleDetector creates a new RuleDetector
func NewRuleDetector() *RuleDetector {
	return &RuleDetector{}
}

// abbreviations that end with a period without ending the sentence
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {},
	"sr": {}, "jr": {}, "st": {}, "vs": {},
}

// Detect returns the sentence spans of the given text in order. Span
// offsets are byte offsets into the text; leading and trailing whitespace
// is excluded from every span.
func (d *RuleDetector) Detect(text string) []Span {
	runes := []rune(text)
	// byte offset of every rune, plus the end of the text
	offs := make([]int, len(runes)+1)
	idx := 0
	for pos := range text {
		offs[idx] = pos
		idx++
	}
	offs[len(runes)] = len(text)

	var spans []Span
	start := nextNonSpace(runes, 0)
	i := start
	for i < len(runes) {
		if !isTerminator(runes[i]) {
			i++
			continue
		}

		runStart := i
		runEnd := i
		for runEnd < len(runes) && isTerminator(runes[runEnd]) {
			runEnd++
		}
		closeEnd := runEnd
		for closeEnd < len(runes) && isClosing(runes[closeEnd]) {
			closeEnd++
		}

		// a terminator embedded in a token, e.g. "example.com"
		if closeEnd < len(runes) && !unicode.IsSpace(runes[closeEnd]) {
			i = closeEnd
			continue
		}

		next := nextNonSpace(runes, closeEnd)
		if next < len(runes) && !isBoundary(runes, runStart, runEnd, next) {
			i = closeEnd
			continue
		}

		spans = append(spans, Span{Start: offs[start], End: offs[closeEnd]})
		start = next
		i = next
	}

	// trailing text without a terminator
	if start < len(runes) {
		end := len(runes)
		for end > start && unicode.IsSpace(runes[end-1]) {
			end--
		}
		if end > start {
			spans = append(spans, Span{Start: offs[start], End: offs[end]})
		}
	}

	return spans
}

// isBoundary reports whether the text following a terminator run starts a
// new sentence
func isBoundary(runes []rune, runStart, runEnd, next int) bool {
	if runEnd-runStart == 1 && runes[runStart] == '.' && isAbbreviation(runes, runStart) {
		return false
	}

	j := next
	if isOpeningQuote(runes[j]) {
		for j < len(runes) && isOpeningQuote(runes[j]) {
			j++
		}
		if j >= len(runes) {
			return false
		}
		// a quoted continuation such as `"...it won't be with me."`
		// does not start a new sentence
		return unicode.IsUpper(runes[j]) || unicode.IsDigit(runes[j])
	}
	// an unquoted ellipsis start ("...is that you?") still begins a sentence
	return unicode.IsUpper(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '.'
}

// isAbbreviation reports whether the token preceding the period at pos is a
// known abbreviation or a single-letter initialism (as in "U.K.")
func isAbbreviation(runes []rune, pos int) bool {
	tokenEnd := pos
	tokenStart := pos
	for tokenStart > 0 && unicode.IsLetter(runes[tokenStart-1]) {
		tokenStart--
	}
	if tokenStart == tokenEnd {
		return false
	}
	if tokenEnd-tokenStart == 1 && tokenStart > 0 && runes[tokenStart-1] == '.' {
		return true
	}
	_, ok := abbreviations[strings.ToLower(string(runes[tokenStart:tokenEnd]))]
	return ok
}

func nextNonSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}

func isOpeningQuote(r rune) bool {
	switch r {
	case '"', '“', '\'', '‘', '«':
		return true
	}
	return false
}
