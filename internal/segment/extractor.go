package segment

import (
	"strings"

	"go.uber.org/zap"

	"subsearch/internal/subtitle"
)

// Sentence is one sentence extracted from subtitles. Position is the
// character offset of the sentence's first character within its first
// source entry's own text, and RangeMap traces every character of the
// sentence back to the entry it came from.
type Sentence struct {
	Text     string
	Position int
	RangeMap *RangeMap
}

// Extractor extracts sentences from parsed subtitles using a sentence
// boundary detector
type Extractor struct {
	detector Detector
	logger   *zap.Logger
}

// NewExtractor creates a new Extractor with the given detector
func NewExtractor(detector Detector) *Extractor {
	return NewExtractorWithLogger(detector, nil)
}

// NewExtractorWithLogger creates a new Extractor with the given detector and logger
func NewExtractorWithLogger(detector Detector, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{detector: detector, logger: logger}
}

// Extract concatenates the text of all entries into one buffer, detects
// sentence boundaries over it, and maps every detected sentence back to the
// entries it spans. Entries are joined with a single space; an entry's range
// over the buffer includes that joining space. Blank entries contribute no
// text and appear in no range map.
func (e *Extractor) Extract(subs *subtitle.Subtitles) []Sentence {
	var builder strings.Builder

	// character position in the buffer -> subtitle entry index
	entryRanges := NewRangeMap()

	for entryIndex := 0; entryIndex < subs.Len(); entryIndex++ {
		lower := builder.Len()

		entryText := subs.At(entryIndex).Text()
		if strings.TrimSpace(entryText) != "" {
			builder.WriteString(entryText)
			if entryIndex < subs.Len()-1 {
				builder.WriteString(" ")
			}
		}

		entryRanges.Put(lower, builder.Len(), entryIndex)
	}

	buffer := builder.String()
	spans := e.detector.Detect(buffer)

	sentences := make([]Sentence, 0, len(spans))
	for _, span := range spans {
		sentenceText := buffer[span.Start:span.End]

		sentenceRanges := entryRanges.Restrict(span.Start, span.End).Normalize()

		position := 0
		if r, ok := entryRanges.GetRange(span.Start); ok && r.Start < span.Start {
			position = span.Start - r.Start
		}

		sentences = append(sentences, Sentence{
			Text:     sentenceText,
			Position: position,
			RangeMap: sentenceRanges,
		})
	}

	e.logger.Debug("extracted sentences from subtitles",
		zap.Int("entries", subs.Len()),
		zap.Int("sentences", len(sentences)))

	return sentences
}
