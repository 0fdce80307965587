package subtitle

import (
	"fmt"
	"strings"
)

// TimeFrame holds the start and end of a subtitle entry in fractional seconds
type TimeFrame struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Validate checks if the TimeFrame has valid values
func (tf TimeFrame) Validate() error {
	if tf.Start < 0 {
		return fmt.Errorf("start time cannot be negative")
	}
	if tf.End < tf.Start {
		return fmt.Errorf("end time must not be before start time")
	}
	return nil
}

// Entry represents a single timed caption block parsed from SRT input
type Entry struct {
	ID        int       `json:"id"`
	TimeFrame TimeFrame `json:"time_frame"`
	Lines     []string  `json:"lines"`
}

// Text joins the entry's caption lines with a single space
func (e Entry) Text() string {
	return strings.Join(e.Lines, " ")
}

// Subtitles is a finite, re-iterable sequence of parsed SRT entries
type Subtitles struct {
	entries []Entry
}

// Len returns the number of entries
func (s *Subtitles) Len() int {
	return len(s.entries)
}

// At returns the entry at the given position in parse order
func (s *Subtitles) At(i int) Entry {
	return s.entries[i]
}

// Entries returns a copy of the parsed entries in order
func (s *Subtitles) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
