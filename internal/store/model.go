// Package store holds the canonical video records and the per-generation
// subtitle cache, behind interfaces with in-memory, Cassandra, and Redis
// backends.
package store

import "fmt"

// Variety is a categorical tag for the regional form of the language used
// in a video
type Variety string

const (
	// VarietyAll is only valid as a filter value and matches every variety
	VarietyAll Variety = "ALL"
	VarietyUK  Variety = "UK"
	VarietyUS  Variety = "US"
	VarietyAUS Variety = "AUS"
)

// ParseVariety parses a variety value; the empty string parses to VarietyAll
func ParseVariety(s string) (Variety, error) {
	switch Variety(s) {
	case "":
		return VarietyAll, nil
	case VarietyAll, VarietyUK, VarietyUS, VarietyAUS:
		return Variety(s), nil
	}
	return "", fmt.Errorf("unknown variety %q", s)
}

// Video is the canonical video record and the source of truth for the
// search index: the index can always be rebuilt from the full video set.
type Video struct {
	ID              string  `json:"id"`
	ExternalVideoID string  `json:"video_id"`
	Variety         Variety `json:"variety"`
	SRT             string  `json:"srt"`
}

// CacheEntry is one subtitle entry snapshot kept for highlighting lookups
type CacheEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SubtitleCacheRow holds a video's subtitle entries in a lookup-friendly
// form, scoped to one index generation. Rows not belonging to the live
// generation are garbage and are purged after every full reindex.
type SubtitleCacheRow struct {
	Generation      string       `json:"generation"`
	ExternalVideoID string       `json:"video_id"`
	Variety         Variety      `json:"variety"`
	Entries         []CacheEntry `json:"entries"`
}

// VideoFilter filters video searches; zero-valued fields are no-ops, and a
// VarietyAll filter matches every variety
type VideoFilter struct {
	ID              string
	ExternalVideoID string
	Variety         Variety
}

// Matches reports whether the video passes every set filter field
func (f VideoFilter) Matches(v Video) bool {
	if f.ID != "" && v.ID != f.ID {
		return false
	}
	if f.ExternalVideoID != "" && v.ExternalVideoID != f.ExternalVideoID {
		return false
	}
	if f.Variety != "" && f.Variety != VarietyAll && v.Variety != f.Variety {
		return false
	}
	return true
}
