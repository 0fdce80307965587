package segment

import (
	"encoding/json"
	"sort"
)

// Range is a half-open interval [Start, End) of character offsets mapped to
// the index of the subtitle entry the characters came from.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Entry int `json:"entry"`
}

// RangeMap is an ordered set of disjoint half-open ranges. It is used to
// trace a character offset in a sentence back to the subtitle entry it came
// from, which is what highlighting is computed from.
type RangeMap struct {
	ranges []Range
}

// NewRangeMap creates an empty RangeMap
func NewRangeMap() *RangeMap {
	return &RangeMap{}
}

// Put appends a range mapping [start, end) to the given entry index. Ranges
// must be appended in increasing offset order and must not overlap. Empty
// ranges are dropped.
func (m *RangeMap) Put(start, end, entry int) {
	if start >= end {
		return
	}
	m.ranges = append(m.ranges, Range{Start: start, End: end, Entry: entry})
}

// Get returns the entry index mapped at the given offset
func (m *RangeMap) Get(offset int) (int, bool) {
	r, ok := m.GetRange(offset)
	if !ok {
		return 0, false
	}
	return r.Entry, true
}

// GetRange returns the range containing the given offset
func (m *RangeMap) GetRange(offset int) (Range, bool) {
	i := sort.Search(len(m.ranges), func(i int) bool {
		return m.ranges[i].End > offset
	})
	if i < len(m.ranges) && m.ranges[i].Start <= offset {
		return m.ranges[i], true
	}
	return Range{}, false
}

// Restrict returns a new RangeMap containing only the parts of the ranges
// that fall within [start, end). Ranges partially overlapping the bounds
// are clipped.
func (m *RangeMap) Restrict(start, end int) *RangeMap {
	restricted := NewRangeMap()
	for _, r := range m.ranges {
		if r.End <= start || r.Start >= end {
			continue
		}
		lower := max(r.Start, start)
		upper := min(r.End, end)
		restricted.Put(lower, upper, r.Entry)
	}
	return restricted
}

// Normalize returns a new RangeMap with every bound shifted down so that
// the first range starts at zero. For example, [36..50) -> 0, [50..72) -> 1
// normalizes to [0..14) -> 0, [14..36) -> 1.
func (m *RangeMap) Normalize() *RangeMap {
	normalized := NewRangeMap()
	if len(m.ranges) == 0 {
		return normalized
	}
	offset := m.ranges[0].Start
	for _, r := range m.ranges {
		normalized.Put(r.Start-offset, r.End-offset, r.Entry)
	}
	return normalized
}

// Len returns the number of ranges
func (m *RangeMap) Len() int {
	return len(m.ranges)
}

// Ranges returns the ranges in offset order
func (m *RangeMap) Ranges() []Range {
	out := make([]Range, len(m.ranges))
	copy(out, m.ranges)
	return out
}

// MarshalJSON encodes the range map as an ordered array of ranges
func (m *RangeMap) MarshalJSON() ([]byte, error) {
	if m.ranges == nil {
		return json.Marshal([]Range{})
	}
	return json.Marshal(m.ranges)
}

// UnmarshalJSON decodes the ordered-array form produced by MarshalJSON
func (m *RangeMap) UnmarshalJSON(data []byte) error {
	var ranges []Range
	if err := json.Unmarshal(data, &ranges); err != nil {
		return err
	}
	m.ranges = ranges
	return nil
}
