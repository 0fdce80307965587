package indexer

import (
	"encoding/json"
	"fmt"

	"subsearch/internal/search"
	"subsearch/internal/segment"
	"subsearch/internal/store"
)

// Field names of the video fragment documents in the search index
const (
	FieldExternalVideoID  = "external_video_id"
	FieldVariety          = "variety"
	FieldSentence         = "sentence"
	FieldSentencePosition = "sentence_position"
	FieldSentenceRangeMap = "sentence_range_map"
)

// FragmentDocument is one sentence of one video prepared for indexing
type FragmentDocument struct {
	ID              string
	ExternalVideoID string
	Variety         store.Variety
	Sentence        string
	Position        int
	RangeMap        *segment.RangeMap
}

// Fields flattens the fragment into named field values. The range map is
// stored as a JSON string so it rides along with the document without being
// analyzed or searched.
func (d FragmentDocument) Fields() (map[string]any, error) {
	rangeMapJSON, err := json.Marshal(d.RangeMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode range map: %w", err)
	}
	return map[string]any{
		FieldExternalVideoID:  d.ExternalVideoID,
		FieldVariety:          string(d.Variety),
		FieldSentence:         d.Sentence,
		FieldSentencePosition: d.Position,
		FieldSentenceRangeMap: string(rangeMapJSON),
	}, nil
}

// FragmentSchema is the strict schema of the video fragment index
func FragmentSchema() search.Schema {
	return search.Schema{Fields: []search.Field{
		{Name: FieldExternalVideoID, Type: search.FieldKeyword},
		{Name: FieldVariety, Type: search.FieldKeyword},
		{Name: FieldSentence, Type: search.FieldText},
		{Name: FieldSentencePosition, Type: search.FieldInteger},
		{Name: FieldSentenceRangeMap, Type: search.FieldStoredObject},
	}}
}
