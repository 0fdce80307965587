// Package search contains the write-side abstraction over the search engine
// together with its embedded Bleve implementation and the bulk write
// coordinator.
package search

import (
	"context"
	"time"
)

// FieldType enumerates the field types an index schema can declare
type FieldType int

const (
	// FieldKeyword is an exact-match, non-analyzed string field
	FieldKeyword FieldType = iota
	// FieldText is an analyzed full-text field
	FieldText
	// FieldInteger is a numeric field
	FieldInteger
	// FieldStoredObject is stored with the document but not indexed
	FieldStoredObject
)

// Field describes one field of an index schema
type Field struct {
	Name string
	Type FieldType
}

// Schema describes a strict index schema: only the declared fields are
// accepted, nothing is mapped dynamically
type Schema struct {
	Fields []Field
}

// Document pairs a document ID with its named field values
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentFailure describes one document that a bulk write rejected
type DocumentFailure struct {
	ID     string
	Reason string
}

// BulkResult reports the outcome of one bulk write request
type BulkResult struct {
	Indexed  int
	Took     time.Duration
	Failures []DocumentFailure
}

// Engine is the contract with the search engine used by the indexing
// pipeline: index lifecycle, alias management, bulk writes, and per-index
// metadata.
type Engine interface {
	// IndexExists reports whether the given index or alias exists
	IndexExists(name string) (bool, error)

	// CreateIndex creates a new index with the given strict schema.
	// Creating an index that already exists is a no-op.
	CreateIndex(name string, schema Schema) error

	// DeleteIndex deletes the given index. Deleting an absent index is
	// not an error.
	DeleteIndex(name string) error

	// PutAlias atomically points the alias at the given index
	PutAlias(indexName, aliasName string) error

	// ResolveAlias returns the index the alias points at, if any
	ResolveAlias(aliasName string) (string, bool, error)

	// BulkWrite indexes the given documents in one request and reports
	// per-document failures
	BulkWrite(ctx context.Context, indexName string, docs []Document) (*BulkResult, error)

	// DeleteByFieldEquals deletes every document whose field has the given
	// value. Deleting against an absent index is a no-op.
	DeleteByFieldEquals(ctx context.Context, indexName, field, value string) error

	// GetIndexMetadata returns the metadata stored on the index; the map is
	// empty when the index is absent or carries no metadata
	GetIndexMetadata(indexName string) (map[string]string, error)

	// SetIndexMetadata stores the given metadata on the index
	SetIndexMetadata(indexName string, metadata map[string]string) error
}
