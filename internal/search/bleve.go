package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"
)

// aliasFileName is the registry of alias assignments inside the root directory
const aliasFileName = "aliases.json"

// metadataKey is the internal key index metadata is stored under
var metadataKey = []byte("subsearch:index_metadata")

// deleteByFieldPageSize bounds how many matches one delete-by-field search
// request returns before the next round
const deleteByFieldPageSize = 1000

// BleveEngine is an Engine backed by embedded Bleve indexes. Every index
// generation lives in its own directory under the root directory; alias
// assignments are persisted in a JSON file rewritten atomically via a
// temp-file rename, which is what makes the alias swap an atomic cutover.
type BleveEngine struct {
	rootDir string
	logger  *zap.Logger

	mu      sync.Mutex
	open    map[string]bleve.Index
	aliases map[string]string
}

// NewBleveEngine creates a BleveEngine rooted at the given directory
func NewBleveEngine(rootDir string) (*BleveEngine, error) {
	return NewBleveEngineWithLogger(rootDir, nil)
}

// NewBleveEngineWithLogger creates a BleveEngine rooted at the given
// directory with the given logger
func NewBleveEngineWithLogger(rootDir string, logger *zap.Logger) (*BleveEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index root directory: %w", err)
	}

	e := &BleveEngine{
		rootDir: rootDir,
		logger:  logger,
		open:    make(map[string]bleve.Index),
		aliases: make(map[string]string),
	}
	if err := e.loadAliases(); err != nil {
		return nil, err
	}
	return e, nil
}

// Close closes every open index
func (e *BleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for name, idx := range e.open {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close index %q: %w", name, err)
		}
		delete(e.open, name)
	}
	return firstErr
}

// IndexExists reports whether the given index or alias exists
func (e *BleveEngine) IndexExists(name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.existsLocked(e.resolveLocked(name)), nil
}

// CreateIndex creates a new index with a strict mapping built from the
// schema. Creating an index that already exists is a no-op.
func (e *BleveEngine) CreateIndex(name string, schema Schema) error {
	if err := validateName(name); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.existsLocked(name) {
		return nil
	}

	indexMapping, err := buildIndexMapping(schema)
	if err != nil {
		return &OperationError{Op: "create index", Err: err}
	}

	idx, err := bleve.New(e.indexPath(name), indexMapping)
	if err != nil {
		return &OperationError{Op: "create index", Err: err}
	}
	e.open[name] = idx
	return nil
}

// DeleteIndex deletes the given index; a missing index is tolerated
func (e *BleveEngine) DeleteIndex(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if idx, ok := e.open[name]; ok {
		if err := idx.Close(); err != nil {
			return &OperationError{Op: "delete index", Err: err}
		}
		delete(e.open, name)
	}

	if err := os.RemoveAll(e.indexPath(name)); err != nil {
		return &OperationError{Op: "delete index", Err: err}
	}

	// drop alias assignments whose target is gone
	changed := false
	for alias, target := range e.aliases {
		if target == name {
			delete(e.aliases, alias)
			changed = true
		}
	}
	if changed {
		return e.saveAliasesLocked()
	}
	return nil
}

// PutAlias points the alias at the given index
func (e *BleveEngine) PutAlias(indexName, aliasName string) error {
	if err := validateName(aliasName); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.existsLocked(indexName) {
		return &OperationError{Op: "put alias", Err: fmt.Errorf("index %q does not exist", indexName)}
	}
	e.aliases[aliasName] = indexName
	return e.saveAliasesLocked()
}

// ResolveAlias returns the index the alias points at, if any
func (e *BleveEngine) ResolveAlias(aliasName string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, ok := e.aliases[aliasName]
	if !ok || !e.existsLocked(target) {
		return "", false, nil
	}
	return target, true, nil
}

// BulkWrite indexes the given documents in one batch
func (e *BleveEngine) BulkWrite(ctx context.Context, indexName string, docs []Document) (*BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &OperationError{Op: "bulk write", Err: err}
	}

	idx, err := e.openIndex(indexName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	batch := idx.NewBatch()
	var failures []DocumentFailure
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc.Fields); err != nil {
			failures = append(failures, DocumentFailure{ID: doc.ID, Reason: err.Error()})
		}
	}

	if err := idx.Batch(batch); err != nil {
		return nil, &OperationError{Op: "bulk write", Err: err}
	}

	return &BulkResult{
		Indexed:  len(docs) - len(failures),
		Took:     time.Since(start),
		Failures: failures,
	}, nil
}

// DeleteByFieldEquals deletes every document whose field has the given
// value; an absent index is a no-op
func (e *BleveEngine) DeleteByFieldEquals(ctx context.Context, indexName, field, value string) error {
	e.mu.Lock()
	resolved := e.resolveLocked(indexName)
	exists := e.existsLocked(resolved)
	e.mu.Unlock()
	if !exists {
		return nil
	}

	idx, err := e.openIndex(indexName)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return &OperationError{Op: "delete by field", Err: err}
		}

		q := bleve.NewTermQuery(value)
		q.SetField(field)
		req := bleve.NewSearchRequestOptions(q, deleteByFieldPageSize, 0, false)

		res, err := idx.Search(req)
		if err != nil {
			return &OperationError{Op: "delete by field", Err: err}
		}
		if len(res.Hits) == 0 {
			return nil
		}

		batch := idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := idx.Batch(batch); err != nil {
			return &OperationError{Op: "delete by field", Err: err}
		}
	}
}

// GetIndexMetadata returns the metadata stored on the index; the map is
// empty when the index is absent or carries none
func (e *BleveEngine) GetIndexMetadata(indexName string) (map[string]string, error) {
	e.mu.Lock()
	resolved := e.resolveLocked(indexName)
	exists := e.existsLocked(resolved)
	e.mu.Unlock()
	if !exists {
		return map[string]string{}, nil
	}

	idx, err := e.openIndex(indexName)
	if err != nil {
		return nil, err
	}

	raw, err := idx.GetInternal(metadataKey)
	if err != nil {
		return nil, &OperationError{Op: "get index metadata", Err: err}
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	metadata := map[string]string{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, &OperationError{Op: "get index metadata", Err: err}
	}
	return metadata, nil
}

// SetIndexMetadata stores the given metadata on the index
func (e *BleveEngine) SetIndexMetadata(indexName string, metadata map[string]string) error {
	idx, err := e.openIndex(indexName)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return &OperationError{Op: "set index metadata", Err: err}
	}
	if err := idx.SetInternal(metadataKey, raw); err != nil {
		return &OperationError{Op: "set index metadata", Err: err}
	}
	return nil
}

// openIndex resolves aliases and returns an open handle for the index
func (e *BleveEngine) openIndex(name string) (bleve.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	resolved := e.resolveLocked(name)
	if idx, ok := e.open[resolved]; ok {
		return idx, nil
	}
	if !e.existsLocked(resolved) {
		return nil, &OperationError{Op: "open index", Err: fmt.Errorf("index %q does not exist", name)}
	}

	idx, err := bleve.Open(e.indexPath(resolved))
	if err != nil {
		return nil, &OperationError{Op: "open index", Err: err}
	}
	e.open[resolved] = idx
	return idx, nil
}

func (e *BleveEngine) resolveLocked(name string) string {
	if target, ok := e.aliases[name]; ok {
		return target
	}
	return name
}

func (e *BleveEngine) existsLocked(name string) bool {
	if _, ok := e.open[name]; ok {
		return true
	}
	info, err := os.Stat(e.indexPath(name))
	return err == nil && info.IsDir()
}

func (e *BleveEngine) indexPath(name string) string {
	return filepath.Join(e.rootDir, name)
}

func (e *BleveEngine) loadAliases() error {
	raw, err := os.ReadFile(filepath.Join(e.rootDir, aliasFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read alias registry: %w", err)
	}
	if err := json.Unmarshal(raw, &e.aliases); err != nil {
		return fmt.Errorf("failed to parse alias registry: %w", err)
	}
	return nil
}

func (e *BleveEngine) saveAliasesLocked() error {
	raw, err := json.Marshal(e.aliases)
	if err != nil {
		return &OperationError{Op: "save alias registry", Err: err}
	}

	target := filepath.Join(e.rootDir, aliasFileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return &OperationError{Op: "save alias registry", Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		return &OperationError{Op: "save alias registry", Err: err}
	}
	return nil
}

// validateName rejects names that would escape the root directory
func validateName(name string) error {
	if name == "" || name == aliasFileName ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return &OperationError{Op: "validate name", Err: fmt.Errorf("invalid index name %q", name)}
	}
	return nil
}

// buildIndexMapping converts a Schema into a strict Bleve index mapping
func buildIndexMapping(schema Schema) (mapping.IndexMapping, error) {
	doc := bleve.NewDocumentStaticMapping()

	for _, field := range schema.Fields {
		var fm *mapping.FieldMapping
		switch field.Type {
		case FieldKeyword:
			fm = bleve.NewKeywordFieldMapping()
		case FieldText:
			fm = bleve.NewTextFieldMapping()
		case FieldInteger:
			fm = bleve.NewNumericFieldMapping()
		case FieldStoredObject:
			fm = bleve.NewTextFieldMapping()
			fm.Index = false
			fm.Store = true
			fm.IncludeInAll = false
		default:
			return nil, fmt.Errorf("unsupported field type %d for field %q", field.Type, field.Name)
		}
		doc.AddFieldMappingsAt(field.Name, fm)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	indexMapping.StoreDynamic = false
	indexMapping.IndexDynamic = false
	return indexMapping, nil
}
