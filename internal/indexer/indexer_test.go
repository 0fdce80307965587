package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsearch/internal/search"
	"subsearch/internal/segment"
	"subsearch/internal/store"
	"subsearch/internal/subtitle"
)

const testSRT = "1\n" +
	"00:00:01,000 --> 00:00:03,000\n" +
	"Hello there.\n" +
	"\n" +
	"2\n" +
	"00:00:03,000 --> 00:00:06,600\n" +
	"How are you\n" +
	"doing today?\n"

// fakeEngine is an in-memory search.Engine used to observe the indexer's
// engine calls
type fakeEngine struct {
	mu       sync.Mutex
	indexes  map[string]map[string]search.Document
	aliases  map[string]string
	metadata map[string]map[string]string

	// createGate, when set, blocks CreateIndex until the channel is closed
	createGate chan struct{}
	bulkErr    error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		indexes:  make(map[string]map[string]search.Document),
		aliases:  make(map[string]string),
		metadata: make(map[string]map[string]string),
	}
}

func (e *fakeEngine) resolve(name string) string {
	if target, ok := e.aliases[name]; ok {
		return target
	}
	return name
}

func (e *fakeEngine) IndexExists(name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.indexes[e.resolve(name)]
	return ok, nil
}

func (e *fakeEngine) CreateIndex(name string, _ search.Schema) error {
	if e.createGate != nil {
		<-e.createGate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indexes[name]; !ok {
		e.indexes[name] = make(map[string]search.Document)
	}
	return nil
}

func (e *fakeEngine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.indexes, name)
	delete(e.metadata, name)
	for alias, target := range e.aliases {
		if target == name {
			delete(e.aliases, alias)
		}
	}
	return nil
}

func (e *fakeEngine) PutAlias(indexName, aliasName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aliases[aliasName] = indexName
	return nil
}

func (e *fakeEngine) ResolveAlias(aliasName string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	target, ok := e.aliases[aliasName]
	return target, ok, nil
}

func (e *fakeEngine) BulkWrite(_ context.Context, indexName string, docs []search.Document) (*search.BulkResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bulkErr != nil {
		return nil, e.bulkErr
	}
	idx, ok := e.indexes[e.resolve(indexName)]
	if !ok {
		return nil, &search.OperationError{Op: "bulk write", Err: assert.AnError}
	}
	for _, doc := range docs {
		idx[doc.ID] = doc
	}
	return &search.BulkResult{Indexed: len(docs)}, nil
}

func (e *fakeEngine) DeleteByFieldEquals(_ context.Context, indexName, field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.indexes[e.resolve(indexName)]
	if !ok {
		return nil
	}
	for id, doc := range idx {
		if doc.Fields[field] == value {
			delete(idx, id)
		}
	}
	return nil
}

func (e *fakeEngine) GetIndexMetadata(indexName string) (map[string]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	meta, ok := e.metadata[e.resolve(indexName)]
	if !ok {
		return map[string]string{}, nil
	}
	return meta, nil
}

func (e *fakeEngine) SetIndexMetadata(indexName string, metadata map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metadata[e.resolve(indexName)] = metadata
	return nil
}

// countByVideo returns how many fragments the named index holds per video
func (e *fakeEngine) countByVideo(indexName string) map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	counts := make(map[string]int)
	for _, doc := range e.indexes[e.resolve(indexName)] {
		counts[doc.Fields[FieldExternalVideoID].(string)]++
	}
	return counts
}

func (e *fakeEngine) indexNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	return names
}

type fixture struct {
	engine *fakeEngine
	videos *store.MemoryVideoStore
	cache  *store.MemoryCacheStore
	ix     *Indexer
}

func newFixture() *fixture {
	engine := newFakeEngine()
	videos := store.NewMemoryVideoStore()
	cache := store.NewMemoryCacheStore()
	extractor := segment.NewExtractor(segment.NewRuleDetector())
	return &fixture{
		engine: engine,
		videos: videos,
		cache:  cache,
		ix:     NewIndexer(videos, cache, engine, extractor, "videos"),
	}
}

func waitForJob(t *testing.T, ix *Indexer) JobStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		return !ix.running.Load() && ix.Status().State != JobRunning
	}, 5*time.Second, 5*time.Millisecond)
	return ix.Status()
}

func TestIndexerAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("should store the video without indexing before the first reindex", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act
		id, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		video, err := f.videos.FindByExternalID(ctx, "vid-1")
		require.NoError(t, err)
		require.NotNil(t, video)
		assert.Empty(t, f.engine.indexNames())
		assert.Equal(t, 0, f.cache.Len())
	})

	t.Run("should index into the live generation after a reindex", func(t *testing.T) {
		// Arrange
		f := newFixture()
		require.NoError(t, f.ix.StartIndexing())
		waitForJob(t, f.ix)

		// Act
		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)

		// Assert
		require.NoError(t, err)
		counts := f.engine.countByVideo("videos")
		assert.Equal(t, 2, counts["vid-1"])

		generation, ok, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)
		require.True(t, ok)
		row := f.cache.Get(generation, "vid-1")
		require.NotNil(t, row)
		assert.Len(t, row.Entries, 2)
		assert.Equal(t, "Hello there.", row.Entries[0].Text)
	})

	t.Run("should reject a duplicate external video ID", func(t *testing.T) {
		// Arrange
		f := newFixture()
		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		require.NoError(t, err)

		// Act
		_, err = f.ix.Add(ctx, "vid-1", store.VarietyUS, testSRT)

		// Assert
		assert.ErrorIs(t, err, ErrVideoExists)
	})

	t.Run("should reject malformed subtitles without touching the catalog", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act
		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, "not srt at all")

		// Assert
		var parseErr *subtitle.ParseError
		require.ErrorAs(t, err, &parseErr)

		video, findErr := f.videos.FindByExternalID(ctx, "vid-1")
		require.NoError(t, findErr)
		assert.Nil(t, video)
	})
}

func TestIndexerUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("should fail for an unknown video ID", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act
		err := f.ix.Update(ctx, "no-such-id", "vid-1", store.VarietyUK, testSRT)

		// Assert
		assert.ErrorIs(t, err, ErrVideoNotFound)
	})

	t.Run("should reindex fragments under the new external video ID", func(t *testing.T) {
		// Arrange
		f := newFixture()
		require.NoError(t, f.ix.StartIndexing())
		waitForJob(t, f.ix)
		id, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		require.NoError(t, err)

		// Act: rename the video while updating it
		err = f.ix.Update(ctx, id, "vid-1-renamed", store.VarietyUS, testSRT)

		// Assert
		require.NoError(t, err)
		counts := f.engine.countByVideo("videos")
		assert.Equal(t, 0, counts["vid-1"])
		assert.Equal(t, 2, counts["vid-1-renamed"])

		generation, _, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)
		assert.Nil(t, f.cache.Get(generation, "vid-1"))
		assert.NotNil(t, f.cache.Get(generation, "vid-1-renamed"))
	})
}

func TestIndexerRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("should fail for an unknown video ID", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act & Assert
		assert.ErrorIs(t, f.ix.Remove(ctx, "no-such-id"), ErrVideoNotFound)
	})

	t.Run("should remove the video, its fragments, and its cache row", func(t *testing.T) {
		// Arrange
		f := newFixture()
		require.NoError(t, f.ix.StartIndexing())
		waitForJob(t, f.ix)
		id, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		require.NoError(t, err)

		// Act
		err = f.ix.Remove(ctx, id)

		// Assert
		require.NoError(t, err)
		counts := f.engine.countByVideo("videos")
		assert.Equal(t, 0, counts["vid-1"])
		assert.Equal(t, 0, f.cache.Len())

		video, err := f.videos.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, video)
	})
}

func TestIndexerFullIndexing(t *testing.T) {
	ctx := context.Background()

	t.Run("should build a generation from the catalog and swap the alias", func(t *testing.T) {
		// Arrange
		f := newFixture()
		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		require.NoError(t, err)
		_, err = f.ix.Add(ctx, "vid-2", store.VarietyUS, testSRT)
		require.NoError(t, err)

		// Act
		require.NoError(t, f.ix.StartIndexing())
		status := waitForJob(t, f.ix)

		// Assert
		assert.Equal(t, JobCompleted, status.State)
		require.NotNil(t, status.StartTime)
		require.NotNil(t, status.FinishTime)
		assert.False(t, status.FinishTime.Before(*status.StartTime))

		generation, ok, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, generation, "videos_")

		counts := f.engine.countByVideo("videos")
		assert.Equal(t, 2, counts["vid-1"])
		assert.Equal(t, 2, counts["vid-2"])
		assert.Equal(t, 2, f.cache.Len())

		meta, err := f.engine.GetIndexMetadata(generation)
		require.NoError(t, err)
		assert.NotEmpty(t, meta["startTime"])
		assert.NotEmpty(t, meta["finishTime"])
	})

	t.Run("should replace the previous generation and purge its cache rows", func(t *testing.T) {
		// Arrange
		f := newFixture()
		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		require.NoError(t, err)
		require.NoError(t, f.ix.StartIndexing())
		waitForJob(t, f.ix)
		first, _, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)

		// generation names are timestamped to the millisecond
		time.Sleep(2 * time.Millisecond)

		// Act
		require.NoError(t, f.ix.StartIndexing())
		status := waitForJob(t, f.ix)

		// Assert
		require.Equal(t, JobCompleted, status.State)
		second, ok, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEqual(t, first, second)
		assert.Equal(t, []string{second}, f.engine.indexNames())

		assert.Equal(t, 1, f.cache.Len())
		assert.NotNil(t, f.cache.Get(second, "vid-1"))
	})

	t.Run("should reject concurrent jobs and mutations while running", func(t *testing.T) {
		// Arrange
		f := newFixture()
		f.engine.createGate = make(chan struct{})
		require.NoError(t, f.ix.StartIndexing())

		// Act & Assert: the first job is parked inside CreateIndex
		assert.ErrorIs(t, f.ix.StartIndexing(), ErrIndexingConflict)

		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		assert.ErrorIs(t, err, ErrIndexingConflict)
		assert.ErrorIs(t, f.ix.Update(ctx, "id", "vid-1", store.VarietyUK, testSRT), ErrIndexingConflict)
		assert.ErrorIs(t, f.ix.Remove(ctx, "id"), ErrIndexingConflict)
		assert.Equal(t, JobRunning, f.ix.Status().State)

		// release the job and let it finish
		close(f.engine.createGate)
		status := waitForJob(t, f.ix)
		assert.Equal(t, JobCompleted, status.State)
	})

	t.Run("should report a failed job and leave the alias untouched", func(t *testing.T) {
		// Arrange
		f := newFixture()
		_, err := f.ix.Add(ctx, "vid-1", store.VarietyUK, testSRT)
		require.NoError(t, err)
		require.NoError(t, f.ix.StartIndexing())
		waitForJob(t, f.ix)
		first, _, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)
		f.engine.bulkErr = assert.AnError

		// Act
		require.NoError(t, f.ix.StartIndexing())
		status := waitForJob(t, f.ix)

		// Assert
		assert.Equal(t, JobFailed, status.State)
		assert.NotEmpty(t, status.Error)

		target, ok, err := f.engine.ResolveAlias("videos")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first, target)
	})
}

func TestIndexerStatus(t *testing.T) {
	t.Run("should report no job before any run", func(t *testing.T) {
		// Arrange
		f := newFixture()

		// Act & Assert
		assert.Equal(t, JobNone, f.ix.Status().State)
	})

	t.Run("should recover the last run from index metadata after a restart", func(t *testing.T) {
		// Arrange: one indexer completes a run, a second one starts fresh
		// against the same engine
		f := newFixture()
		require.NoError(t, f.ix.StartIndexing())
		waitForJob(t, f.ix)

		restarted := NewIndexer(f.videos, f.cache, f.engine, segment.NewExtractor(segment.NewRuleDetector()), "videos")

		// Act
		status := restarted.Status()

		// Assert
		assert.Equal(t, JobCompleted, status.State)
		require.NotNil(t, status.StartTime)
		require.NotNil(t, status.FinishTime)
	})
}
