// Package indexer orchestrates the video catalog and the full-text search
// index: incremental add, update, and remove of single videos, and the
// single-flight full reindex job with its atomic alias swap.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subsearch/internal/metrics"
	"subsearch/internal/search"
	"subsearch/internal/segment"
	"subsearch/internal/store"
	"subsearch/internal/subtitle"
	"subsearch/internal/text"
)

// Metadata keys stored on every index generation
const (
	metaStartTime  = "startTime"
	metaFinishTime = "finishTime"
)

// Indexer coordinates the video store, the subtitle cache, and the search
// engine. Catalog mutations apply to the live index generation immediately;
// StartIndexing rebuilds a fresh generation from scratch and swaps the alias
// onto it when done.
type Indexer struct {
	videos    store.VideoStore
	cache     store.SubtitleCacheStore
	engine    search.Engine
	bulk      *search.Coordinator
	extractor *segment.Extractor
	logger    *zap.Logger
	metrics   *metrics.Metrics

	// alias is the stable public name of the fragment index; each reindex
	// run creates a new timestamped generation behind it
	alias string

	running atomic.Bool

	mu     sync.RWMutex
	status JobStatus
}

// NewIndexer creates a new Indexer with a no-op logger
func NewIndexer(videos store.VideoStore, cache store.SubtitleCacheStore, engine search.Engine, extractor *segment.Extractor, alias string) *Indexer {
	return NewIndexerWithLogger(videos, cache, engine, extractor, alias, nil)
}

// NewIndexerWithLogger creates a new Indexer with the given logger
func NewIndexerWithLogger(videos store.VideoStore, cache store.SubtitleCacheStore, engine search.Engine, extractor *segment.Extractor, alias string, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		videos:    videos,
		cache:     cache,
		engine:    engine,
		bulk:      search.NewCoordinatorWithLogger(engine, logger),
		extractor: extractor,
		logger:    logger,
		alias:     alias,
		status:    NoJob(),
	}
}

// SetMetrics attaches Prometheus metrics to the indexer and its bulk writer
func (ix *Indexer) SetMetrics(m *metrics.Metrics) {
	ix.metrics = m
	ix.bulk.SetMetrics(m)
}

// Add registers a new video and, when a live index generation exists, indexes
// its sentences into it. The external video ID must not already be in the
// catalog. Returns the assigned video ID.
func (ix *Indexer) Add(ctx context.Context, externalVideoID string, variety store.Variety, srt string) (string, error) {
	if ix.running.Load() {
		return "", ErrIndexingConflict
	}

	// reject malformed subtitles before touching the catalog
	subs, err := subtitle.Parse(srt)
	if err != nil {
		return "", err
	}

	existing, err := ix.videos.FindByExternalID(ctx, externalVideoID)
	if err != nil {
		return "", fmt.Errorf("failed to look up video: %w", err)
	}
	if existing != nil {
		return "", ErrVideoExists
	}

	video := store.Video{ExternalVideoID: externalVideoID, Variety: variety, SRT: srt}
	id, err := ix.videos.Save(ctx, &video)
	if err != nil {
		return "", fmt.Errorf("failed to save video: %w", err)
	}

	generation, live, err := ix.liveGeneration()
	if err != nil {
		return "", err
	}
	if live {
		if err := ix.indexVideo(ctx, generation, video, subs); err != nil {
			return "", err
		}
	}

	ix.logger.Info("video has been added",
		zap.String("id", id),
		zap.String("video_id", externalVideoID))
	return id, nil
}

// Update replaces a video's data and refreshes its sentences in the live
// index generation. Indexed fragments are removed under the video's previous
// external video ID, so renames do not strand stale documents.
func (ix *Indexer) Update(ctx context.Context, id, externalVideoID string, variety store.Variety, srt string) error {
	if ix.running.Load() {
		return ErrIndexingConflict
	}

	subs, err := subtitle.Parse(srt)
	if err != nil {
		return err
	}

	video, err := ix.videos.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up video: %w", err)
	}
	if video == nil {
		return ErrVideoNotFound
	}

	previousExternalID := video.ExternalVideoID

	video.ExternalVideoID = externalVideoID
	video.Variety = variety
	video.SRT = srt
	if _, err := ix.videos.Save(ctx, video); err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}

	generation, live, err := ix.liveGeneration()
	if err != nil {
		return err
	}
	if live {
		if err := ix.removeFromIndex(ctx, generation, previousExternalID); err != nil {
			return err
		}
		if err := ix.indexVideo(ctx, generation, *video, subs); err != nil {
			return err
		}
	}

	ix.logger.Info("video has been updated",
		zap.String("id", id),
		zap.String("video_id", externalVideoID))
	return nil
}

// Remove deletes a video from the catalog along with its indexed sentences
// and cached subtitles. Search-side cleanup runs first so a failure leaves
// the video in the catalog rather than stranding index garbage.
func (ix *Indexer) Remove(ctx context.Context, id string) error {
	if ix.running.Load() {
		return ErrIndexingConflict
	}

	video, err := ix.videos.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up video: %w", err)
	}
	if video == nil {
		return ErrVideoNotFound
	}

	generation, live, err := ix.liveGeneration()
	if err != nil {
		return err
	}
	if live {
		if err := ix.removeFromIndex(ctx, generation, video.ExternalVideoID); err != nil {
			return err
		}
	}

	if err := ix.videos.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	ix.logger.Info("video has been removed",
		zap.String("id", id),
		zap.String("video_id", video.ExternalVideoID))
	return nil
}

// StartIndexing launches a full reindex in the background. Only one job can
// run at a time; a second request while one is in flight is a conflict.
func (ix *Indexer) StartIndexing() error {
	if !ix.running.CompareAndSwap(false, true) {
		return ErrIndexingConflict
	}

	start := time.Now()
	ix.setStatus(RunningJob(start))

	ix.logger.Info("full indexing has been started")
	go ix.runFullIndexing(start)
	return nil
}

// Status reports the current or most recent reindex job. When no job has run
// in this process, the metadata of the live index generation supplies the
// outcome of the last run before a restart. A failed run recorded in this
// process keeps reporting as failed even while an older generation stays
// live behind the alias.
func (ix *Indexer) Status() JobStatus {
	ix.mu.RLock()
	status := ix.status
	ix.mu.RUnlock()

	if status.State != JobNone {
		return status
	}
	return ix.statusFromMetadata()
}

func (ix *Indexer) setStatus(status JobStatus) {
	ix.mu.Lock()
	ix.status = status
	ix.mu.Unlock()
}

// statusFromMetadata reconstructs the last completed run from the timestamps
// stored on the live generation
func (ix *Indexer) statusFromMetadata() JobStatus {
	generation, live, err := ix.liveGeneration()
	if err != nil || !live {
		return NoJob()
	}

	meta, err := ix.engine.GetIndexMetadata(generation)
	if err != nil {
		return NoJob()
	}
	start, err := time.Parse(time.RFC3339Nano, meta[metaStartTime])
	if err != nil {
		return NoJob()
	}
	finish, err := time.Parse(time.RFC3339Nano, meta[metaFinishTime])
	if err != nil {
		return NoJob()
	}
	return CompletedJob(start, finish)
}

// runFullIndexing is the body of the background reindex job. It uses a
// background context so an HTTP client disconnect cannot abort the rebuild
// half way through.
func (ix *Indexer) runFullIndexing(start time.Time) {
	defer ix.running.Store(false)

	if ix.metrics != nil {
		ix.metrics.ReindexRunning.Set(1)
		defer ix.metrics.ReindexRunning.Set(0)
	}

	finish, err := ix.rebuildIndex(context.Background(), start)
	if err != nil {
		ix.setStatus(FailedJob(start, err))
		ix.observeJob("failure", start)
		ix.logger.Error("full indexing has failed", zap.Error(err))
		return
	}

	ix.setStatus(CompletedJob(start, finish))
	ix.observeJob("success", start)
	ix.logger.Info("full indexing has been finished",
		zap.Duration("took", finish.Sub(start)))
}

func (ix *Indexer) observeJob(status string, start time.Time) {
	if ix.metrics == nil {
		return
	}
	ix.metrics.ReindexJobsTotal.WithLabelValues(status).Inc()
	ix.metrics.ReindexDuration.Observe(time.Since(start).Seconds())
}

// rebuildIndex builds a fresh index generation from the full video catalog
// and atomically swaps the alias onto it. The previous generation and its
// cache rows are only removed after the swap, so readers never observe a
// partially built index.
func (ix *Indexer) rebuildIndex(ctx context.Context, start time.Time) (time.Time, error) {
	generation := ix.generateIndexName()

	if err := ix.engine.CreateIndex(generation, FragmentSchema()); err != nil {
		return time.Time{}, fmt.Errorf("failed to create index %q: %w", generation, err)
	}

	videos, err := ix.videos.ListAll(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to list videos: %w", err)
	}

	for _, video := range videos {
		subs, err := subtitle.Parse(video.SRT)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse subtitles of video %q: %w", video.ExternalVideoID, err)
		}
		if err := ix.indexVideo(ctx, generation, video, subs); err != nil {
			return time.Time{}, err
		}
	}

	finish := time.Now()
	if err := ix.engine.SetIndexMetadata(generation, map[string]string{
		metaStartTime:  start.Format(time.RFC3339Nano),
		metaFinishTime: finish.Format(time.RFC3339Nano),
	}); err != nil {
		return time.Time{}, fmt.Errorf("failed to store index metadata: %w", err)
	}

	previous, hadPrevious, err := ix.engine.ResolveAlias(ix.alias)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve alias %q: %w", ix.alias, err)
	}

	if err := ix.engine.PutAlias(generation, ix.alias); err != nil {
		return time.Time{}, fmt.Errorf("failed to move alias %q: %w", ix.alias, err)
	}

	if hadPrevious && previous != generation {
		if err := ix.engine.DeleteIndex(previous); err != nil {
			return time.Time{}, fmt.Errorf("failed to delete old index %q: %w", previous, err)
		}
	}

	if err := ix.cache.PurgeOtherGenerations(ctx, generation); err != nil {
		return time.Time{}, fmt.Errorf("failed to purge subtitle cache: %w", err)
	}

	ix.logger.Info("index generation is live",
		zap.String("index", generation),
		zap.Int("videos", len(videos)))
	return finish, nil
}

func (ix *Indexer) generateIndexName() string {
	return fmt.Sprintf("%s_%d", ix.alias, time.Now().UnixMilli())
}

// liveGeneration resolves the alias to the current index generation
func (ix *Indexer) liveGeneration() (string, bool, error) {
	generation, ok, err := ix.engine.ResolveAlias(ix.alias)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve alias %q: %w", ix.alias, err)
	}
	return generation, ok, nil
}

// indexVideo writes one video's subtitle cache row and sentence fragments
// into the given index generation
func (ix *Indexer) indexVideo(ctx context.Context, generation string, video store.Video, subs *subtitle.Subtitles) error {
	if err := ix.cache.Save(ctx, cacheRow(generation, video, subs)); err != nil {
		return fmt.Errorf("failed to cache subtitles of video %q: %w", video.ExternalVideoID, err)
	}

	docs, err := ix.fragmentDocs(video, subs)
	if err != nil {
		return err
	}
	if err := ix.bulk.Write(ctx, generation, docs); err != nil {
		return fmt.Errorf("failed to index video %q: %w", video.ExternalVideoID, err)
	}

	if ix.metrics != nil {
		ix.metrics.VideosIndexedTotal.Inc()
		ix.metrics.FragmentsIndexedTotal.Add(float64(len(docs)))
	}
	return nil
}

// fragmentDocs extracts the video's sentences and prepares one document per
// sentence. Sound descriptions are masked after extraction; masking preserves
// offsets, so positions and range maps stay valid for the original text.
func (ix *Indexer) fragmentDocs(video store.Video, subs *subtitle.Subtitles) ([]search.Document, error) {
	sentences := ix.extractor.Extract(subs)

	docs := make([]search.Document, 0, len(sentences))
	for _, sentence := range sentences {
		fragment := FragmentDocument{
			ID:              uuid.NewString(),
			ExternalVideoID: video.ExternalVideoID,
			Variety:         video.Variety,
			Sentence:        text.MaskSoundDescriptions(sentence.Text),
			Position:        sentence.Position,
			RangeMap:        sentence.RangeMap,
		}
		fields, err := fragment.Fields()
		if err != nil {
			return nil, fmt.Errorf("failed to build fragment of video %q: %w", video.ExternalVideoID, err)
		}
		docs = append(docs, search.Document{ID: fragment.ID, Fields: fields})
	}
	return docs, nil
}

// removeFromIndex deletes a video's fragments and cached subtitles from the
// given generation
func (ix *Indexer) removeFromIndex(ctx context.Context, generation, externalVideoID string) error {
	if err := ix.engine.DeleteByFieldEquals(ctx, generation, FieldExternalVideoID, externalVideoID); err != nil {
		return fmt.Errorf("failed to delete fragments of video %q: %w", externalVideoID, err)
	}
	if err := ix.cache.Delete(ctx, generation, externalVideoID); err != nil {
		return fmt.Errorf("failed to delete cached subtitles of video %q: %w", externalVideoID, err)
	}
	return nil
}

func cacheRow(generation string, video store.Video, subs *subtitle.Subtitles) *store.SubtitleCacheRow {
	entries := make([]store.CacheEntry, 0, subs.Len())
	for _, entry := range subs.Entries() {
		entries = append(entries, store.CacheEntry{
			Start: entry.TimeFrame.Start,
			End:   entry.TimeFrame.End,
			Text:  entry.Text(),
		})
	}
	return &store.SubtitleCacheRow{
		Generation:      generation,
		ExternalVideoID: video.ExternalVideoID,
		Variety:         video.Variety,
		Entries:         entries,
	}
}
