package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryVideoStore is a mutex-guarded in-memory VideoStore. It is the
// default backend and the test double.
type MemoryVideoStore struct {
	mu     sync.RWMutex
	videos map[string]Video
	order  []string
}

// NewMemoryVideoStore creates an empty MemoryVideoStore
func NewMemoryVideoStore() *MemoryVideoStore {
	return &MemoryVideoStore{videos: make(map[string]Video)}
}

// Save inserts or updates a video and returns its ID
func (s *MemoryVideoStore) Save(_ context.Context, video *Video) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if _, ok := s.videos[video.ID]; !ok {
		s.order = append(s.order, video.ID)
	}
	s.videos[video.ID] = *video
	return video.ID, nil
}

// FindByID returns the video with the given ID, or nil
func (s *MemoryVideoStore) FindByID(_ context.Context, id string) (*Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if video, ok := s.videos[id]; ok {
		return &video, nil
	}
	return nil, nil
}

// FindByExternalID returns the video with the given external ID, or nil
func (s *MemoryVideoStore) FindByExternalID(_ context.Context, externalVideoID string) (*Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if video := s.videos[id]; video.ExternalVideoID == externalVideoID {
			return &video, nil
		}
	}
	return nil, nil
}

// ListAll returns every video in insertion order
func (s *MemoryVideoStore) ListAll(_ context.Context) ([]Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]Video, 0, len(s.order))
	for _, id := range s.order {
		videos = append(videos, s.videos[id])
	}
	return videos, nil
}

// Search returns one page of matching videos and the total match count
func (s *MemoryVideoStore) Search(_ context.Context, filter VideoFilter, page, size int) ([]Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Video
	for _, id := range s.order {
		if video := s.videos[id]; filter.Matches(video) {
			matched = append(matched, video)
		}
	}
	return paginate(matched, page, size), len(matched), nil
}

// Delete removes a video by ID
func (s *MemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return nil
	}
	delete(s.videos, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// paginate slices one page out of the matched videos
func paginate(videos []Video, page, size int) []Video {
	if size <= 0 {
		return videos
	}
	if page < 0 {
		page = 0
	}
	from := page * size
	if from >= len(videos) {
		return []Video{}
	}
	to := min(from+size, len(videos))
	return videos[from:to]
}

// MemoryCacheStore is a mutex-guarded in-memory SubtitleCacheStore
type MemoryCacheStore struct {
	mu   sync.RWMutex
	rows map[string]SubtitleCacheRow
}

// NewMemoryCacheStore creates an empty MemoryCacheStore
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{rows: make(map[string]SubtitleCacheRow)}
}

// Save stores a cache row keyed by generation and external video ID
func (s *MemoryCacheStore) Save(_ context.Context, row *SubtitleCacheRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[cacheKey(row.Generation, row.ExternalVideoID)] = *row
	return nil
}

// Delete removes one cache row
func (s *MemoryCacheStore) Delete(_ context.Context, generation, externalVideoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, cacheKey(generation, externalVideoID))
	return nil
}

// PurgeOtherGenerations removes every row not tagged with the generation
func (s *MemoryCacheStore) PurgeOtherGenerations(_ context.Context, generation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, row := range s.rows {
		if row.Generation != generation {
			delete(s.rows, key)
		}
	}
	return nil
}

// Get returns one cache row, or nil when absent
func (s *MemoryCacheStore) Get(generation, externalVideoID string) *SubtitleCacheRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row, ok := s.rows[cacheKey(generation, externalVideoID)]; ok {
		return &row
	}
	return nil
}

// Len returns the number of cache rows
func (s *MemoryCacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func cacheKey(generation, externalVideoID string) string {
	return strings.Join([]string{generation, externalVideoID}, "/")
}
