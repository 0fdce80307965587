package store

import "context"

// VideoStore persists canonical video records. Backends should enforce
// uniqueness of ExternalVideoID; the application-level existence check does
// not protect concurrent adds on its own.
type VideoStore interface {
	// Save inserts or updates a video, assigning an ID when it has none,
	// and returns the ID
	Save(ctx context.Context, video *Video) (string, error)

	// FindByID returns the video with the given ID, or nil when absent
	FindByID(ctx context.Context, id string) (*Video, error)

	// FindByExternalID returns the video with the given external video ID,
	// or nil when absent
	FindByExternalID(ctx context.Context, externalVideoID string) (*Video, error)

	// ListAll returns every video
	ListAll(ctx context.Context) ([]Video, error)

	// Search returns one page of videos matching the filter, plus the
	// total match count
	Search(ctx context.Context, filter VideoFilter, page, size int) ([]Video, int, error)

	// Delete removes the video with the given ID; deleting an absent
	// video is not an error
	Delete(ctx context.Context, id string) error
}

// SubtitleCacheStore persists generation-scoped subtitle cache rows
type SubtitleCacheStore interface {
	// Save stores a cache row, replacing any row with the same generation
	// and external video ID
	Save(ctx context.Context, row *SubtitleCacheRow) error

	// Delete removes one cache row; deleting an absent row is not an error
	Delete(ctx context.Context, generation, externalVideoID string) error

	// PurgeOtherGenerations removes every cache row not tagged with the
	// given generation
	PurgeOtherGenerations(ctx context.Context, generation string) error
}
