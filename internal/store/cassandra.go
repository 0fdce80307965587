package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CassandraVideoStore is a VideoStore backed by Cassandra.
//
// Expected schema:
//
//	CREATE TABLE videos (
//	    id text PRIMARY KEY,
//	    external_video_id text,
//	    variety text,
//	    srt text
//	);
//	CREATE INDEX videos_by_external_id ON videos (external_video_id);
//
// The secondary index backs FindByExternalID; uniqueness of
// external_video_id is enforced at the application level.
type CassandraVideoStore struct {
	session *gocql.Session
	logger  *zap.Logger
}

// NewCassandraVideoStore connects to Cassandra and creates the store
func NewCassandraVideoStore(hosts []string, keyspace string, logger *zap.Logger) (*CassandraVideoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}

	return &CassandraVideoStore{session: session, logger: logger}, nil
}

// Close closes the Cassandra session
func (s *CassandraVideoStore) Close() {
	s.session.Close()
}

// Save inserts or updates a video and returns its ID
func (s *CassandraVideoStore) Save(ctx context.Context, video *Video) (string, error) {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}

	query := `INSERT INTO videos (id, external_video_id, variety, srt) VALUES (?, ?, ?, ?)`
	if err := s.session.Query(query,
		video.ID, video.ExternalVideoID, string(video.Variety), video.SRT,
	).WithContext(ctx).Exec(); err != nil {
		return "", fmt.Errorf("failed to save video: %w", err)
	}
	return video.ID, nil
}

// FindByID returns the video with the given ID, or nil
func (s *CassandraVideoStore) FindByID(ctx context.Context, id string) (*Video, error) {
	query := `SELECT id, external_video_id, variety, srt FROM videos WHERE id = ?`
	return s.scanOne(s.session.Query(query, id).WithContext(ctx))
}

// FindByExternalID returns the video with the given external ID, or nil
func (s *CassandraVideoStore) FindByExternalID(ctx context.Context, externalVideoID string) (*Video, error) {
	query := `SELECT id, external_video_id, variety, srt FROM videos WHERE external_video_id = ? LIMIT 1`
	return s.scanOne(s.session.Query(query, externalVideoID).WithContext(ctx))
}

func (s *CassandraVideoStore) scanOne(query *gocql.Query) (*Video, error) {
	var video Video
	var variety string
	err := query.Scan(&video.ID, &video.ExternalVideoID, &variety, &video.SRT)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}
	video.Variety = Variety(variety)
	return &video, nil
}

// ListAll returns every video
func (s *CassandraVideoStore) ListAll(ctx context.Context) ([]Video, error) {
	query := `SELECT id, external_video_id, variety, srt FROM videos`
	iter := s.session.Query(query).WithContext(ctx).Iter()

	var videos []Video
	var video Video
	var variety string
	for iter.Scan(&video.ID, &video.ExternalVideoID, &variety, &video.SRT) {
		video.Variety = Variety(variety)
		videos = append(videos, video)
		video = Video{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

// Search returns one page of matching videos and the total match count.
// Cassandra has no offset pagination, so filtering and paging happen on the
// fetched set; the video corpus is the size the full reindex reads anyway.
func (s *CassandraVideoStore) Search(ctx context.Context, filter VideoFilter, page, size int) ([]Video, int, error) {
	videos, err := s.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	var matched []Video
	for _, video := range videos {
		if filter.Matches(video) {
			matched = append(matched, video)
		}
	}
	return paginate(matched, page, size), len(matched), nil
}

// Delete removes the video with the given ID
func (s *CassandraVideoStore) Delete(ctx context.Context, id string) error {
	if err := s.session.Query(`DELETE FROM videos WHERE id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}
