package indexer

import "errors"

var (
	// ErrIndexingConflict is returned when a catalog mutation or a reindex
	// request arrives while a full reindex job is running
	ErrIndexingConflict = errors.New("the video cannot be modified right now, try again later")

	// ErrVideoExists is returned when adding a video whose external video
	// ID is already in the catalog
	ErrVideoExists = errors.New("the video already exists")

	// ErrVideoNotFound is returned when updating or removing an unknown
	// video ID
	ErrVideoNotFound = errors.New("the video is not found")
)
