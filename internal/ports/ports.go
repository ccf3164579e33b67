// Package ports declares the external collaborators of the analysis
// pipeline. Adapters live in their own packages.
package ports

import (
	"context"

	"video-factcheck-go/internal/types"
)

// TranscriptSource returns the timed transcript of a video.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string) ([]types.Segment, error)
}

// MetadataSource returns display metadata for a video URL.
type MetadataSource interface {
	Fetch(ctx context.Context, videoURL string) (types.VideoInfo, error)
}

// ModelService sends one prompt to a language model and returns its raw text.
// Rate-limit failures must mention "rate limit" in the error message.
type ModelService interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Store persists completed analyses.
type Store interface {
	Save(ctx context.Context, rec types.Record) (int64, error)
	Latest(ctx context.Context, videoID string) (types.Record, error)
	List(ctx context.Context, limit int) ([]types.Record, error)
	Close() error
}
