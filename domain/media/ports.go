package media

import (
	"context"
	"time"
)

// Store manages transient on-disk artifacts
type Store interface {
	// Persist writes data to a new uniquely named file
	Persist(data []byte, suffix string, kind Kind) (Artifact, error)
	// Reserve allocates an output path for an external tool
	Reserve(kind Kind, suffix string) (Pending, error)
	// Commit publishes a reserved path once the tool has finished writing it
	Commit(p Pending) (Artifact, error)
	// Discard removes whatever was written to a reserved path
	Discard(p Pending) error
	// Clone copies an artifact into a new one of the given kind
	Clone(a Artifact, kind Kind) (Artifact, error)
	// Release deletes the artifact. Releasing a missing file is not an error.
	Release(a Artifact) error
}

// ExtractOptions narrows what the extractor demuxes
type ExtractOptions struct {
	Clip *Clip
}

// AudioExtractor demuxes the audio track of a video artifact
type AudioExtractor interface {
	Extract(ctx context.Context, video Artifact, opts ExtractOptions) (Artifact, error)
}

// AudioNormalizer re-encodes audio into the format the transcriber expects
type AudioNormalizer interface {
	Normalize(ctx context.Context, audio Artifact) (Artifact, error)
}

// Transcriber turns normalized audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio Artifact) (string, error)
}

// Recorder captures audio from a live input device
type Recorder interface {
	Record(ctx context.Context, duration time.Duration) (Artifact, error)
}

// FileChecker reports on files given by the user
type FileChecker interface {
	Exists(path string) bool
	Size(path string) (int64, error)
}
