package media

import "time"

// Kind identifies what an artifact holds
type Kind string

const (
	KindVideo           Kind = "video"
	KindRawAudio        Kind = "raw-audio"
	KindNormalizedAudio Kind = "normalized-audio"
	KindRecording       Kind = "recording"
)

// Artifact is a transient, fully written file produced by one stage and
// consumed by the next
type Artifact struct {
	ID        string
	Path      string
	Kind      Kind
	Size      int64
	CreatedAt time.Time
}

// IsZero returns true if the artifact was never populated
func (a Artifact) IsZero() bool {
	return a.Path == ""
}

// Pending is an output slot reserved for an external tool. Nothing reads it
// until Store.Commit turns it into an Artifact.
type Pending struct {
	ID     string
	Kind   Kind
	Path   string
	Suffix string
}
