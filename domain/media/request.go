package media

import (
	"strings"
	"time"
)

// PipelineRequest is one caller-submitted video payload
type PipelineRequest struct {
	ID        string
	Data      []byte
	Extension string
	Clip      *Clip
}

// NormalizedExtension returns the extension lower-cased without a leading dot
func (r PipelineRequest) NormalizedExtension() string {
	return NormalizeExtension(r.Extension)
}

// NormalizeExtension lower-cases ext and strips a leading dot
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// TranscriptionResult is the outcome of one pipeline run. Either Text is a
// complete transcript and Success is true, or ErrorKind and Error explain
// why there is none.
type TranscriptionResult struct {
	SourceID  string        `json:"source_id"`
	Text      string        `json:"text"`
	Success   bool          `json:"success"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Succeeded builds a successful result
func Succeeded(sourceID, text string, elapsed time.Duration) TranscriptionResult {
	return TranscriptionResult{SourceID: sourceID, Text: text, Success: true, Elapsed: elapsed}
}

// Failed builds a failed result from a typed error
func Failed(sourceID string, err error, elapsed time.Duration) TranscriptionResult {
	kind := KindName(err)
	if kind == "" {
		kind = "UnknownError"
	}
	return TranscriptionResult{
		SourceID:  sourceID,
		Success:   false,
		ErrorKind: kind,
		Error:     err.Error(),
		Elapsed:   elapsed,
	}
}
