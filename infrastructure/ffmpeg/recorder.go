package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"media-assist/domain/media"
)

// Recorder implements media.Recorder by capturing from an ffmpeg input
// device (alsa, pulse, avfoundation, dshow)
type Recorder struct {
	tools
	store       media.Store
	inputFormat string
	device      string
}

// NewRecorder creates a recorder for the given ffmpeg input format and device
func NewRecorder(store media.Store, inputFormat, device string, opts ...Option) *Recorder {
	return &Recorder{
		tools:       newTools(opts),
		store:       store,
		inputFormat: inputFormat,
		device:      device,
	}
}

// Record captures duration worth of audio into a new artifact
func (r *Recorder) Record(ctx context.Context, duration time.Duration) (media.Artifact, error) {
	if duration <= 0 {
		return media.Artifact{}, media.Wrap(media.ErrCapture, "record", fmt.Sprintf("invalid duration %s", duration), nil)
	}

	out, err := r.store.Reserve(media.KindRecording, ".wav")
	if err != nil {
		return media.Artifact{}, err
	}

	if err := r.runner.Run(ctx, r.ffmpegPath, r.args(duration, out.Path)...); err != nil {
		r.store.Discard(out)
		return media.Artifact{}, media.Wrap(media.ErrCapture, "record",
			fmt.Sprintf("could not record from %s device %q", r.inputFormat, r.device), err)
	}

	rec, err := r.store.Commit(out)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrCapture, "record", "recording is empty", nil)
	}
	return rec, nil
}

func (r *Recorder) args(duration time.Duration, output string) []string {
	args := baseArgs()
	args = append(args,
		"-f", r.inputFormat,
		"-i", r.device,
		"-t", strconv.FormatFloat(duration.Seconds(), 'f', 3, 64),
	)
	args = append(args, deterministicWAV()...)
	return append(args, output)
}

// Ensure Recorder implements media.Recorder
var _ media.Recorder = (*Recorder)(nil)
