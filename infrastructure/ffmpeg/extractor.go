package ffmpeg

import (
	"context"
	"errors"

	"media-assist/domain/media"
)

// maxWAVHeader is the largest header ffmpeg writes ahead of the samples.
// Output no larger than this holds no audio.
const maxWAVHeader = 78

// Extractor implements media.AudioExtractor using ffprobe and ffmpeg.
// The first audio stream is copied out as PCM WAV at its native sample
// rate and channel count.
type Extractor struct {
	tools
	prober *Prober
	store  media.Store
}

// NewExtractor creates a new FFmpeg-based audio extractor
func NewExtractor(store media.Store, opts ...Option) *Extractor {
	t := newTools(opts)
	return &Extractor{
		tools:  t,
		prober: &Prober{tools: t},
		store:  store,
	}
}

// Extract implements media.AudioExtractor. The input artifact is only read.
func (e *Extractor) Extract(ctx context.Context, video media.Artifact, opts media.ExtractOptions) (media.Artifact, error) {
	probe, err := e.prober.Inspect(ctx, video.Path)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", decodeMessage(ctx, "container could not be read"), err)
	}
	if len(probe.Streams) == 0 && probe.Format.FormatName == "" {
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", "container could not be read", nil)
	}
	if len(probe.AudioStreams()) == 0 {
		return media.Artifact{}, media.Wrap(media.ErrNoAudioTrack, "extract", "video has no audio stream", nil)
	}

	out, err := e.store.Reserve(media.KindRawAudio, ".wav")
	if err != nil {
		return media.Artifact{}, err
	}

	if err := e.runner.Run(ctx, e.ffmpegPath, extractArgs(video.Path, out.Path, opts.Clip)...); err != nil {
		e.store.Discard(out)
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", decodeMessage(ctx, "audio track could not be decoded"), err)
	}

	audio, err := e.store.Commit(out)
	if err != nil {
		// an empty output means the decoder gave up without reporting it
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", "decoder produced no audio", nil)
	}
	if audio.Size <= maxWAVHeader {
		e.store.Release(audio)
		msg := "decoder produced no audio"
		if opts.Clip != nil {
			msg = "clip window contains no audio"
		}
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", msg, nil)
	}
	return audio, nil
}

func extractArgs(input, output string, clip *media.Clip) []string {
	args := baseArgs()
	args = append(args, "-i", input)
	if clip != nil {
		args = append(args, "-ss", clip.Start.String(), "-to", clip.End.String())
	}
	args = append(args,
		"-map", "0:a:0", // first audio stream only
		"-vn", "-sn", "-dn",
	)
	args = append(args, deterministicWAV()...)
	return append(args, output)
}

func decodeMessage(ctx context.Context, msg string) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "decode timed out"
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return "decode cancelled"
	}
	return msg
}

// Ensure Extractor implements media.AudioExtractor
var _ media.AudioExtractor = (*Extractor)(nil)
