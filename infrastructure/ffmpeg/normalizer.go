package ffmpeg

import (
	"context"
	"strconv"

	"media-assist/domain/media"
)

// Normalizer implements media.AudioNormalizer. Audio that already matches
// the target format is cloned byte for byte, so normalizing its own output
// is a no-op.
type Normalizer struct {
	tools
	prober *Prober
	store  media.Store
	target media.AudioFormat
}

// NewNormalizer creates a normalizer that produces the target format
func NewNormalizer(store media.Store, target media.AudioFormat, opts ...Option) *Normalizer {
	t := newTools(opts)
	if target.Codec == "" {
		target.Codec = media.DefaultCodec
	}
	return &Normalizer{
		tools:  t,
		prober: &Prober{tools: t},
		store:  store,
		target: target,
	}
}

// Target returns the format Normalize produces
func (n *Normalizer) Target() media.AudioFormat {
	return n.target
}

// Normalize implements media.AudioNormalizer
func (n *Normalizer) Normalize(ctx context.Context, audio media.Artifact) (media.Artifact, error) {
	probe, err := n.prober.Inspect(ctx, audio.Path)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrUnsupportedFormat, "normalize", decodeMessage(ctx, "audio could not be read"), err)
	}
	current, ok := probe.AudioFormat()
	if !ok {
		return media.Artifact{}, media.Wrap(media.ErrUnsupportedFormat, "normalize", "input has no audio stream", nil)
	}

	if probe.IsWAV() && current.Matches(n.target) {
		return n.store.Clone(audio, media.KindNormalizedAudio)
	}

	out, err := n.store.Reserve(media.KindNormalizedAudio, ".wav")
	if err != nil {
		return media.Artifact{}, err
	}

	if err := n.runner.Run(ctx, n.ffmpegPath, n.args(audio.Path, out.Path)...); err != nil {
		n.store.Discard(out)
		return media.Artifact{}, media.Wrap(media.ErrUnsupportedFormat, "normalize", decodeMessage(ctx, "audio could not be resampled"), err)
	}

	return n.store.Commit(out)
}

func (n *Normalizer) args(input, output string) []string {
	args := baseArgs()
	args = append(args,
		"-i", input,
		"-map", "0:a:0",
		"-vn",
		"-ac", strconv.Itoa(n.target.Channels),
		"-ar", strconv.Itoa(n.target.SampleRate),
	)
	args = append(args, deterministicWAV()...)
	return append(args, output)
}

// Ensure Normalizer implements media.AudioNormalizer
var _ media.AudioNormalizer = (*Normalizer)(nil)
