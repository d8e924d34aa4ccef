package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"media-assist/domain/media"
)

// ProbeResult is the parsed ffprobe output for one file
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the container
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	NBStreams  int    `json:"nb_streams"`
}

// AudioStreams returns the audio streams in container order
func (r ProbeResult) AudioStreams() []Stream {
	var audio []Stream
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			audio = append(audio, s)
		}
	}
	return audio
}

// AudioFormat describes the first audio stream
func (r ProbeResult) AudioFormat() (media.AudioFormat, bool) {
	audio := r.AudioStreams()
	if len(audio) == 0 {
		return media.AudioFormat{}, false
	}
	rate, _ := strconv.Atoi(audio[0].SampleRate)
	return media.AudioFormat{
		SampleRate: rate,
		Channels:   audio[0].Channels,
		Codec:      audio[0].CodecName,
	}, true
}

// IsWAV reports whether the container is a WAV file
func (r ProbeResult) IsWAV() bool {
	for _, name := range strings.Split(r.Format.FormatName, ",") {
		if name == "wav" {
			return true
		}
	}
	return false
}

// Prober inspects media files with ffprobe
type Prober struct {
	tools
}

// NewProber creates a new ffprobe-based inspector
func NewProber(opts ...Option) *Prober {
	return &Prober{tools: newTools(opts)}
}

// Inspect runs ffprobe against path and decodes its JSON report
func (p *Prober) Inspect(ctx context.Context, path string) (ProbeResult, error) {
	if strings.TrimSpace(path) == "" {
		return ProbeResult{}, errors.New("ffprobe inspect: empty path")
	}

	out, err := p.runner.Output(ctx, p.ffprobePath,
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result ProbeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}
