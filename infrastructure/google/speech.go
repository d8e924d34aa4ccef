package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"media-assist/domain/media"

	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

const (
	// maxSyncAudio is the longest audio synchronous recognize accepts
	maxSyncAudio   = time.Minute
	wavHeaderSize  = 44
	bytesPerSample = 2
)

// SpeechService defines the Cloud Speech-to-Text calls the transcriber
// needs. This allows mocking the API in tests.
type SpeechService interface {
	Recognize(ctx context.Context, req *speech.RecognizeRequest) (*speech.RecognizeResponse, error)
}

// CloudSpeechService is the production implementation
type CloudSpeechService struct {
	service *speech.Service
}

// Recognize performs synchronous speech recognition
func (s *CloudSpeechService) Recognize(ctx context.Context, req *speech.RecognizeRequest) (*speech.RecognizeResponse, error) {
	return s.service.Speech.Recognize(req).Context(ctx).Do()
}

// NewSpeechService creates a Speech-to-Text client
func NewSpeechService(ctx context.Context, opts ...option.ClientOption) (*CloudSpeechService, error) {
	srv, err := speech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create speech service: %w", err)
	}
	return &CloudSpeechService{service: srv}, nil
}

// Transcriber implements media.Transcriber with Cloud Speech-to-Text
type Transcriber struct {
	service  SpeechService
	language string
	format   media.AudioFormat
	readFile func(string) ([]byte, error)
}

// TranscriberOption is a functional option for configuring Transcriber
type TranscriberOption func(*Transcriber)

// WithReadFile sets how audio files are read (for testing)
func WithReadFile(fn func(string) ([]byte, error)) TranscriberOption {
	return func(t *Transcriber) {
		t.readFile = fn
	}
}

// NewTranscriber creates a transcriber for LINEAR16 audio in the given
// format and language (BCP 47, for example "en-US")
func NewTranscriber(service SpeechService, language string, format media.AudioFormat, opts ...TranscriberOption) *Transcriber {
	t := &Transcriber{
		service:  service,
		language: language,
		format:   format,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe implements media.Transcriber
func (t *Transcriber) Transcribe(ctx context.Context, audio media.Artifact) (string, error) {
	data, err := t.readFile(audio.Path)
	if err != nil {
		return "", media.Wrap(media.ErrRecognition, "transcribe", "cannot read audio", err)
	}
	if d := t.duration(len(data)); d > maxSyncAudio {
		return "", media.Wrap(media.ErrRecognition, "transcribe",
			fmt.Sprintf("audio is %s long but synchronous recognition accepts at most %s; transcribe a shorter clip",
				d.Round(time.Second), maxSyncAudio), nil)
	}

	req := &speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            int64(t.format.SampleRate),
			AudioChannelCount:          int64(t.format.Channels),
			LanguageCode:               t.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}

	resp, err := t.service.Recognize(ctx, req)
	if err != nil {
		msg := "speech backend failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "recognition timed out"
		}
		return "", media.Wrap(media.ErrRecognition, "transcribe", msg, err)
	}

	var parts []string
	for _, result := range resp.Results {
		if result == nil || len(result.Alternatives) == 0 || result.Alternatives[0] == nil {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", media.Wrap(media.ErrRecognition, "transcribe", "no speech could be recognized", nil)
	}
	return strings.Join(parts, " "), nil
}

// duration estimates the length of a PCM WAV file of size bytes
func (t *Transcriber) duration(size int) time.Duration {
	perSecond := t.format.SampleRate * t.format.Channels * bytesPerSample
	if perSecond <= 0 || size <= wavHeaderSize {
		return 0
	}
	return time.Duration(size-wavHeaderSize) * time.Second / time.Duration(perSecond)
}

// Ensure Transcriber implements media.Transcriber
var _ media.Transcriber = (*Transcriber)(nil)
