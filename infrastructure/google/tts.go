package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"media-assist/domain/language"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// TextToSpeechService defines the Cloud Text-to-Speech call used here.
// This allows mocking the API in tests.
type TextToSpeechService interface {
	Synthesize(ctx context.Context, req *texttospeech.SynthesizeSpeechRequest) (*texttospeech.SynthesizeSpeechResponse, error)
}

// CloudTextToSpeechService is the production implementation
type CloudTextToSpeechService struct {
	service *texttospeech.Service
}

// Synthesize converts text to audio
func (s *CloudTextToSpeechService) Synthesize(ctx context.Context, req *texttospeech.SynthesizeSpeechRequest) (*texttospeech.SynthesizeSpeechResponse, error) {
	return s.service.Text.Synthesize(req).Context(ctx).Do()
}

// NewTextToSpeechService creates a Text-to-Speech client
func NewTextToSpeechService(ctx context.Context, opts ...option.ClientOption) (*CloudTextToSpeechService, error) {
	srv, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create text-to-speech service: %w", err)
	}
	return &CloudTextToSpeechService{service: srv}, nil
}

// Synthesizer implements language.Synthesizer, producing MP3
type Synthesizer struct {
	service TextToSpeechService
}

// NewSynthesizer creates a synthesizer backed by Cloud Text-to-Speech
func NewSynthesizer(service TextToSpeechService) *Synthesizer {
	return &Synthesizer{service: service}
}

// Synthesize implements language.Synthesizer
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, language.ErrEmptyText
	}
	locale, err := language.SpeechLocale(lang)
	if err != nil {
		return nil, err
	}

	resp, err := s.service.Synthesize(ctx, &texttospeech.SynthesizeSpeechRequest{
		Input:       &texttospeech.SynthesisInput{Text: text},
		Voice:       &texttospeech.VoiceSelectionParams{LanguageCode: locale},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	})
	if err != nil {
		if isInvalidTarget(err) {
			return nil, fmt.Errorf("%w: %s", language.ErrUnsupportedLanguage, locale)
		}
		return nil, fmt.Errorf("%w: synthesize: %v", language.ErrBackend, err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("%w: synthesize: invalid audio content: %v", language.ErrBackend, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: synthesize: empty audio", language.ErrBackend)
	}
	return audio, nil
}

// Ensure Synthesizer implements language.Synthesizer
var _ language.Synthesizer = (*Synthesizer)(nil)
