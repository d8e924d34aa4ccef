package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"media-assist/domain/language"

	openaiapi "github.com/sashabaranov/go-openai"
)

// Synthesizer implements language.Synthesizer with the OpenAI speech API.
// The voice is multilingual, so the language is only validated.
type Synthesizer struct {
	client AudioClient
	model  string
	voice  string
}

// NewSynthesizer creates an MP3 synthesizer
func NewSynthesizer(client AudioClient, model, voice string) *Synthesizer {
	if model == "" {
		model = string(openaiapi.TTSModel1)
	}
	if voice == "" {
		voice = string(openaiapi.VoiceAlloy)
	}
	return &Synthesizer{client: client, model: model, voice: voice}
}

// Synthesize implements language.Synthesizer
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, language.ErrEmptyText
	}
	if _, err := language.NormalizeCode(lang); err != nil {
		return nil, err
	}

	resp, err := s.client.CreateSpeech(ctx, openaiapi.CreateSpeechRequest{
		Model:          openaiapi.SpeechModel(s.model),
		Input:          text,
		Voice:          openaiapi.SpeechVoice(s.voice),
		ResponseFormat: openaiapi.SpeechResponseFormatMp3,
	})
	if err != nil {
		var apiErr *openaiapi.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", language.ErrUnsupportedLanguage, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: synthesize: %v", language.ErrBackend, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: synthesize: reading audio: %v", language.ErrBackend, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: synthesize: empty audio", language.ErrBackend)
	}
	return audio, nil
}

var _ language.Synthesizer = (*Synthesizer)(nil)
