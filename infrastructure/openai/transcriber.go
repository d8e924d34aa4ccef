package openai

import (
	"context"
	"errors"
	"strings"

	"media-assist/domain/language"
	"media-assist/domain/media"

	openaiapi "github.com/sashabaranov/go-openai"
)

// Transcriber implements media.Transcriber with the Whisper API
type Transcriber struct {
	client   AudioClient
	model    string
	language string
}

// NewTranscriber creates a Whisper transcriber. The language hint may be a
// full locale; Whisper only takes the base code.
func NewTranscriber(client AudioClient, model, lang string) *Transcriber {
	if model == "" {
		model = openaiapi.Whisper1
	}
	return &Transcriber{client: client, model: model, language: lang}
}

// Transcribe implements media.Transcriber
func (t *Transcriber) Transcribe(ctx context.Context, audio media.Artifact) (string, error) {
	req := openaiapi.AudioRequest{
		Model:    t.model,
		FilePath: audio.Path,
	}
	if t.language != "" {
		base, err := language.BaseCode(t.language)
		if err != nil {
			return "", media.Wrap(media.ErrInvalidRequest, "transcribe", "invalid recognition language", err)
		}
		req.Language = base
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		msg := "speech backend failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "recognition timed out"
		}
		return "", media.Wrap(media.ErrRecognition, "transcribe", msg, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", media.Wrap(media.ErrRecognition, "transcribe", "no speech could be recognized", nil)
	}
	return text, nil
}

var _ media.Transcriber = (*Transcriber)(nil)
