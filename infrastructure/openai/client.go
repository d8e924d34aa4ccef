// Package openai adapts the OpenAI audio endpoints (Whisper transcription
// and text-to-speech) to the media and language ports.
package openai

import (
	"context"
	"errors"

	openaiapi "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when no API key is configured
var ErrMissingAPIKey = errors.New("openai api key is not set (set openai.api_key or OPENAI_API_KEY)")

// AudioClient defines the OpenAI calls used here.
// This allows mocking the API in tests.
type AudioClient interface {
	CreateTranscription(ctx context.Context, req openaiapi.AudioRequest) (openaiapi.AudioResponse, error)
	CreateSpeech(ctx context.Context, req openaiapi.CreateSpeechRequest) (openaiapi.RawResponse, error)
}

// Settings configures the API client
type Settings struct {
	APIKey  string
	BaseURL string
}

// NewClient creates an OpenAI client. BaseURL points it at a compatible
// server, for example a local Whisper deployment.
func NewClient(s Settings) (*openaiapi.Client, error) {
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openaiapi.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	return openaiapi.NewClientWithConfig(cfg), nil
}

var _ AudioClient = (*openaiapi.Client)(nil)
