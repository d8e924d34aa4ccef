package google

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"media-assist/domain/language"

	texttospeech "google.golang.org/api/texttospeech/v1"
)

// mockTTSService implements TextToSpeechService for testing
type mockTTSService struct {
	audio   []byte
	err     error
	lastReq *texttospeech.SynthesizeSpeechRequest
}

func (m *mockTTSService) Synthesize(ctx context.Context, req *texttospeech.SynthesizeSpeechRequest) (*texttospeech.SynthesizeSpeechResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &texttospeech.SynthesizeSpeechResponse{AudioContent: base64.StdEncoding.EncodeToString(m.audio)}, nil
}

func TestSynthesizer_Synthesize(t *testing.T) {
	svc := &mockTTSService{audio: []byte("ID3-mp3")}
	audio, err := NewSynthesizer(svc).Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if string(audio) != "ID3-mp3" {
		t.Errorf("audio = %q", audio)
	}
	if svc.lastReq.Voice.LanguageCode != "en-US" {
		t.Errorf("LanguageCode = %q, want en-US", svc.lastReq.Voice.LanguageCode)
	}
	if svc.lastReq.AudioConfig.AudioEncoding != "MP3" {
		t.Errorf("AudioEncoding = %q", svc.lastReq.AudioConfig.AudioEncoding)
	}
}

func TestSynthesizer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		svc     *mockTTSService
		text    string
		wantErr error
	}{
		{"empty text", &mockTTSService{}, "", language.ErrEmptyText},
		{"backend error", &mockTTSService{err: errors.New("quota")}, "hi", language.ErrBackend},
		{"empty audio", &mockTTSService{}, "hi", language.ErrBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSynthesizer(tt.svc).Synthesize(context.Background(), tt.text, "en"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Synthesize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
