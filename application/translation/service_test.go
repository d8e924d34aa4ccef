package translation

import (
	"context"
	"errors"
	"testing"

	"media-assist/domain/language"
)

// mockTranslator implements language.Translator and language.LanguageLister
type mockTranslator struct {
	result    string
	err       error
	gotTarget string
	calls     int
}

func (m *mockTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	m.calls++
	m.gotTarget = target
	return m.result, m.err
}

func (m *mockTranslator) Languages(ctx context.Context) ([]language.Language, error) {
	return []language.Language{{Code: "fr", Name: "French"}}, nil
}

func TestService_Translate(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		target     string
		backendErr error
		wantTarget string
		wantErr    error
		wantCalls  int
	}{
		{name: "explicit target", text: "hello", target: "fr", wantTarget: "fr", wantCalls: 1},
		{name: "default target", text: "hola", target: "", wantTarget: "en", wantCalls: 1},
		{name: "target normalized", text: "hello", target: "pt_br", wantTarget: "pt-BR", wantCalls: 1},
		{name: "empty text", text: "   ", target: "fr", wantErr: language.ErrEmptyText},
		{name: "invalid target", text: "hello", target: "!!", wantErr: language.ErrUnsupportedLanguage},
		{name: "backend error", text: "hello", target: "fr", backendErr: language.ErrBackend, wantTarget: "fr", wantErr: language.ErrBackend, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTranslator{result: "translated", err: tt.backendErr}
			svc := NewService(m, m, "en", nil)

			got, err := svc.Translate(context.Background(), tt.text, tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Translate() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Translate() unexpected error: %v", err)
				}
				if got != "translated" {
					t.Errorf("Translate() = %q", got)
				}
			}
			if m.calls != tt.wantCalls {
				t.Errorf("backend called %d times, want %d", m.calls, tt.wantCalls)
			}
			if m.gotTarget != tt.wantTarget {
				t.Errorf("target = %q, want %q", m.gotTarget, tt.wantTarget)
			}
		})
	}
}

func TestService_Languages(t *testing.T) {
	m := &mockTranslator{}
	langs, err := NewService(m, m, "en", nil).Languages(context.Background())
	if err != nil || len(langs) != 1 || langs[0].Code != "fr" {
		t.Errorf("Languages() = %v, %v", langs, err)
	}
}
