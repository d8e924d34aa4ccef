package google

import (
	"context"
	"errors"
	"testing"

	"media-assist/domain/language"

	"google.golang.org/api/googleapi"
	translate "google.golang.org/api/translate/v2"
)

// mockTranslateService implements TranslateService for testing
type mockTranslateService struct {
	translations []*translate.TranslationsResource
	languages    []*translate.LanguagesResource
	err          error
	gotText      []string
	gotTarget    string
}

func (m *mockTranslateService) Translate(ctx context.Context, text []string, target string) ([]*translate.TranslationsResource, error) {
	m.gotText, m.gotTarget = text, target
	return m.translations, m.err
}

func (m *mockTranslateService) Languages(ctx context.Context, displayLanguage string) ([]*translate.LanguagesResource, error) {
	return m.languages, m.err
}

func TestTranslator_Translate(t *testing.T) {
	svc := &mockTranslateService{translations: []*translate.TranslationsResource{{TranslatedText: "bonjour"}}}
	tr := NewTranslator(svc)

	got, err := tr.Translate(context.Background(), "hello", "FR")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got != "bonjour" {
		t.Errorf("Translate() = %q", got)
	}
	if svc.gotTarget != "fr" || len(svc.gotText) != 1 || svc.gotText[0] != "hello" {
		t.Errorf("unexpected request text=%v target=%q", svc.gotText, svc.gotTarget)
	}
}

var (
	invalidValueErr = &googleapi.Error{
		Code:    400,
		Message: "Invalid Value",
		Errors:  []googleapi.ErrorItem{{Reason: "invalid", Message: "Invalid Value"}},
	}
	invalidKeyErr = &googleapi.Error{
		Code:    400,
		Message: "API key not valid. Please pass a valid API key.",
		Errors:  []googleapi.ErrorItem{{Reason: "badRequest", Message: "API key not valid. Please pass a valid API key."}},
	}
)

func TestTranslator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		svc     *mockTranslateService
		text    string
		target  string
		wantErr error
	}{
		{"empty text", &mockTranslateService{}, "  ", "fr", language.ErrEmptyText},
		{"bad code", &mockTranslateService{}, "hi", "", language.ErrUnsupportedLanguage},
		{"backend rejects language", &mockTranslateService{err: invalidValueErr}, "hi", "xx", language.ErrUnsupportedLanguage},
		{"invalid api key", &mockTranslateService{err: invalidKeyErr}, "hi", "fr", language.ErrBackend},
		{"bare bad request", &mockTranslateService{err: &googleapi.Error{Code: 400, Message: "Bad Request"}}, "hi", "fr", language.ErrBackend},
		{"backend down", &mockTranslateService{err: errors.New("connection refused")}, "hi", "fr", language.ErrBackend},
		{"empty response", &mockTranslateService{}, "hi", "fr", language.ErrBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTranslator(tt.svc).Translate(context.Background(), tt.text, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Translate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTranslator_LanguagesSortedByName(t *testing.T) {
	svc := &mockTranslateService{languages: []*translate.LanguagesResource{
		{Language: "fr", Name: "French"},
		{Language: "de", Name: "German"},
		{Language: "af"},
		{Language: ""},
	}}

	langs, err := NewTranslator(svc).Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages() error: %v", err)
	}
	if len(langs) != 3 {
		t.Fatalf("got %d languages, want 3: %v", len(langs), langs)
	}
	if langs[0].Code != "af" || langs[0].Name != "Afrikaans" {
		t.Errorf("missing name should come from x/text, got %+v", langs[0])
	}
	if langs[1].Name != "French" || langs[2].Name != "German" {
		t.Errorf("languages not sorted: %v", langs)
	}
}
