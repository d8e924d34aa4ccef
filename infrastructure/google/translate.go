package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"media-assist/domain/language"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

// TranslateService defines the Cloud Translation v2 calls used here.
// This allows mocking the API in tests.
type TranslateService interface {
	Translate(ctx context.Context, text []string, target string) ([]*translate.TranslationsResource, error)
	Languages(ctx context.Context, displayLanguage string) ([]*translate.LanguagesResource, error)
}

// CloudTranslateService is the production implementation
type CloudTranslateService struct {
	service *translate.Service
}

// Translate translates plain text
func (s *CloudTranslateService) Translate(ctx context.Context, text []string, target string) ([]*translate.TranslationsResource, error) {
	resp, err := s.service.Translations.List(text, target).Format("text").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Translations, nil
}

// Languages lists supported targets with names in displayLanguage
func (s *CloudTranslateService) Languages(ctx context.Context, displayLanguage string) ([]*translate.LanguagesResource, error) {
	resp, err := s.service.Languages.List().Target(displayLanguage).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Languages, nil
}

// NewTranslateService creates a Translation v2 client
func NewTranslateService(ctx context.Context, opts ...option.ClientOption) (*CloudTranslateService, error) {
	srv, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create translate service: %w", err)
	}
	return &CloudTranslateService{service: srv}, nil
}

// Translator implements language.Translator and language.LanguageLister
type Translator struct {
	service TranslateService
}

// NewTranslator creates a translator backed by Cloud Translation
func NewTranslator(service TranslateService) *Translator {
	return &Translator{service: service}
}

// Translate implements language.Translator
func (t *Translator) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", language.ErrEmptyText
	}
	code, err := language.NormalizeCode(target)
	if err != nil {
		return "", err
	}

	translations, err := t.service.Translate(ctx, []string{text}, code)
	if err != nil {
		if isInvalidTarget(err) {
			return "", fmt.Errorf("%w: %s", language.ErrUnsupportedLanguage, code)
		}
		return "", fmt.Errorf("%w: translate: %v", language.ErrBackend, err)
	}
	if len(translations) == 0 || translations[0] == nil {
		return "", fmt.Errorf("%w: translate: empty response", language.ErrBackend)
	}
	return translations[0].TranslatedText, nil
}

// Languages implements language.LanguageLister
func (t *Translator) Languages(ctx context.Context) ([]language.Language, error) {
	resources, err := t.service.Languages(ctx, "en")
	if err != nil {
		return nil, fmt.Errorf("%w: list languages: %v", language.ErrBackend, err)
	}

	langs := make([]language.Language, 0, len(resources))
	for _, r := range resources {
		if r == nil || r.Language == "" {
			continue
		}
		name := r.Name
		if name == "" {
			name = language.DisplayName(r.Language)
		}
		langs = append(langs, language.Language{Code: r.Language, Name: name})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Name < langs[j].Name })
	return langs, nil
}

// isInvalidTarget reports whether the backend rejected the target language.
// A 400 is also returned for bad credentials, so only an "invalid" value
// reason that is not about the API key counts.
func isInvalidTarget(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return false
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "invalid" && !strings.Contains(strings.ToLower(item.Message), "api key") {
			return true
		}
	}
	return false
}

// Ensure Translator implements the language ports
var (
	_ language.Translator     = (*Translator)(nil)
	_ language.LanguageLister = (*Translator)(nil)
)
