package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	ErrEmptyText           = errors.New("text is empty")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrBackend             = errors.New("language backend failed")
)

// Language is a target offered by a translation backend
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Translator translates text into a target language
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// LanguageLister lists the targets a translator supports
type LanguageLister interface {
	Languages(ctx context.Context) ([]Language, error)
}

// Synthesizer turns text into spoken audio (MP3)
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// NormalizeCode canonicalizes a BCP 47 language code ("EN_us" -> "en-US").
func NormalizeCode(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// SpeechLocale returns a code with a region, filling in the most likely one
// when only a base language was given ("en" -> "en-US").
func SpeechLocale(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	if region.String() == "ZZ" {
		return base.String(), nil
	}
	return base.String() + "-" + region.String(), nil
}

// BaseCode returns the ISO 639-1 base of a code ("en-IN" -> "en")
func BaseCode(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// DisplayName returns the English name of a language code, or the code itself
func DisplayName(code string) string {
	tag, err := parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

func parse(code string) (language.Tag, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return language.Und, fmt.Errorf("%w: empty language code", ErrUnsupportedLanguage)
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return tag, nil
}
