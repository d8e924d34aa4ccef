//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-assist/application/speech"
	"media-assist/application/translation"
	"media-assist/cmd"
	"media-assist/domain/language"

	"github.com/cucumber/godog"
)

// MockTranslator implements language.Translator and language.LanguageLister
type MockTranslator struct {
	dictionary map[string]map[string]string
	languages  []string
	failing    bool
	noListing  bool
	targets    []string
}

func (m *MockTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	m.targets = append(m.targets, target)
	if m.failing {
		return "", fmt.Errorf("%w: service unavailable", language.ErrBackend)
	}
	translated, ok := m.dictionary[target][text]
	if !ok {
		return "", fmt.Errorf("%w: %s", language.ErrUnsupportedLanguage, target)
	}
	return translated, nil
}

func (m *MockTranslator) Languages(ctx context.Context) ([]language.Language, error) {
	if m.failing || m.noListing {
		return nil, fmt.Errorf("%w: service unavailable", language.ErrBackend)
	}
	langs := make([]language.Language, len(m.languages))
	for i, code := range m.languages {
		langs[i] = language.Language{Code: code, Name: language.DisplayName(code)}
	}
	return langs, nil
}

// MockSynthesizer implements language.Synthesizer
type MockSynthesizer struct {
	languages []string
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	m.languages = append(m.languages, lang)
	return append([]byte("ID3"), text...), nil
}

type languageContext struct {
	tempDir     string
	translator  *MockTranslator
	synthesizer *MockSynthesizer
	output      *bytes.Buffer
	err         error
}

var SharedLanguageContext = &languageContext{}

func InitializeLanguageScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedLanguageContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "language-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.translator = &MockTranslator{dictionary: make(map[string]map[string]string)}
		testCtx.synthesizer = &MockSynthesizer{}
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedLanguageContext = &languageContext{}
		return c, nil
	})

	ctx.Step(`^the translation backend knows:$`, testCtx.theTranslationBackendKnows)
	ctx.Step(`^the translation backend supports languages "([^"]*)"$`, testCtx.theTranslationBackendSupportsLanguages)
	ctx.Step(`^the translation backend is unavailable$`, testCtx.theTranslationBackendIsUnavailable)
	ctx.Step(`^I translate "([^"]*)" into "([^"]*)"$`, testCtx.iTranslateInto)
	ctx.Step(`^I translate "([^"]*)" without a target language$`, testCtx.iTranslateWithoutATargetLanguage)
	ctx.Step(`^I list the supported languages$`, testCtx.iListTheSupportedLanguages)
	ctx.Step(`^I speak "([^"]*)" into "([^"]*)"$`, testCtx.iSpeakInto)
	ctx.Step(`^I speak "([^"]*)" in "([^"]*)" into "([^"]*)"$`, testCtx.iSpeakInInto)
	ctx.Step(`^the translated output should contain "([^"]*)"$`, testCtx.theTranslatedOutputShouldContain)
	ctx.Step(`^the language command should fail with "([^"]*)"$`, testCtx.theLanguageCommandShouldFailWith)
	ctx.Step(`^the backend should have been asked for "([^"]*)"$`, testCtx.theBackendShouldHaveBeenAskedFor)
	ctx.Step(`^the backend should not have been called$`, testCtx.theBackendShouldNotHaveBeenCalled)
	ctx.Step(`^the synthesizer should have been asked for "([^"]*)"$`, testCtx.theSynthesizerShouldHaveBeenAskedFor)
	ctx.Step(`^the audio file "([^"]*)" should exist$`, testCtx.theAudioFileShouldExist)
	ctx.Step(`^the audio file "([^"]*)" should not exist$`, testCtx.theAudioFileShouldNotExist)
}

func (l *languageContext) theTranslationBackendKnows(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		target := row.Cells[0].Value
		if l.translator.dictionary[target] == nil {
			l.translator.dictionary[target] = make(map[string]string)
		}
		l.translator.dictionary[target][row.Cells[1].Value] = row.Cells[2].Value
	}
	return nil
}

func (l *languageContext) theTranslationBackendSupportsLanguages(codes string) error {
	l.translator.languages = splitList(codes)
	return nil
}

func (l *languageContext) theTranslationBackendIsUnavailable() error {
	l.translator.failing = true
	return nil
}

func (l *languageContext) translationService() *translation.Service {
	return translation.NewService(l.translator, l.translator, "en", nil)
}

func (l *languageContext) iTranslateInto(text, target string) error {
	l.err = cmd.RunTranslateWithDependencies(context.Background(), l.translationService(), text, target, l.output)
	return nil
}

func (l *languageContext) iTranslateWithoutATargetLanguage(text string) error {
	return l.iTranslateInto(text, "")
}

func (l *languageContext) iListTheSupportedLanguages() error {
	l.err = cmd.RunLanguagesWithDependencies(context.Background(), l.translationService(), l.output)
	return nil
}

func (l *languageContext) speak(text, lang, out string) error {
	svc := speech.NewService(l.synthesizer, "en", nil)
	l.err = cmd.RunSpeakWithDependencies(context.Background(), svc, text, lang, filepath.Join(l.tempDir, out), l.output)
	return nil
}

func (l *languageContext) iSpeakInto(text, out string) error {
	return l.speak(text, "", out)
}

func (l *languageContext) iSpeakInInto(text, lang, out string) error {
	return l.speak(text, lang, out)
}

func (l *languageContext) theTranslatedOutputShouldContain(expected string) error {
	if l.err != nil {
		return fmt.Errorf("command failed: %v", l.err)
	}
	if !strings.Contains(l.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, l.output.String())
	}
	return nil
}

func (l *languageContext) theLanguageCommandShouldFailWith(message string) error {
	if l.err == nil {
		return fmt.Errorf("expected an error containing %q, but the command succeeded", message)
	}
	if !strings.Contains(l.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, l.err)
	}
	return nil
}

func (l *languageContext) theBackendShouldHaveBeenAskedFor(target string) error {
	targets := l.translator.targets
	if len(targets) == 0 || targets[len(targets)-1] != target {
		return fmt.Errorf("expected translation into %q, backend was asked for %v", target, targets)
	}
	return nil
}

func (l *languageContext) theBackendShouldNotHaveBeenCalled() error {
	if len(l.translator.targets) != 0 {
		return fmt.Errorf("expected no backend calls, got %v", l.translator.targets)
	}
	return nil
}

func (l *languageContext) theSynthesizerShouldHaveBeenAskedFor(lang string) error {
	langs := l.synthesizer.languages
	if len(langs) == 0 || langs[len(langs)-1] != lang {
		return fmt.Errorf("expected speech in %q, synthesizer was asked for %v", lang, langs)
	}
	return nil
}

func (l *languageContext) theAudioFileShouldExist(name string) error {
	data, err := os.ReadFile(filepath.Join(l.tempDir, name))
	if err != nil {
		return fmt.Errorf("expected audio file %s: %v", name, err)
	}
	if !bytes.HasPrefix(data, []byte("ID3")) {
		return fmt.Errorf("audio file %s does not hold the synthesized audio", name)
	}
	return nil
}

func (l *languageContext) theAudioFileShouldNotExist(name string) error {
	if _, err := os.Stat(filepath.Join(l.tempDir, name)); err == nil {
		return fmt.Errorf("expected %s not to be written", name)
	}
	return nil
}
