//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	appsign "media-assist/application/sign"
	"media-assist/application/speech"
	"media-assist/application/translation"
	"media-assist/cmd"
	"media-assist/domain/media"
	"media-assist/domain/sign"
	"media-assist/infrastructure/filesystem"
	"media-assist/infrastructure/openai"

	"github.com/cucumber/godog"
)

// MockImageLookup implements sign.ImageLookup from memory
type MockImageLookup struct {
	images map[rune][]byte
}

func (m *MockImageLookup) Lookup(letter rune) (sign.Image, error) {
	l, err := sign.NormalizeLetter(letter)
	if err != nil {
		return sign.Image{}, err
	}
	data, ok := m.images[l]
	if !ok {
		return sign.Image{}, fmt.Errorf("%w for letter: %c", sign.ErrNotFound, l)
	}
	return sign.Image{Letter: l, Data: data, ContentType: "image/jpeg"}, nil
}

// MockPipeline implements cmd.Pipeline by echoing the video bytes
type MockPipeline struct {
	requests []media.PipelineRequest
}

func (m *MockPipeline) Run(ctx context.Context, req media.PipelineRequest) media.TranscriptionResult {
	m.requests = append(m.requests, req)
	return media.Succeeded("menu-run", string(req.Data), time.Millisecond)
}

type menuContext struct {
	tempDir       string
	images        *MockImageLookup
	translator    *MockTranslator
	pipeline      *MockPipeline
	speakerBroken bool
	micOpened     bool
	output        *bytes.Buffer
	err           error
}

var SharedMenuContext = &menuContext{}

func InitializeMenuScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedMenuContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "menu-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.images = &MockImageLookup{images: make(map[rune][]byte)}
		testCtx.translator = &MockTranslator{
			dictionary: make(map[string]map[string]string),
			languages:  []string{"fr", "hi"},
		}
		testCtx.pipeline = &MockPipeline{}
		testCtx.speakerBroken = false
		testCtx.micOpened = false
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedMenuContext = &menuContext{}
		return c, nil
	})

	ctx.Step(`^the menu has sign images for letters "([^"]*)"$`, testCtx.theMenuHasSignImagesForLetters)
	ctx.Step(`^the menu translator knows "([^"]*)" in "([^"]*)" as "([^"]*)"$`, testCtx.theMenuTranslatorKnowsInAs)
	ctx.Step(`^the menu translator cannot list languages$`, testCtx.theMenuTranslatorCannotListLanguages)
	ctx.Step(`^text to speech is not configured$`, testCtx.textToSpeechIsNotConfigured)
	ctx.Step(`^a menu video file "([^"]*)"$`, testCtx.aMenuVideoFile)
	ctx.Step(`^I use the menu answering:$`, testCtx.iUseTheMenuAnswering)
	ctx.Step(`^I use the menu and interrupt it$`, testCtx.iUseTheMenuAndInterruptIt)
	ctx.Step(`^the menu should exit without error$`, testCtx.theMenuShouldExitWithoutError)
	ctx.Step(`^the menu output should contain "([^"]*)"$`, testCtx.theMenuOutputShouldContain)
	ctx.Step(`^the microphone should not have been opened$`, testCtx.theMicrophoneShouldNotHaveBeenOpened)
}

func (m *menuContext) theMenuHasSignImagesForLetters(letters string) error {
	for _, l := range splitList(letters) {
		m.images.images[[]rune(l)[0]] = append([]byte{}, jpegHeader...)
	}
	return nil
}

func (m *menuContext) theMenuTranslatorKnowsInAs(text, target, translated string) error {
	if m.translator.dictionary[target] == nil {
		m.translator.dictionary[target] = make(map[string]string)
	}
	m.translator.dictionary[target][text] = translated
	return nil
}

func (m *menuContext) theMenuTranslatorCannotListLanguages() error {
	m.translator.noListing = true
	return nil
}

func (m *menuContext) textToSpeechIsNotConfigured() error {
	m.speakerBroken = true
	return nil
}

func (m *menuContext) aMenuVideoFile(name string) error {
	return os.WriteFile(filepath.Join(m.tempDir, name), []byte("transcript of "+strings.TrimSuffix(name, filepath.Ext(name))), 0644)
}

func (m *menuContext) features() cmd.MenuFeatures {
	return cmd.MenuFeatures{
		Speller: func() (cmd.Speller, error) {
			return appsign.NewService(m.images, nil), nil
		},
		Live: func() (cmd.LiveTranscriber, error) {
			m.micOpened = true
			return nil, fmt.Errorf("no microphone in tests")
		},
		Translation: func() (cmd.Translation, error) {
			return translation.NewService(m.translator, m.translator, "en", nil), nil
		},
		Speaker: func() (cmd.Speaker, error) {
			if m.speakerBroken {
				return nil, openai.ErrMissingAPIKey
			}
			return speech.NewService(&MockSynthesizer{}, "en", nil), nil
		},
		Pipeline: func() (cmd.Pipeline, error) {
			return m.pipeline, nil
		},
		Checker: func() (media.FileChecker, error) {
			return filesystem.NewChecker(), nil
		},
		MaxUploadBytes: 1 << 20,
	}
}

func (m *menuContext) run(prompter *MockPrompter) {
	// the menu offers a default entry, so an exhausted script must end it
	prompter.whenExhausted = cmd.ErrPromptCancelled
	m.err = cmd.RunMenuWithDependencies(context.Background(), prompter, m.features(), m.output)
}

func (m *menuContext) iUseTheMenuAnswering(table *godog.Table) error {
	prompter, err := parseAnswerTable(table)
	if err != nil {
		return err
	}
	for i, answer := range prompter.inputs {
		prompter.inputs[i] = strings.ReplaceAll(answer, "{videos}", m.tempDir)
	}
	m.run(prompter)
	return nil
}

func (m *menuContext) iUseTheMenuAndInterruptIt() error {
	m.run(&MockPrompter{})
	return nil
}

func (m *menuContext) theMenuShouldExitWithoutError() error {
	if m.err != nil {
		return fmt.Errorf("expected the menu to exit cleanly, got: %v", m.err)
	}
	return nil
}

func (m *menuContext) theMenuOutputShouldContain(expected string) error {
	if m.err != nil {
		return fmt.Errorf("menu failed: %v", m.err)
	}
	if !strings.Contains(m.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, m.output.String())
	}
	return nil
}

func (m *menuContext) theMicrophoneShouldNotHaveBeenOpened() error {
	if m.micOpened {
		return fmt.Errorf("expected the microphone not to be opened")
	}
	return nil
}
