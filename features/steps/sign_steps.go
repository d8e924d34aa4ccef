//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	appsign "media-assist/application/sign"
	"media-assist/cmd"
	"media-assist/infrastructure/signimage"

	"github.com/cucumber/godog"
)

// jpegHeader is enough for content sniffing to report image/jpeg
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type signContext struct {
	tempDir  string
	imageDir string
	outDir   string
	output   *bytes.Buffer
	err      error
}

var SharedSignContext = &signContext{}

func InitializeSignScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSignContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "sign-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.imageDir = filepath.Join(tempDir, "signs")
		testCtx.outDir = ""
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, os.MkdirAll(testCtx.imageDir, 0755)
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedSignContext = &signContext{}
		return c, nil
	})

	ctx.Step(`^sign images exist for letters "([^"]*)"$`, testCtx.signImagesExistForLetters)
	ctx.Step(`^I spell "([^"]*)" in sign language$`, testCtx.iSpellInSignLanguage)
	ctx.Step(`^I spell "([^"]*)" in sign language into an output directory$`, testCtx.iSpellInSignLanguageIntoAnOutputDirectory)
	ctx.Step(`^the spelling should succeed$`, testCtx.theSpellingShouldSucceed)
	ctx.Step(`^the spelling should fail with "([^"]*)"$`, testCtx.theSpellingShouldFailWith)
	ctx.Step(`^the sign output should contain "([^"]*)"$`, testCtx.theSignOutputShouldContain)
	ctx.Step(`^the sign output should list letters "([^"]*)"$`, testCtx.theSignOutputShouldListLetters)
	ctx.Step(`^the sign output should not mention missing letters$`, testCtx.theSignOutputShouldNotMentionMissingLetters)
	ctx.Step(`^the output directory should contain "([^"]*)"$`, testCtx.theOutputDirectoryShouldContain)
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (s *signContext) signImagesExistForLetters(letters string) error {
	for _, l := range splitList(letters) {
		data := append(append([]byte{}, jpegHeader...), l...)
		path := filepath.Join(s.imageDir, fmt.Sprintf(signimage.DefaultPattern, l))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func (s *signContext) spell(word, outDir string) error {
	service := appsign.NewService(signimage.NewReader(s.imageDir, signimage.DefaultPattern), nil)
	s.err = cmd.RunSignWithDependencies(service, word, outDir, s.output)
	return nil
}

func (s *signContext) iSpellInSignLanguage(word string) error {
	return s.spell(word, "")
}

func (s *signContext) iSpellInSignLanguageIntoAnOutputDirectory(word string) error {
	s.outDir = filepath.Join(s.tempDir, "out")
	return s.spell(word, s.outDir)
}

func (s *signContext) theSpellingShouldSucceed() error {
	if s.err != nil {
		return fmt.Errorf("expected spelling to succeed, got: %v", s.err)
	}
	return nil
}

func (s *signContext) theSpellingShouldFailWith(message string) error {
	if s.err == nil {
		return fmt.Errorf("expected an error containing %q, but spelling succeeded", message)
	}
	if !strings.Contains(s.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, s.err)
	}
	return nil
}

func (s *signContext) theSignOutputShouldContain(expected string) error {
	if !strings.Contains(s.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, s.output.String())
	}
	return nil
}

func (s *signContext) theSignOutputShouldListLetters(letters string) error {
	var got []string
	for _, line := range strings.Split(s.output.String(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Letter: ") {
			got = append(got, strings.Fields(line)[1])
		}
	}
	want := splitList(letters)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected letters %v, got %v\noutput:\n%s", want, got, s.output.String())
	}
	return nil
}

func (s *signContext) theSignOutputShouldNotMentionMissingLetters() error {
	if strings.Contains(s.output.String(), "No image found") {
		return fmt.Errorf("expected every letter to be found, got:\n%s", s.output.String())
	}
	return nil
}

func (s *signContext) theOutputDirectoryShouldContain(files string) error {
	entries, err := os.ReadDir(s.outDir)
	if err != nil {
		return err
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	sort.Strings(got)

	want := splitList(files)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected files %v, got %v", want, got)
	}
	return nil
}
