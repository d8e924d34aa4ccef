package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"media-assist/domain/language"
	"media-assist/domain/media"

	"github.com/spf13/cobra"
)

// Menu entries, in the order they are offered
const (
	menuSign       = "Sign Language Translator"
	menuListen     = "Audio to Text Converter"
	menuTranslate  = "Text Translation"
	menuSpeak      = "Text to Speech Converter"
	menuTranscribe = "Video to Text Extractor"
	menuExit       = "Exit"
)

var menuOptions = []string{menuSign, menuListen, menuTranslate, menuSpeak, menuTranscribe, menuExit}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Choose a feature interactively",
	Long: `Navigate the five media-assist features from an interactive menu.

Requires an interactive terminal.`,
	RunE: runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

// Translation is what the menu needs from the translation service
type Translation interface {
	TextTranslator
	LanguageLister
}

// MenuFeatures builds each feature when it is first chosen, so a
// misconfigured backend only disables its own entry
type MenuFeatures struct {
	Speller        func() (Speller, error)
	Live           func() (LiveTranscriber, error)
	Translation    func() (Translation, error)
	Speaker        func() (Speaker, error)
	Pipeline       func() (Pipeline, error)
	Checker        func() (media.FileChecker, error)
	MaxUploadBytes int64
}

func runMenu(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("menu requires an interactive terminal; use the individual commands instead")
	}
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := GetLogger()

	features := MenuFeatures{
		Speller: func() (Speller, error) { return newSignService(cfg, log), nil },
		Live: func() (LiveTranscriber, error) {
			live, recorder, err := newLiveService(ctx, cfg, log)
			if err != nil {
				return nil, err
			}
			return live, verifyTools(ctx, recorder)
		},
		Translation: func() (Translation, error) { return newTranslationService(ctx, cfg, log) },
		Speaker:     func() (Speaker, error) { return newSpeechService(ctx, cfg, log) },
		Pipeline: func() (Pipeline, error) {
			p, err := newPipeline(ctx, cfg, log)
			if err != nil {
				return nil, err
			}
			return p.controller, verifyTools(ctx, p.extractor)
		},
		Checker:        func() (media.FileChecker, error) { return fileChecker(), nil },
		MaxUploadBytes: cfg.Pipeline.MaxUploadBytes,
	}
	return RunMenuWithDependencies(ctx, DefaultPrompter, features, DefaultOutput)
}

// RunMenuWithDependencies runs the interactive menu with injected dependencies (for testing)
func RunMenuWithDependencies(ctx context.Context, prompter Prompter, features MenuFeatures, output OutputWriter) error {
	fmt.Fprintln(output, "Welcome to media-assist!")

	for {
		fmt.Fprintln(output)
		choice, err := prompter.Select("What would you like to do?", menuOptions, menuSign)
		if errors.Is(err, ErrPromptCancelled) || choice == menuExit {
			fmt.Fprintln(output, "Goodbye.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(output, "\n== %s ==\n", choice)
		if err := runMenuChoice(ctx, prompter, features, choice, output); err != nil {
			if errors.Is(err, ErrPromptCancelled) {
				continue
			}
			fmt.Fprintf(output, "Error: %v\n", err)
		}
	}
}

func runMenuChoice(ctx context.Context, prompter Prompter, features MenuFeatures, choice string, output OutputWriter) error {
	switch choice {
	case menuSign:
		speller, err := features.Speller()
		if err != nil {
			return err
		}
		word, err := prompter.Input("Enter a word:", "")
		if err != nil {
			return err
		}
		return RunSignWithDependencies(speller, word, "", output)

	case menuListen:
		start, err := prompter.Confirm("Start recording?", true)
		if err != nil || !start {
			return err
		}
		live, err := features.Live()
		if err != nil {
			return err
		}
		return RunListenWithDependencies(ctx, live, output)

	case menuTranslate:
		translation, err := features.Translation()
		if err != nil {
			return err
		}
		text, err := prompter.Input("Enter text to be translated:", "")
		if err != nil {
			return err
		}
		target, err := selectLanguage(ctx, prompter, translation)
		if err != nil {
			return err
		}
		return RunTranslateWithDependencies(ctx, translation, text, target, output)

	case menuSpeak:
		speaker, err := features.Speaker()
		if err != nil {
			return err
		}
		text, err := prompter.Input("Enter text here:", "")
		if err != nil {
			return err
		}
		out, err := prompter.Input("Save audio to:", "speech.mp3")
		if err != nil {
			return err
		}
		return RunSpeakWithDependencies(ctx, speaker, text, "", out, output)

	case menuTranscribe:
		pipeline, err := features.Pipeline()
		if err != nil {
			return err
		}
		checker, err := features.Checker()
		if err != nil {
			return err
		}
		path, err := prompter.Input("Path to a video file (mp4, avi, mov, mkv):", "")
		if err != nil {
			return err
		}
		return RunTranscribeWithDependencies(ctx, pipeline, checker, TranscribeInput{
			Path:           strings.TrimSpace(path),
			MaxUploadBytes: features.MaxUploadBytes,
		}, output)
	}

	return fmt.Errorf("unknown menu entry %q", choice)
}

// selectLanguage offers the supported languages by name and returns the
// chosen code. If the list cannot be fetched a code is asked for instead.
func selectLanguage(ctx context.Context, prompter Prompter, lister LanguageLister) (string, error) {
	langs, err := lister.Languages(ctx)
	if err != nil || len(langs) == 0 {
		return prompter.Input("Target language code:", "en")
	}

	options := make([]string, len(langs))
	codes := make(map[string]string, len(langs))
	for i, l := range langs {
		options[i] = languageOption(l)
		codes[options[i]] = l.Code
	}

	choice, err := prompter.Select("Select target language:", options, "")
	if err != nil {
		return "", err
	}
	return codes[choice], nil
}

func languageOption(l language.Language) string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Code)
}
