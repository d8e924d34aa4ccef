package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	speakLanguage string
	speakOut      string
)

var speakCmd = &cobra.Command{
	Use:   "speak <text...>",
	Short: "Convert text to speech",
	Long: `Synthesize speech and save it as an MP3 file.

The backend is selected with tts.backend (google or openai).

Example:
  media-assist speak --language en --out hello.mp3 "Hello and welcome"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpeak,
}

func init() {
	rootCmd.AddCommand(speakCmd)
	speakCmd.Flags().StringVar(&speakLanguage, "language", "", "Language code (default from tts.language)")
	speakCmd.Flags().StringVar(&speakOut, "out", "speech.mp3", "Output MP3 file")
}

// Speaker converts text to MP3 audio
type Speaker interface {
	Speak(ctx context.Context, text, lang string) ([]byte, error)
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	svc, err := newSpeechService(cmd.Context(), cfg, GetLogger())
	if err != nil {
		return err
	}
	return RunSpeakWithDependencies(cmd.Context(), svc, strings.Join(args, " "), speakLanguage, speakOut, DefaultOutput)
}

// RunSpeakWithDependencies runs the speak command with injected dependencies (for testing)
func RunSpeakWithDependencies(ctx context.Context, speaker Speaker, text, lang, outPath string, output OutputWriter) error {
	if outPath == "" {
		return fmt.Errorf("output path is required")
	}

	audio, err := speaker.Speak(ctx, text, lang)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}

	fmt.Fprintf(output, "Saved %s of speech to %s\n", humanize.Bytes(uint64(len(audio))), outPath)
	return nil
}
