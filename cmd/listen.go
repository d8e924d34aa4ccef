package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	listenDuration time.Duration
	listenLanguage string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transcribe speech from the microphone",
	Long: `Record a short clip from the microphone and print what was said.

The capture device is configured in the microphone section
(alsa/default on Linux, avfoundation on macOS, dshow on Windows).

Example:
  media-assist listen --duration 8s --language en-IN`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().DurationVar(&listenDuration, "duration", 0, "How long to record (default from microphone.duration)")
	listenCmd.Flags().StringVar(&listenLanguage, "language", "", "Spoken language, e.g. en-IN (default from microphone.language)")
}

// LiveTranscriber records from the microphone and transcribes the clip
type LiveTranscriber interface {
	CaptureAndTranscribe(ctx context.Context) (string, error)
	Duration() time.Duration
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if listenDuration > 0 {
		cfg.Microphone.Duration = listenDuration
	}
	if listenLanguage != "" {
		cfg.Microphone.Language = listenLanguage
	}

	live, recorder, err := newLiveService(cmd.Context(), cfg, GetLogger())
	if err != nil {
		return err
	}
	if err := verifyTools(cmd.Context(), recorder); err != nil {
		return err
	}
	return RunListenWithDependencies(cmd.Context(), live, DefaultOutput)
}

// RunListenWithDependencies runs the listen command with injected dependencies (for testing)
func RunListenWithDependencies(ctx context.Context, live LiveTranscriber, output OutputWriter) error {
	fmt.Fprintf(output, "Listening for %s...\n", live.Duration())

	text, err := live.CaptureAndTranscribe(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(output, "Transcribed Text:")
	fmt.Fprintln(output, text)
	return nil
}
