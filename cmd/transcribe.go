package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"media-assist/domain/media"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// ErrTranscriptionFailed is returned when the pipeline reports a failure
var ErrTranscriptionFailed = errors.New("transcription failed")

var (
	transcribeStart string
	transcribeEnd   string
	transcribeJSON  bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <video>",
	Short: "Extract a transcript from a video file",
	Long: `Extract the audio track of a video and transcribe it.

Supported containers are listed in pipeline.allowed_extensions
(mp4, avi, mov and mkv by default). Use --start and --end to transcribe
only part of the video.

Examples:
  media-assist transcribe lecture.mp4
  media-assist transcribe lecture.mp4 --start 00:05:00 --end 00:06:30 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVar(&transcribeStart, "start", "", "Start timestamp in HH:MM:SS format")
	transcribeCmd.Flags().StringVar(&transcribeEnd, "end", "", "End timestamp in HH:MM:SS format")
	transcribeCmd.Flags().BoolVar(&transcribeJSON, "json", false, "Print the result as JSON")
}

// Pipeline runs one video through transcription
type Pipeline interface {
	Run(ctx context.Context, req media.PipelineRequest) media.TranscriptionResult
}

// TranscribeInput contains the parameters of the transcribe command
type TranscribeInput struct {
	Path           string
	StartTime      string
	EndTime        string
	JSON           bool
	MaxUploadBytes int64
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd.Context(), cfg, GetLogger())
	if err != nil {
		return err
	}
	if err := verifyTools(cmd.Context(), p.extractor); err != nil {
		return err
	}

	return RunTranscribeWithDependencies(
		cmd.Context(),
		p.controller,
		fileChecker(),
		TranscribeInput{
			Path:           args[0],
			StartTime:      transcribeStart,
			EndTime:        transcribeEnd,
			JSON:           transcribeJSON,
			MaxUploadBytes: cfg.Pipeline.MaxUploadBytes,
		},
		DefaultOutput,
	)
}

// RunTranscribeWithDependencies runs the transcribe command with injected dependencies (for testing)
func RunTranscribeWithDependencies(
	ctx context.Context,
	pipeline Pipeline,
	checker media.FileChecker,
	input TranscribeInput,
	output OutputWriter,
) error {
	if !checker.Exists(input.Path) {
		return fmt.Errorf("video file does not exist: %s", input.Path)
	}
	size, err := checker.Size(input.Path)
	if err != nil {
		return err
	}
	if input.MaxUploadBytes > 0 && size > input.MaxUploadBytes {
		return fmt.Errorf("video is %s, larger than the %s limit (pipeline.max_upload_bytes)",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(input.MaxUploadBytes)))
	}

	req := media.PipelineRequest{Extension: filepath.Ext(input.Path)}
	if input.StartTime != "" || input.EndTime != "" {
		clip, err := media.ParseClip(input.StartTime, input.EndTime)
		if err != nil {
			return err
		}
		req.Clip = &clip
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return fmt.Errorf("failed to read video: %w", err)
	}
	req.Data = data

	if !input.JSON {
		fmt.Fprintf(output, "Extracting audio and converting to text (%s, %s)...\n",
			filepath.Base(input.Path), humanize.IBytes(uint64(size)))
	}

	result := pipeline.Run(ctx, req)

	if input.JSON {
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else if result.Success {
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Extracted Text:")
		fmt.Fprintln(output, result.Text)
	}

	if !result.Success {
		return fmt.Errorf("%w (%s): %s", ErrTranscriptionFailed, result.ErrorKind, result.Error)
	}
	return nil
}
