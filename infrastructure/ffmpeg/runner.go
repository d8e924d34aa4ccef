package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError is returned when a tool exits unsuccessfully. Stderr holds
// the tail of what the tool printed.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecCommandRunner is the production implementation using os/exec.
// Each tool runs in its own process, so a crashing decoder only fails the
// current call, and the context deadline kills it if it hangs.
type ExecCommandRunner struct{}

// Run executes a command and returns any error
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{Name: name, Stderr: tail(stderr.String(), 5), Err: err}
	}
	return nil
}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &CommandError{Name: name, Stderr: tail(stderr.String(), 5), Err: err}
	}
	return out, nil
}

func tail(s string, lines int) string {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}

// tools holds what every ffmpeg-backed component needs
type tools struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
}

// Option is a functional option shared by the ffmpeg components
type Option func(*tools)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) Option {
	return func(t *tools) {
		if path != "" {
			t.ffmpegPath = path
		}
	}
}

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) Option {
	return func(t *tools) {
		if path != "" {
			t.ffprobePath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) Option {
	return func(t *tools) {
		t.runner = runner
	}
}

func newTools(opts []Option) tools {
	t := tools{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// VerifyInstalled checks that ffmpeg and ffprobe are available
func (t tools) VerifyInstalled(ctx context.Context) error {
	if _, err := t.runner.Output(ctx, t.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	if _, err := t.runner.Output(ctx, t.ffprobePath, "-version"); err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}

// baseArgs are the flags every ffmpeg invocation starts with
func baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}
}

// deterministicWAV are output flags that keep repeated runs byte-identical
func deterministicWAV() []string {
	return []string{"-c:a", "pcm_s16le", "-map_metadata", "-1", "-bitexact", "-f", "wav"}
}
