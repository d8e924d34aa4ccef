//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"media-assist/application/transcription"
	"media-assist/cmd"
	"media-assist/domain/media"
	"media-assist/infrastructure/tempstore"

	"github.com/cucumber/godog"
)

// MockRecorder implements media.Recorder by writing a canned recording
type MockRecorder struct {
	store       *tempstore.Store
	speech      string
	unavailable bool
}

func (m *MockRecorder) Record(ctx context.Context, duration time.Duration) (media.Artifact, error) {
	if m.unavailable {
		return media.Artifact{}, media.Wrap(media.ErrCapture, "record", "input device not found", nil)
	}
	return m.store.Persist([]byte(m.speech), ".wav", media.KindRecording)
}

type listenContext struct {
	tempDir  string
	store    *tempstore.Store
	recorder *MockRecorder
	duration time.Duration
	output   *bytes.Buffer
	err      error
}

var SharedListenContext = &listenContext{}

func InitializeListenScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedListenContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "listen-test-*")
		if err != nil {
			return c, err
		}
		store, err := tempstore.New(tempDir)
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.store = store
		testCtx.recorder = &MockRecorder{store: store}
		testCtx.duration = 5 * time.Second
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedListenContext = &listenContext{}
		return c, nil
	})

	ctx.Step(`^the microphone will hear "([^"]*)"$`, testCtx.theMicrophoneWillHear)
	ctx.Step(`^the microphone is unavailable$`, testCtx.theMicrophoneIsUnavailable)
	ctx.Step(`^recordings last (\d+) seconds$`, testCtx.recordingsLastSeconds)
	ctx.Step(`^I listen and transcribe$`, testCtx.iListenAndTranscribe)
	ctx.Step(`^the listen output should contain "([^"]*)"$`, testCtx.theListenOutputShouldContain)
	ctx.Step(`^listening should fail with "([^"]*)"$`, testCtx.listeningShouldFailWith)
	ctx.Step(`^no recordings should remain$`, testCtx.noRecordingsShouldRemain)
}

func (l *listenContext) theMicrophoneWillHear(speech string) error {
	l.recorder.speech = speech
	return nil
}

func (l *listenContext) theMicrophoneIsUnavailable() error {
	l.recorder.unavailable = true
	return nil
}

func (l *listenContext) recordingsLastSeconds(seconds int) error {
	l.duration = time.Duration(seconds) * time.Second
	return nil
}

func (l *listenContext) iListenAndTranscribe() error {
	live := transcription.NewLiveService(
		l.store,
		l.recorder,
		&cloningNormalizer{store: l.store},
		echoTranscriber{},
		transcription.LiveConfig{Duration: l.duration, TranscribeTimeout: 10 * time.Second},
		nil,
	)
	l.err = cmd.RunListenWithDependencies(context.Background(), live, l.output)
	return nil
}

func (l *listenContext) theListenOutputShouldContain(expected string) error {
	if l.err != nil {
		return fmt.Errorf("listen failed: %v", l.err)
	}
	if !strings.Contains(l.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, l.output.String())
	}
	return nil
}

func (l *listenContext) listeningShouldFailWith(message string) error {
	if l.err == nil {
		return fmt.Errorf("expected an error containing %q, but listening succeeded", message)
	}
	if !strings.Contains(l.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, l.err)
	}
	return nil
}

func (l *listenContext) noRecordingsShouldRemain() error {
	entries, err := os.ReadDir(l.store.Dir())
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("expected no recordings left, found %d files", len(entries))
	}
	return nil
}
