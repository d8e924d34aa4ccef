//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-assist/application/transcription"
	"media-assist/cmd"
	"media-assist/domain/media"
	"media-assist/infrastructure/filesystem"
	"media-assist/infrastructure/tempstore"

	"github.com/cucumber/godog"
)

// Video payloads understood by the fake extractor
const (
	audioPrefix  = "audio:"
	silentVideo  = "video-without-audio"
	corruptVideo = "\x00\x00garbage"
)

type transcriptionContext struct {
	tempDir   string
	videoDir  string
	store     *tempstore.Store
	extractor *scriptedExtractor
	allowed   []string
	maxUpload int64
	output    *bytes.Buffer
	err       error
}

var SharedTranscriptionContext = &transcriptionContext{}

// scriptedExtractor reads the fake video and writes its "audio" to the store
type scriptedExtractor struct {
	store *tempstore.Store
	mu    sync.Mutex
	calls int
	clip  *media.Clip
}

func (e *scriptedExtractor) Extract(ctx context.Context, video media.Artifact, opts media.ExtractOptions) (media.Artifact, error) {
	e.mu.Lock()
	e.calls++
	e.clip = opts.Clip
	e.mu.Unlock()

	data, err := os.ReadFile(video.Path)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", "", err)
	}
	content := string(data)
	switch {
	case content == silentVideo:
		return media.Artifact{}, media.Wrap(media.ErrNoAudioTrack, "extract", "", nil)
	case !strings.HasPrefix(content, audioPrefix):
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", "invalid data found when processing input", nil)
	}
	return e.store.Persist([]byte(strings.TrimPrefix(content, audioPrefix)), ".wav", media.KindRawAudio)
}

// cloningNormalizer copies the raw audio unchanged, like the real normalizer
// does when the input already has the target format
type cloningNormalizer struct {
	store *tempstore.Store
}

func (n *cloningNormalizer) Normalize(ctx context.Context, audio media.Artifact) (media.Artifact, error) {
	return n.store.Clone(audio, media.KindNormalizedAudio)
}

// echoTranscriber returns the audio bytes as the transcript
type echoTranscriber struct{}

func (echoTranscriber) Transcribe(ctx context.Context, audio media.Artifact) (string, error) {
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return "", media.Wrap(media.ErrStorage, "transcribe", "", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", media.Wrap(media.ErrRecognition, "transcribe", "no speech recognized", nil)
	}
	return string(data), nil
}

func InitializeTranscriptionScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedTranscriptionContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "transcription-test-*")
		if err != nil {
			return c, err
		}
		store, err := tempstore.New(filepath.Join(tempDir, "artifacts"))
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.videoDir = filepath.Join(tempDir, "videos")
		testCtx.store = store
		testCtx.extractor = &scriptedExtractor{store: store}
		testCtx.allowed = []string{"mp4"}
		testCtx.maxUpload = 0
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, os.MkdirAll(testCtx.videoDir, 0755)
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedTranscriptionContext = &transcriptionContext{}
		return c, nil
	})

	ctx.Step(`^the pipeline accepts "([^"]*)" videos$`, testCtx.thePipelineAcceptsVideos)
	ctx.Step(`^a video file "([^"]*)" whose audio says "([^"]*)"$`, testCtx.aVideoFileWhoseAudioSays)
	ctx.Step(`^a video file "([^"]*)" without an audio track$`, testCtx.aVideoFileWithoutAnAudioTrack)
	ctx.Step(`^a corrupt video file "([^"]*)"$`, testCtx.aCorruptVideoFile)
	ctx.Step(`^the upload limit is (\d+) bytes$`, testCtx.theUploadLimitIsBytes)
	ctx.Step(`^I transcribe the video "([^"]*)"$`, testCtx.iTranscribeTheVideo)
	ctx.Step(`^I transcribe the video "([^"]*)" from "([^"]*)" to "([^"]*)"$`, testCtx.iTranscribeTheVideoFromTo)
	ctx.Step(`^I transcribe the video "([^"]*)" as JSON$`, testCtx.iTranscribeTheVideoAsJSON)
	ctx.Step(`^the transcription should succeed$`, testCtx.theTranscriptionShouldSucceed)
	ctx.Step(`^the transcription should fail with kind "([^"]*)"$`, testCtx.theTranscriptionShouldFailWithKind)
	ctx.Step(`^the transcribe command should fail with "([^"]*)"$`, testCtx.theTranscribeCommandShouldFailWith)
	ctx.Step(`^the transcription output should contain "([^"]*)"$`, testCtx.theTranscriptionOutputShouldContain)
	ctx.Step(`^the JSON result should have text "([^"]*)"$`, testCtx.theJSONResultShouldHaveText)
	ctx.Step(`^no pipeline files should remain$`, testCtx.noPipelineFilesShouldRemain)
	ctx.Step(`^the extractor should not have been called$`, testCtx.theExtractorShouldNotHaveBeenCalled)
	ctx.Step(`^the extractor should have received a clip of (\d+) seconds$`, testCtx.theExtractorShouldHaveReceivedAClipOfSeconds)
}

func (t *transcriptionContext) thePipelineAcceptsVideos(list string) error {
	t.allowed = nil
	for _, ext := range strings.Split(list, ",") {
		t.allowed = append(t.allowed, strings.TrimSpace(ext))
	}
	return nil
}

func (t *transcriptionContext) writeVideo(name, content string) error {
	return os.WriteFile(filepath.Join(t.videoDir, name), []byte(content), 0644)
}

func (t *transcriptionContext) aVideoFileWhoseAudioSays(name, speech string) error {
	return t.writeVideo(name, audioPrefix+speech)
}

func (t *transcriptionContext) aVideoFileWithoutAnAudioTrack(name string) error {
	return t.writeVideo(name, silentVideo)
}

func (t *transcriptionContext) aCorruptVideoFile(name string) error {
	return t.writeVideo(name, corruptVideo)
}

func (t *transcriptionContext) theUploadLimitIsBytes(limit int) error {
	t.maxUpload = int64(limit)
	return nil
}

func (t *transcriptionContext) transcribe(input cmd.TranscribeInput) error {
	controller := transcription.NewController(
		t.store,
		t.extractor,
		&cloningNormalizer{store: t.store},
		echoTranscriber{},
		transcription.Config{
			DecodeTimeout:     10 * time.Second,
			TranscribeTimeout: 10 * time.Second,
			AllowedExtensions: t.allowed,
		},
	)

	input.Path = filepath.Join(t.videoDir, input.Path)
	input.MaxUploadBytes = t.maxUpload
	t.err = cmd.RunTranscribeWithDependencies(context.Background(), controller, filesystem.NewChecker(), input, t.output)
	return nil
}

func (t *transcriptionContext) iTranscribeTheVideo(name string) error {
	return t.transcribe(cmd.TranscribeInput{Path: name})
}

func (t *transcriptionContext) iTranscribeTheVideoFromTo(name, start, end string) error {
	return t.transcribe(cmd.TranscribeInput{Path: name, StartTime: start, EndTime: end})
}

func (t *transcriptionContext) iTranscribeTheVideoAsJSON(name string) error {
	return t.transcribe(cmd.TranscribeInput{Path: name, JSON: true})
}

func (t *transcriptionContext) theTranscriptionShouldSucceed() error {
	if t.err != nil {
		return fmt.Errorf("expected success but got error: %v\noutput:\n%s", t.err, t.output.String())
	}
	return nil
}

func (t *transcriptionContext) theTranscriptionShouldFailWithKind(kind string) error {
	if t.err == nil {
		return fmt.Errorf("expected transcription to fail with %s, but it succeeded", kind)
	}
	if !strings.Contains(t.err.Error(), cmd.ErrTranscriptionFailed.Error()) {
		return fmt.Errorf("expected a pipeline failure, got: %v", t.err)
	}
	if !strings.Contains(t.err.Error(), "("+kind+")") {
		return fmt.Errorf("expected error kind %s, got: %v", kind, t.err)
	}
	return nil
}

func (t *transcriptionContext) theTranscribeCommandShouldFailWith(message string) error {
	if t.err == nil {
		return fmt.Errorf("expected an error containing %q, but the command succeeded", message)
	}
	if !strings.Contains(t.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, t.err)
	}
	return nil
}

func (t *transcriptionContext) theTranscriptionOutputShouldContain(expected string) error {
	if !strings.Contains(t.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, t.output.String())
	}
	return nil
}

func (t *transcriptionContext) theJSONResultShouldHaveText(expected string) error {
	var result media.TranscriptionResult
	if err := json.Unmarshal(t.output.Bytes(), &result); err != nil {
		return fmt.Errorf("output is not a JSON result: %v\n%s", err, t.output.String())
	}
	if !result.Success {
		return fmt.Errorf("expected success in JSON result, got error %s: %s", result.ErrorKind, result.Error)
	}
	if result.Text != expected {
		return fmt.Errorf("expected text %q, got %q", expected, result.Text)
	}
	if result.SourceID == "" {
		return fmt.Errorf("expected a source_id in the JSON result")
	}
	return nil
}

func (t *transcriptionContext) noPipelineFilesShouldRemain() error {
	entries, err := os.ReadDir(t.store.Dir())
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return fmt.Errorf("expected no artifacts left, found: %s", strings.Join(names, ", "))
	}
	return nil
}

func (t *transcriptionContext) theExtractorShouldNotHaveBeenCalled() error {
	if t.extractor.calls != 0 {
		return fmt.Errorf("expected extractor not to be called, it was called %d times", t.extractor.calls)
	}
	return nil
}

func (t *transcriptionContext) theExtractorShouldHaveReceivedAClipOfSeconds(seconds int) error {
	clip := t.extractor.clip
	if clip == nil {
		return fmt.Errorf("expected extractor to receive a clip")
	}
	got := clip.End.TotalSeconds() - clip.Start.TotalSeconds()
	if got != seconds {
		return fmt.Errorf("expected a clip of %d seconds, got %d (%s to %s)", seconds, got, clip.Start, clip.End)
	}
	return nil
}
