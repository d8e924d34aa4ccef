package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"media-assist/domain/media"
	"media-assist/infrastructure/tempstore"
)

// --- Fakes for the pipeline stages ---

// fakeExtractor implements media.AudioExtractor by persisting a fixed
// payload, or the video bytes themselves when passthrough is set
type fakeExtractor struct {
	store       media.Store
	err         error
	panicMsg    string
	block       bool
	passthrough bool
	gotClip     *media.Clip
	mu          sync.Mutex
}

func (f *fakeExtractor) Extract(ctx context.Context, video media.Artifact, opts media.ExtractOptions) (media.Artifact, error) {
	f.mu.Lock()
	f.gotClip = opts.Clip
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block {
		<-ctx.Done()
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", "decode timed out", ctx.Err())
	}
	if f.err != nil {
		return media.Artifact{}, f.err
	}
	data, err := os.ReadFile(video.Path)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrDecode, "extract", "input missing", err)
	}
	if !f.passthrough {
		data = []byte("RIFF-raw")
	}
	return f.store.Persist(data, ".wav", media.KindRawAudio)
}

// fakeNormalizer implements media.AudioNormalizer
type fakeNormalizer struct {
	store media.Store
	err   error
}

func (f *fakeNormalizer) Normalize(ctx context.Context, audio media.Artifact) (media.Artifact, error) {
	if f.err != nil {
		return media.Artifact{}, f.err
	}
	return f.store.Clone(audio, media.KindNormalizedAudio)
}

// fakeTranscriber implements media.Transcriber. With echo set it returns
// the bytes of the audio it was given.
type fakeTranscriber struct {
	text     string
	echo     bool
	err      error
	panicMsg string
	failFor  func(path string) bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio media.Artifact) (string, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return "", f.err
	}
	if f.failFor != nil && f.failFor(audio.Path) {
		return "", media.Wrap(media.ErrRecognition, "transcribe", "no speech", nil)
	}
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return "", fmt.Errorf("audio missing: %w", err)
	}
	if f.echo {
		return string(data), nil
	}
	return f.text, nil
}

// recordingObserver collects transitions
type recordingObserver struct {
	mu          sync.Mutex
	transitions []Transition
}

func (o *recordingObserver) observe(t Transition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, t)
}

func (o *recordingObserver) states(requestID string) []media.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	var states []media.State
	for _, t := range o.transitions {
		if t.RequestID == requestID {
			states = append(states, t.To)
		}
	}
	return states
}

type harness struct {
	dir         string
	store       *tempstore.Store
	extractor   *fakeExtractor
	normalizer  *fakeNormalizer
	transcriber *fakeTranscriber
	observer    *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	store, err := tempstore.New(dir)
	if err != nil {
		t.Fatalf("tempstore.New() error: %v", err)
	}
	return &harness{
		dir:         dir,
		store:       store,
		extractor:   &fakeExtractor{store: store},
		normalizer:  &fakeNormalizer{store: store},
		transcriber: &fakeTranscriber{text: "hello world"},
		observer:    &recordingObserver{},
	}
}

func (h *harness) controller(cfg Config) *Controller {
	if cfg.AllowedExtensions == nil {
		cfg.AllowedExtensions = []string{"mp4", "avi", "mov", "mkv"}
	}
	return NewController(h.store, h.extractor, h.normalizer, h.transcriber, cfg, WithObserver(h.observer.observe))
}

func (h *harness) leftovers(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func video(id string) media.PipelineRequest {
	return media.PipelineRequest{ID: id, Data: []byte("fake mp4 bytes"), Extension: ".MP4"}
}

func TestController_Run_Success(t *testing.T) {
	h := newHarness(t)

	result := h.controller(Config{}).Run(context.Background(), video("req-1"))

	if !result.Success {
		t.Fatalf("Run() failed: %s: %s", result.ErrorKind, result.Error)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.SourceID != "req-1" {
		t.Errorf("SourceID = %q", result.SourceID)
	}
	if left := h.leftovers(t); len(left) != 0 {
		t.Errorf("artifacts left behind: %v", left)
	}

	want := []media.State{
		media.StatePersisting, media.StateExtracting, media.StateNormalizing,
		media.StateTranscribing, media.StateCleanup, media.StateDone,
	}
	got := h.observer.states("req-1")
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("states = %v, want %v", got, want)
	}
}

func TestController_Run_Failures(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *harness)
		wantKind   string
		wantStates []media.State
	}{
		{
			name: "no audio track",
			setup: func(h *harness) {
				h.extractor.err = media.Wrap(media.ErrNoAudioTrack, "extract", "video has no audio track", nil)
			},
			wantKind:   "NoAudioTrackError",
			wantStates: []media.State{media.StatePersisting, media.StateExtracting, media.StateCleanup, media.StateFailed},
		},
		{
			name: "corrupt container",
			setup: func(h *harness) {
				h.extractor.err = media.Wrap(media.ErrDecode, "extract", "cannot read container", errors.New("moov atom not found"))
			},
			wantKind: "DecodeError",
		},
		{
			name:     "extractor panics",
			setup:    func(h *harness) { h.extractor.panicMsg = "nil map" },
			wantKind: "DecodeError",
		},
		{
			name: "unsupported format",
			setup: func(h *harness) {
				h.normalizer.err = media.Wrap(media.ErrUnsupportedFormat, "normalize", "no audio stream", nil)
			},
			wantKind: "UnsupportedFormatError",
		},
		{
			name:     "untyped normalizer error",
			setup:    func(h *harness) { h.normalizer.err = errors.New("boom") },
			wantKind: "UnsupportedFormatError",
		},
		{
			name: "recognition failure",
			setup: func(h *harness) {
				h.transcriber.err = media.Wrap(media.ErrRecognition, "transcribe", "no speech could be recognized", nil)
			},
			wantKind: "RecognitionError",
			wantStates: []media.State{
				media.StatePersisting, media.StateExtracting, media.StateNormalizing,
				media.StateTranscribing, media.StateCleanup, media.StateFailed,
			},
		},
		{
			name:     "transcriber panics",
			setup:    func(h *harness) { h.transcriber.panicMsg = "index out of range" },
			wantKind: "RecognitionError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			result := h.controller(Config{}).Run(context.Background(), video("req"))

			if result.Success {
				t.Fatal("Run() succeeded, want failure")
			}
			if result.ErrorKind != tt.wantKind {
				t.Errorf("ErrorKind = %q, want %q (error: %s)", result.ErrorKind, tt.wantKind, result.Error)
			}
			if result.Text != "" {
				t.Errorf("Text = %q, want empty", result.Text)
			}
			if result.Error == "" {
				t.Error("Error message is empty")
			}
			if left := h.leftovers(t); len(left) != 0 {
				t.Errorf("artifacts left behind: %v", left)
			}
			if tt.wantStates != nil {
				if got := h.observer.states("req"); fmt.Sprint(got) != fmt.Sprint(tt.wantStates) {
					t.Errorf("states = %v, want %v", got, tt.wantStates)
				}
			}
		})
	}
}

func TestController_Run_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  media.PipelineRequest
	}{
		{name: "empty payload", req: media.PipelineRequest{Extension: "mp4"}},
		{name: "missing extension", req: media.PipelineRequest{Data: []byte("x")}},
		{name: "extension not allowed", req: media.PipelineRequest{Data: []byte("x"), Extension: "txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.req.ID = "bad"

			result := h.controller(Config{}).Run(context.Background(), tt.req)

			if result.Success || result.ErrorKind != "InvalidRequestError" {
				t.Errorf("result = %+v, want InvalidRequestError", result)
			}
			if left := h.leftovers(t); len(left) != 0 {
				t.Errorf("files created for invalid request: %v", left)
			}
			want := []media.State{media.StateCleanup, media.StateFailed}
			if got := h.observer.states("bad"); fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("states = %v, want %v", got, want)
			}
		})
	}
}

func TestController_Run_DecodeTimeout(t *testing.T) {
	h := newHarness(t)
	h.extractor.block = true

	start := time.Now()
	result := h.controller(Config{DecodeTimeout: 20 * time.Millisecond}).Run(context.Background(), video("slow"))

	if result.ErrorKind != "DecodeError" {
		t.Errorf("ErrorKind = %q, want DecodeError", result.ErrorKind)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("decode deadline was not applied")
	}
	if left := h.leftovers(t); len(left) != 0 {
		t.Errorf("artifacts left behind: %v", left)
	}
}

func TestController_Run_PassesClip(t *testing.T) {
	h := newHarness(t)
	clip, err := media.ParseClip("00:00:05", "00:01:00")
	if err != nil {
		t.Fatal(err)
	}
	req := video("clip")
	req.Clip = &clip

	if result := h.controller(Config{}).Run(context.Background(), req); !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if h.extractor.gotClip == nil || h.extractor.gotClip.Length() != 55*time.Second {
		t.Errorf("clip not passed to extractor: %+v", h.extractor.gotClip)
	}
}

func TestController_Run_GeneratesID(t *testing.T) {
	h := newHarness(t)
	c := NewController(h.store, h.extractor, h.normalizer, h.transcriber, Config{},
		WithIDGenerator(func() string { return "generated" }))

	result := c.Run(context.Background(), media.PipelineRequest{Data: []byte("x"), Extension: "mkv"})
	if result.SourceID != "generated" {
		t.Errorf("SourceID = %q, want generated", result.SourceID)
	}
}

func TestController_Run_Parallel(t *testing.T) {
	h := newHarness(t)
	h.extractor.passthrough = true
	h.transcriber.echo = true
	// audio that starts with "silent" is not recognized
	h.transcriber.failFor = func(path string) bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.HasPrefix(string(data), "silent")
	}
	c := h.controller(Config{})

	const n = 24
	payload := func(i int) string {
		if i%3 == 2 {
			return fmt.Sprintf("silent clip %d", i)
		}
		return fmt.Sprintf("speech from request %d", i)
	}

	results := make([]media.TranscriptionResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := video(fmt.Sprintf("req-%d", i))
			req.Data = []byte(payload(i))
			results[i] = c.Run(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r.SourceID != fmt.Sprintf("req-%d", i) {
			t.Errorf("result %d has SourceID %q", i, r.SourceID)
		}
		if i%3 == 2 {
			if r.Success || r.ErrorKind != "RecognitionError" {
				t.Errorf("result %d: want RecognitionError, got success=%v %s: %s", i, r.Success, r.ErrorKind, r.Error)
			}
			continue
		}
		if !r.Success {
			t.Errorf("result %d: unexpected failure %s: %s", i, r.ErrorKind, r.Error)
			continue
		}
		if want := payload(i); r.Text != want {
			t.Errorf("result %d: Text = %q, want %q", i, r.Text, want)
		}
	}
	if left := h.leftovers(t); len(left) != 0 {
		t.Errorf("artifacts left behind: %v", strings.Join(left, ", "))
	}
}
