package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"media-assist/domain/media"
)

func TestExtractor_Extract(t *testing.T) {
	store := newStore(t)
	runner := &fakeRunner{probe: probeVideoWithAudio, output: fakeWAV("wave")}
	extractor := NewExtractor(store, WithCommandRunner(runner), WithFFmpegPath("/opt/ffmpeg"))
	video := persist(t, store, "video-bytes", ".mp4", media.KindVideo)

	audio, err := extractor.Extract(context.Background(), video, media.ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if audio.Kind != media.KindRawAudio || !strings.HasSuffix(audio.Path, ".wav") {
		t.Errorf("unexpected artifact %+v", audio)
	}

	args := runner.lastRun()
	if args[0] != "/opt/ffmpeg" {
		t.Errorf("ffmpeg path = %q", args[0])
	}
	for _, seq := range [][]string{
		{"-i", video.Path},
		{"-map", "0:a:0"},
		{"-vn", "-sn", "-dn"},
		{"-c:a", "pcm_s16le"},
		{"-bitexact"},
		{"-f", "wav"},
	} {
		if !containsSeq(args, seq...) {
			t.Errorf("args %v missing %v", args, seq)
		}
	}
	if containsSeq(args, "-ar") || containsSeq(args, "-ac") {
		t.Errorf("extraction must keep the native format, got %v", args)
	}

	got, err := os.ReadFile(video.Path)
	if err != nil || string(got) != "video-bytes" {
		t.Errorf("input artifact was modified: %q, %v", got, err)
	}
}

func TestExtractor_ClipWindow(t *testing.T) {
	store := newStore(t)
	runner := &fakeRunner{probe: probeVideoWithAudio, output: fakeWAV("clip")}
	extractor := NewExtractor(store, WithCommandRunner(runner))
	video := persist(t, store, "v", ".mp4", media.KindVideo)

	clip, err := media.ParseClip("00:00:05", "00:00:10")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := extractor.Extract(context.Background(), video, media.ExtractOptions{Clip: &clip}); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !containsSeq(runner.lastRun(), "-ss", "00:00:05", "-to", "00:00:10") {
		t.Errorf("clip not passed to ffmpeg: %v", runner.lastRun())
	}
}

func TestExtractor_ClipPastEnd(t *testing.T) {
	store := newStore(t)
	// ffmpeg seeks past the last sample and writes a header with no data
	runner := &fakeRunner{probe: probeVideoWithAudio, output: fakeWAV("")[:44]}
	extractor := NewExtractor(store, WithCommandRunner(runner))
	video := persist(t, store, "v", ".mp4", media.KindVideo)

	clip, err := media.ParseClip("01:00:00", "01:00:30")
	if err != nil {
		t.Fatal(err)
	}
	_, err = extractor.Extract(context.Background(), video, media.ExtractOptions{Clip: &clip})
	if !errors.Is(err, media.ErrDecode) {
		t.Fatalf("Extract() error = %v, want ErrDecode", err)
	}
	if !strings.Contains(err.Error(), "clip window contains no audio") {
		t.Errorf("error %q should say the clip holds no audio", err)
	}
	if n := fileCount(t, store.Dir()); n != 1 {
		t.Errorf("expected only the input artifact to remain, found %d files", n)
	}
}

func TestExtractor_IsDeterministic(t *testing.T) {
	store := newStore(t)
	runner := &fakeRunner{probe: probeVideoWithAudio, output: fakeWAV("same-waveform")}
	extractor := NewExtractor(store, WithCommandRunner(runner))
	video := persist(t, store, "v", ".mp4", media.KindVideo)

	first, err := extractor.Extract(context.Background(), video, media.ExtractOptions{})
	if err != nil {
		t.Fatal(err)
	}
	firstArgs := runner.lastRun()
	second, err := extractor.Extract(context.Background(), video, media.ExtractOptions{})
	if err != nil {
		t.Fatal(err)
	}
	secondArgs := runner.lastRun()

	if first.Path == second.Path {
		t.Error("each extraction must produce its own artifact")
	}
	a, _ := os.ReadFile(first.Path)
	b, _ := os.ReadFile(second.Path)
	if !bytes.Equal(a, b) {
		t.Error("repeated extraction produced different audio")
	}
	// only the output path may differ between runs
	if strings.Join(firstArgs[:len(firstArgs)-1], " ") != strings.Join(secondArgs[:len(secondArgs)-1], " ") {
		t.Errorf("arguments differ between runs:\n%v\n%v", firstArgs, secondArgs)
	}
}

func TestExtractor_Failures(t *testing.T) {
	tests := []struct {
		name     string
		runner   *fakeRunner
		wantKind error
	}{
		{
			name:     "no audio track",
			runner:   &fakeRunner{probe: probeVideoNoAudio},
			wantKind: media.ErrNoAudioTrack,
		},
		{
			name:     "unreadable container",
			runner:   &fakeRunner{probeErr: errors.New("Invalid data found when processing input")},
			wantKind: media.ErrDecode,
		},
		{
			name:     "empty probe report",
			runner:   &fakeRunner{probe: `{}`},
			wantKind: media.ErrDecode,
		},
		{
			name:     "garbage probe output",
			runner:   &fakeRunner{probe: `not json`},
			wantKind: media.ErrDecode,
		},
		{
			name:     "ffmpeg fails",
			runner:   &fakeRunner{probe: probeVideoWithAudio, runErr: errors.New("exit status 1")},
			wantKind: media.ErrDecode,
		},
		{
			name:     "ffmpeg writes nothing",
			runner:   &fakeRunner{probe: probeVideoWithAudio, output: nil},
			wantKind: media.ErrDecode,
		},
		{
			name:     "ffmpeg writes only a header",
			runner:   &fakeRunner{probe: probeVideoWithAudio, output: fakeWAV("")[:44]},
			wantKind: media.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			extractor := NewExtractor(store, WithCommandRunner(tt.runner))
			video := persist(t, store, "v", ".mp4", media.KindVideo)

			_, err := extractor.Extract(context.Background(), video, media.ExtractOptions{})
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantKind)
			}
			if n := fileCount(t, store.Dir()); n != 1 {
				t.Errorf("expected only the input artifact to remain, found %d files", n)
			}
		})
	}
}

func TestExtractor_TimeoutIsDecodeError(t *testing.T) {
	store := newStore(t)
	runner := &fakeRunner{probe: probeVideoWithAudio, block: true}
	extractor := NewExtractor(store, WithCommandRunner(runner))
	video := persist(t, store, "v", ".mp4", media.KindVideo)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := extractor.Extract(ctx, video, media.ExtractOptions{})
	if !errors.Is(err, media.ErrDecode) {
		t.Fatalf("Extract() error = %v, want ErrDecode", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error %q should say the decode timed out", err)
	}
}

func TestVerifyInstalled(t *testing.T) {
	runner := &fakeRunner{}
	extractor := NewExtractor(newStore(t), WithCommandRunner(runner))
	if err := extractor.VerifyInstalled(context.Background()); err != nil {
		t.Fatalf("VerifyInstalled() error: %v", err)
	}
	if len(runner.probes) != 2 || runner.probes[0][1] != "-version" {
		t.Errorf("unexpected calls %v", runner.probes)
	}

	runner.probeErr = errors.New("not found")
	if err := extractor.VerifyInstalled(context.Background()); err == nil {
		t.Error("expected error when ffmpeg is missing")
	}
}
