package ffmpeg

import (
	"context"
	"errors"
	"testing"
	"time"

	"media-assist/domain/media"
)

func TestRecorder_Record(t *testing.T) {
	store := newStore(t)
	runner := &fakeRunner{output: []byte("RIFF-mic")}
	recorder := NewRecorder(store, "alsa", "default", WithCommandRunner(runner))

	rec, err := recorder.Record(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if rec.Kind != media.KindRecording || rec.Size != int64(len("RIFF-mic")) {
		t.Errorf("unexpected artifact %+v", rec)
	}
	if !containsSeq(runner.lastRun(), "-f", "alsa", "-i", "default", "-t", "5.000") {
		t.Errorf("unexpected args %v", runner.lastRun())
	}
}

func TestRecorder_Failures(t *testing.T) {
	tests := []struct {
		name     string
		runner   *fakeRunner
		duration time.Duration
	}{
		{"zero duration", &fakeRunner{}, 0},
		{"device error", &fakeRunner{runErr: errors.New("cannot open audio device")}, time.Second},
		{"empty recording", &fakeRunner{}, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			recorder := NewRecorder(store, "alsa", "default", WithCommandRunner(tt.runner))

			_, err := recorder.Record(context.Background(), tt.duration)
			if !errors.Is(err, media.ErrCapture) {
				t.Fatalf("Record() error = %v, want ErrCapture", err)
			}
			if n := fileCount(t, store.Dir()); n != 0 {
				t.Errorf("failed recording left %d files", n)
			}
		})
	}
}
