package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"media-assist/domain/media"
	"media-assist/infrastructure/tempstore"
)

const (
	probeVideoWithAudio = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"aac","sample_rate":"44100","channels":2}],"format":{"format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}`
	probeVideoNoAudio   = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"}],"format":{"format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}`
	probeNativeWAV      = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"44100","channels":2}],"format":{"format_name":"wav"}}`
	probeNormalizedWAV  = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"16000","channels":1}],"format":{"format_name":"wav"}}`
)

// fakeRunner answers ffprobe with canned JSON and simulates ffmpeg by
// writing fixed bytes to the last argument
type fakeRunner struct {
	mu       sync.Mutex
	probe    string
	probeErr error
	runErr   error
	block    bool
	output   []byte
	runs     [][]string
	probes   [][]string
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, append([]string{name}, args...))
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return []byte(f.probe), nil
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.runs = append(f.runs, append([]string{name}, args...))
	block, runErr, output := f.block, f.runErr, f.output
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if runErr != nil {
		return runErr
	}
	return os.WriteFile(args[len(args)-1], output, 0o600)
}

func (f *fakeRunner) lastRun() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) == 0 {
		return nil
	}
	return f.runs[len(f.runs)-1]
}

// fakeWAV returns a canonical 44 byte header followed by samples, padded so
// the file holds more than a header
func fakeWAV(samples string) []byte {
	data := make([]byte, 44, 44+64)
	copy(data, "RIFF")
	data = append(data, samples...)
	for len(data) < 44+64 {
		data = append(data, 0)
	}
	return data
}

func newStore(t *testing.T) *tempstore.Store {
	t.Helper()
	s, err := tempstore.New(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func persist(t *testing.T, s *tempstore.Store, data, suffix string, kind media.Kind) media.Artifact {
	t.Helper()
	a, err := s.Persist([]byte(data), suffix, kind)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func fileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func containsSeq(args []string, seq ...string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		match := true
		for j := range seq {
			if args[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
