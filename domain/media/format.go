package media

import "fmt"

// DefaultCodec is the PCM codec every audio artifact uses
const DefaultCodec = "pcm_s16le"

// AudioFormat describes the waveform layout a consumer expects
type AudioFormat struct {
	SampleRate int
	Channels   int
	Codec      string
}

// Matches returns true if the formats are interchangeable
func (f AudioFormat) Matches(other AudioFormat) bool {
	return f.SampleRate == other.SampleRate &&
		f.Channels == other.Channels &&
		f.Codec == other.Codec
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%s %dHz %dch", f.Codec, f.SampleRate, f.Channels)
}

// Validate checks that the format is usable as a normalization target
func (f AudioFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	if f.Codec == "" {
		return fmt.Errorf("codec is required")
	}
	return nil
}
