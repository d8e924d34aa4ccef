package media

import (
	"strings"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Timestamp
		wantErr string
	}{
		{name: "valid timestamp", input: "01:30:45", want: Timestamp{Hours: 1, Minutes: 30, Seconds: 45}},
		{name: "all zeros", input: "00:00:00", want: Timestamp{}},
		{name: "large hours value", input: "99:00:00", want: Timestamp{Hours: 99}},
		{name: "missing leading zero", input: "1:30:45", wantErr: "invalid timestamp format"},
		{name: "wrong separator", input: "01-30-45", wantErr: "invalid timestamp format"},
		{name: "empty string", input: "", wantErr: "invalid timestamp format"},
		{name: "minutes too high", input: "01:60:00", wantErr: "minutes must be 0-59"},
		{name: "seconds too high", input: "01:30:60", wantErr: "seconds must be 0-59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseTimestamp(%q) expected error, got nil", tt.input)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("ParseTimestamp(%q) error = %v, want error containing %q", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimestamp_StringAndDuration(t *testing.T) {
	ts := Timestamp{Hours: 1, Minutes: 2, Seconds: 3}
	if got := ts.String(); got != "01:02:03" {
		t.Errorf("String() = %q, want %q", got, "01:02:03")
	}
	if got := ts.Duration(); got != time.Hour+2*time.Minute+3*time.Second {
		t.Errorf("Duration() = %v", got)
	}
}

func TestParseClip(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantLength time.Duration
		wantErr    string
	}{
		{name: "valid window", start: "00:00:05", end: "00:01:05", wantLength: time.Minute},
		{name: "end equals start", start: "00:00:05", end: "00:00:05", wantErr: "must be after start"},
		{name: "end before start", start: "00:10:00", end: "00:05:00", wantErr: "must be after start"},
		{name: "bad start", start: "5", end: "00:05:00", wantErr: "invalid start time"},
		{name: "bad end", start: "00:00:00", end: "x", wantErr: "invalid end time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, err := ParseClip(tt.start, tt.end)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseClip() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClip() unexpected error: %v", err)
			}
			if clip.Length() != tt.wantLength {
				t.Errorf("Length() = %v, want %v", clip.Length(), tt.wantLength)
			}
		})
	}
}
