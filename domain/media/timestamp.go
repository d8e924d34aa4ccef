package media

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Timestamp is a position in a recording in HH:MM:SS format
type Timestamp struct {
	Hours   int
	Minutes int
	Seconds int
}

var timestampRegex = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})$`)

// ParseTimestamp parses a timestamp string in HH:MM:SS format
func ParseTimestamp(s string) (Timestamp, error) {
	matches := timestampRegex.FindStringSubmatch(s)
	if matches == nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp format %q: expected HH:MM:SS", s)
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	if minutes > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: minutes must be 0-59", s)
	}
	if seconds > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: seconds must be 0-59", s)
	}

	return Timestamp{Hours: hours, Minutes: minutes, Seconds: seconds}, nil
}

// String returns the timestamp in HH:MM:SS format
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// TotalSeconds returns the timestamp as total seconds
func (t Timestamp) TotalSeconds() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

// Duration returns the offset from the start of the recording
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t.TotalSeconds()) * time.Second
}

// After returns true if t is after other
func (t Timestamp) After(other Timestamp) bool {
	return t.TotalSeconds() > other.TotalSeconds()
}

// Clip is a window of a recording to transcribe instead of the whole file
type Clip struct {
	Start Timestamp
	End   Timestamp
}

// NewClip validates that end comes after start
func NewClip(start, end Timestamp) (Clip, error) {
	if !end.After(start) {
		return Clip{}, fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return Clip{Start: start, End: end}, nil
}

// ParseClip builds a clip from two HH:MM:SS strings
func ParseClip(start, end string) (Clip, error) {
	s, err := ParseTimestamp(start)
	if err != nil {
		return Clip{}, fmt.Errorf("invalid start time: %w", err)
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return Clip{}, fmt.Errorf("invalid end time: %w", err)
	}
	return NewClip(s, e)
}

// Length returns how long the clip is
func (c Clip) Length() time.Duration {
	return c.End.Duration() - c.Start.Duration()
}
