package media

import (
	"errors"
	"fmt"
)

// Error kinds. Every pipeline stage fails with exactly one of these.
var (
	ErrStorage           = errors.New("storage error")
	ErrDecode            = errors.New("decode error")
	ErrNoAudioTrack      = errors.New("no audio track")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrRecognition       = errors.New("recognition error")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrCapture           = errors.New("audio capture failed")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrInvalidRequest, "InvalidRequestError"},
	{ErrStorage, "StorageError"},
	{ErrNoAudioTrack, "NoAudioTrackError"},
	{ErrDecode, "DecodeError"},
	{ErrUnsupportedFormat, "UnsupportedFormatError"},
	{ErrRecognition, "RecognitionError"},
	{ErrCapture, "CaptureError"},
}

// Error is a typed pipeline failure. It matches its Kind with errors.Is and
// keeps the underlying cause reachable.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Wrap builds an *Error of the given kind.
func Wrap(kind error, op, message string, err error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindName returns the taxonomy name for err (for example "DecodeError"),
// or an empty string when err carries none of the known kinds.
func KindName(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return ""
}

// HasKind reports whether err already carries one of the known kinds.
func HasKind(err error) bool {
	return KindName(err) != ""
}
