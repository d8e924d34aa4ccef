// Package signimage looks up sign-language alphabet pictures on disk.
package signimage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"media-assist/domain/sign"
)

// DefaultPattern names one image per upper-case letter
const DefaultPattern = "%s_test.jpg"

// Reader implements sign.ImageLookup by reading files from a directory
type Reader struct {
	dir      string
	pattern  string
	readFile func(string) ([]byte, error)
}

// ReaderOption is a functional option for configuring Reader
type ReaderOption func(*Reader)

// WithReadFile sets how image files are read (for testing)
func WithReadFile(fn func(string) ([]byte, error)) ReaderOption {
	return func(r *Reader) {
		r.readFile = fn
	}
}

// NewReader creates a reader for dir. pattern must contain one %s, which
// is replaced by the upper-case letter.
func NewReader(dir, pattern string, opts ...ReaderOption) *Reader {
	if pattern == "" {
		pattern = DefaultPattern
	}
	r := &Reader{
		dir:      dir,
		pattern:  pattern,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the file that holds the image for letter
func (r *Reader) Path(letter rune) string {
	return filepath.Join(r.dir, fmt.Sprintf(r.pattern, string(letter)))
}

// Lookup implements sign.ImageLookup
func (r *Reader) Lookup(letter rune) (sign.Image, error) {
	l, err := sign.NormalizeLetter(letter)
	if err != nil {
		return sign.Image{}, fmt.Errorf("%w: %q", err, letter)
	}

	data, err := r.readFile(r.Path(l))
	if errors.Is(err, fs.ErrNotExist) {
		return sign.Image{}, fmt.Errorf("%w for letter: %c", sign.ErrNotFound, l)
	}
	if err != nil {
		return sign.Image{}, fmt.Errorf("failed to read image for %c: %w", l, err)
	}
	if len(data) == 0 {
		return sign.Image{}, fmt.Errorf("%w for letter: %c", sign.ErrNotFound, l)
	}

	return sign.Image{
		Letter:      l,
		Data:        data,
		ContentType: http.DetectContentType(data),
	}, nil
}

// New returns the lookup used by the application: the file reader, with
// re-encoding added when built with -tags=opencv.
func New(dir, pattern string, width int) sign.ImageLookup {
	return withProcessing(NewReader(dir, pattern), width)
}

// Ensure Reader implements sign.ImageLookup
var _ sign.ImageLookup = (*Reader)(nil)
