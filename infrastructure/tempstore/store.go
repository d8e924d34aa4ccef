package tempstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-assist/domain/media"

	"github.com/google/uuid"
)

const partialMarker = ".partial"

// Store implements media.Store on a private directory. Every artifact gets
// a random name, so concurrent requests never collide and need no locking.
type Store struct {
	dir   string
	now   func() time.Time
	newID func() string
}

// Option is a functional option for configuring Store
type Option func(*Store)

// WithClock sets the clock used for CreatedAt and Sweep (for testing)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets how artifact ids are generated (for testing)
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// New creates the store directory if needed
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:   dir,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir == "" {
		return nil, media.Wrap(media.ErrStorage, "open store", "temp directory is not configured", nil)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, media.Wrap(media.ErrStorage, "open store", "cannot create temp directory", err)
	}
	return s, nil
}

// Dir returns the directory holding the artifacts
func (s *Store) Dir() string {
	return s.dir
}

// Persist writes data to a new artifact. The bytes land in a .partial file
// first and are renamed into place after they are synced.
func (s *Store) Persist(data []byte, suffix string, kind media.Kind) (media.Artifact, error) {
	suffix, err := cleanSuffix(suffix)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrStorage, "persist", "invalid suffix", err)
	}

	id := s.newID()
	final := s.finalPath(id, suffix)
	tmp := s.partialPath(id, suffix)

	if err := copyFile(tmp, bytes.NewReader(data)); err != nil {
		os.Remove(tmp)
		return media.Artifact{}, media.Wrap(media.ErrStorage, "persist", "cannot write artifact", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return media.Artifact{}, media.Wrap(media.ErrStorage, "persist", "cannot publish artifact", err)
	}

	return media.Artifact{
		ID:        id,
		Path:      final,
		Kind:      kind,
		Size:      int64(len(data)),
		CreatedAt: s.now(),
	}, nil
}

// Reserve allocates a .partial path for an external tool to write
func (s *Store) Reserve(kind media.Kind, suffix string) (media.Pending, error) {
	suffix, err := cleanSuffix(suffix)
	if err != nil {
		return media.Pending{}, media.Wrap(media.ErrStorage, "reserve", "invalid suffix", err)
	}
	id := s.newID()
	return media.Pending{
		ID:     id,
		Kind:   kind,
		Path:   s.partialPath(id, suffix),
		Suffix: suffix,
	}, nil
}

// Commit publishes a reserved path. Missing or empty output is rejected
// and removed.
func (s *Store) Commit(p media.Pending) (media.Artifact, error) {
	info, err := os.Stat(p.Path)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrStorage, "commit", "tool produced no output", err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		os.Remove(p.Path)
		return media.Artifact{}, media.Wrap(media.ErrStorage, "commit", "tool produced an empty file", nil)
	}

	final := s.finalPath(p.ID, p.Suffix)
	if err := os.Rename(p.Path, final); err != nil {
		os.Remove(p.Path)
		return media.Artifact{}, media.Wrap(media.ErrStorage, "commit", "cannot publish artifact", err)
	}

	return media.Artifact{
		ID:        p.ID,
		Path:      final,
		Kind:      p.Kind,
		Size:      info.Size(),
		CreatedAt: s.now(),
	}, nil
}

// Discard removes a reserved path that will not be committed
func (s *Store) Discard(p media.Pending) error {
	if p.Path == "" {
		return nil
	}
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return media.Wrap(media.ErrStorage, "discard", "cannot remove partial output", err)
	}
	return nil
}

// Clone copies an artifact byte for byte into a new artifact
func (s *Store) Clone(a media.Artifact, kind media.Kind) (media.Artifact, error) {
	src, err := os.Open(a.Path)
	if err != nil {
		return media.Artifact{}, media.Wrap(media.ErrStorage, "clone", "cannot open source artifact", err)
	}
	defer src.Close()

	p, err := s.Reserve(kind, filepath.Ext(a.Path))
	if err != nil {
		return media.Artifact{}, err
	}

	if err := copyFile(p.Path, src); err != nil {
		s.Discard(p)
		return media.Artifact{}, media.Wrap(media.ErrStorage, "clone", "cannot copy artifact", err)
	}
	return s.Commit(p)
}

// Release deletes the artifact. A missing file is not an error.
func (s *Store) Release(a media.Artifact) error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return media.Wrap(media.ErrStorage, "release", "cannot remove artifact", err)
	}
	return nil
}

// Sweep removes artifacts older than olderThan, such as those left behind by
// a crashed process. Files whose names the store could not have produced are
// left alone. It returns how many files were removed.
func (s *Store) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, media.Wrap(media.ErrStorage, "sweep", "cannot list temp directory", err)
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isArtifactName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) finalPath(id, suffix string) string {
	return filepath.Join(s.dir, id+suffix)
}

func (s *Store) partialPath(id, suffix string) string {
	return filepath.Join(s.dir, id+partialMarker+suffix)
}

// isArtifactName reports whether name has the <uuid>[.partial][.ext] shape
// of files written by Persist and Reserve
func isArtifactName(name string) bool {
	id, _, _ := strings.Cut(name, ".")
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func cleanSuffix(suffix string) (string, error) {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return "", nil
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	if strings.ContainsAny(suffix, `/\`) || strings.Contains(suffix, "..") {
		return "", fmt.Errorf("suffix %q must not contain path elements", suffix)
	}
	return suffix, nil
}

func copyFile(path string, src io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Ensure Store implements media.Store
var _ media.Store = (*Store)(nil)
