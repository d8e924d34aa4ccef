package sign

import (
	"errors"
	"strings"

	"media-assist/domain/sign"

	"go.uber.org/zap"
)

// LetterResult is the outcome of looking up one letter of a word
type LetterResult struct {
	Letter rune
	Image  sign.Image
	Err    error
}

// Found returns true if an image was found for the letter
func (r LetterResult) Found() bool {
	return r.Err == nil
}

// Service spells words with sign-language images
type Service struct {
	lookup sign.ImageLookup
	logger *zap.Logger
}

// NewService creates a new sign service
func NewService(lookup sign.ImageLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lookup: lookup, logger: logger}
}

// Spell looks up every letter of word in order. A missing image is
// reported in that letter's result and does not stop the others; any
// other failure aborts.
func (s *Service) Spell(word string) ([]LetterResult, error) {
	if strings.TrimSpace(word) == "" {
		return nil, sign.ErrEmptyWord
	}
	letters := sign.Letters(word)
	if len(letters) == 0 {
		return nil, sign.ErrNotALetter
	}

	results := make([]LetterResult, 0, len(letters))
	missing := 0
	for _, l := range letters {
		img, err := s.lookup.Lookup(l)
		if err != nil && !errors.Is(err, sign.ErrNotFound) {
			return nil, err
		}
		if err != nil {
			missing++
		}
		results = append(results, LetterResult{Letter: l, Image: img, Err: err})
	}

	s.logger.Info("spelled word",
		zap.Int("letters", len(letters)),
		zap.Int("missing", missing))
	return results, nil
}

// Letter looks up a single letter
func (s *Service) Letter(letter rune) (sign.Image, error) {
	return s.lookup.Lookup(letter)
}
