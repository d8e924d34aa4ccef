package sign

import (
	"errors"
	"unicode"
)

var (
	ErrNotFound   = errors.New("no image found")
	ErrNotALetter = errors.New("not a letter")
	ErrEmptyWord  = errors.New("word is empty")
)

// Image is the sign-language picture for one letter
type Image struct {
	Letter      rune
	Data        []byte
	ContentType string
}

// ImageLookup finds the image for a single letter
type ImageLookup interface {
	Lookup(letter rune) (Image, error)
}

// NormalizeLetter upper-cases a letter and rejects anything else
func NormalizeLetter(r rune) (rune, error) {
	if !unicode.IsLetter(r) {
		return 0, ErrNotALetter
	}
	return unicode.ToUpper(r), nil
}

// Letters returns the letters of word in order, upper-cased. Digits,
// punctuation and spaces are skipped.
func Letters(word string) []rune {
	var letters []rune
	for _, r := range word {
		if l, err := NormalizeLetter(r); err == nil {
			letters = append(letters, l)
		}
	}
	return letters
}
