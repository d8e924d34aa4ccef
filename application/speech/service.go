package speech

import (
	"context"
	"strings"

	"media-assist/domain/language"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Service converts text into spoken MP3 audio
type Service struct {
	synthesizer     language.Synthesizer
	defaultLanguage string
	logger          *zap.Logger
}

// NewService creates a new text-to-speech service
func NewService(synthesizer language.Synthesizer, defaultLanguage string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		synthesizer:     synthesizer,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Speak synthesizes text. An empty lang uses the default language.
func (s *Service) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, language.ErrEmptyText
	}
	if strings.TrimSpace(lang) == "" {
		lang = s.defaultLanguage
	}

	audio, err := s.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		s.logger.Warn("speech synthesis failed", zap.String("language", lang), zap.Error(err))
		return nil, err
	}

	s.logger.Info("synthesized speech",
		zap.String("language", lang),
		zap.String("size", humanize.Bytes(uint64(len(audio)))))
	return audio, nil
}
