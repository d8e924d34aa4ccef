package translation

import (
	"context"
	"strings"

	"media-assist/domain/language"

	"go.uber.org/zap"
)

// Service translates text and lists the supported targets
type Service struct {
	translator    language.Translator
	lister        language.LanguageLister
	defaultTarget string
	logger        *zap.Logger
}

// NewService creates a new translation service. defaultTarget is used when
// a request names no target language.
func NewService(translator language.Translator, lister language.LanguageLister, defaultTarget string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		translator:    translator,
		lister:        lister,
		defaultTarget: defaultTarget,
		logger:        logger,
	}
}

// Translate translates text into target
func (s *Service) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", language.ErrEmptyText
	}
	if strings.TrimSpace(target) == "" {
		target = s.defaultTarget
	}
	code, err := language.NormalizeCode(target)
	if err != nil {
		return "", err
	}

	translated, err := s.translator.Translate(ctx, text, code)
	if err != nil {
		s.logger.Warn("translation failed", zap.String("target", code), zap.Error(err))
		return "", err
	}

	s.logger.Info("translated text",
		zap.String("target", code),
		zap.Int("characters", len(text)))
	return translated, nil
}

// Languages lists the supported target languages
func (s *Service) Languages(ctx context.Context) ([]language.Language, error) {
	return s.lister.Languages(ctx)
}
