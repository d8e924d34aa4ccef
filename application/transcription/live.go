package transcription

import (
	"context"
	"time"

	"media-assist/domain/media"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LiveConfig holds the microphone capture settings
type LiveConfig struct {
	Duration          time.Duration
	TranscribeTimeout time.Duration
}

// LiveService records a short clip from the microphone and transcribes it
type LiveService struct {
	store       media.Store
	recorder    media.Recorder
	normalizer  media.AudioNormalizer
	transcriber media.Transcriber
	cfg         LiveConfig
	logger      *zap.Logger
}

// NewLiveService creates a new live transcription service
func NewLiveService(
	store media.Store,
	recorder media.Recorder,
	normalizer media.AudioNormalizer,
	transcriber media.Transcriber,
	cfg LiveConfig,
	logger *zap.Logger,
) *LiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveService{
		store:       store,
		recorder:    recorder,
		normalizer:  normalizer,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logger,
	}
}

// Duration returns how long each capture lasts
func (s *LiveService) Duration() time.Duration {
	return s.cfg.Duration
}

// CaptureAndTranscribe records for the configured duration and returns the
// transcript. Recordings are deleted before it returns.
func (s *LiveService) CaptureAndTranscribe(ctx context.Context) (string, error) {
	if s.cfg.Duration <= 0 {
		return "", media.Wrap(media.ErrInvalidRequest, "listen", "capture duration must be positive", nil)
	}

	var artifacts []media.Artifact
	defer func() {
		for _, a := range artifacts {
			if err := s.store.Release(a); err != nil {
				s.logger.Warn("failed to release recording", zap.String("path", a.Path), zap.Error(err))
			}
		}
	}()

	var recording media.Artifact
	err := guard("recording", media.ErrCapture, func() error {
		var rerr error
		recording, rerr = s.recorder.Record(ctx, s.cfg.Duration)
		return rerr
	})
	if !recording.IsZero() {
		artifacts = append(artifacts, recording)
	}
	if err != nil {
		return "", err
	}
	s.logger.Debug("recorded audio",
		zap.Duration("duration", s.cfg.Duration),
		zap.String("size", humanize.Bytes(uint64(recording.Size))))

	var normalized media.Artifact
	err = guard(media.StateNormalizing, media.ErrUnsupportedFormat, func() error {
		var nerr error
		normalized, nerr = s.normalizer.Normalize(ctx, recording)
		return nerr
	})
	if !normalized.IsZero() {
		artifacts = append(artifacts, normalized)
	}
	if err != nil {
		return "", err
	}

	var text string
	err = guard(media.StateTranscribing, media.ErrRecognition, func() error {
		tctx, cancel := withTimeout(ctx, s.cfg.TranscribeTimeout)
		defer cancel()
		var terr error
		text, terr = s.transcriber.Transcribe(tctx, normalized)
		return terr
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("live transcription complete", zap.Int("characters", len(text)))
	return text, nil
}
