package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	appsign "media-assist/application/sign"
	appspeech "media-assist/application/speech"
	"media-assist/application/transcription"
	"media-assist/application/translation"
	"media-assist/domain/language"
	"media-assist/domain/media"
	"media-assist/infrastructure/config"
	"media-assist/infrastructure/ffmpeg"
	"media-assist/infrastructure/filesystem"
	"media-assist/infrastructure/google"
	"media-assist/infrastructure/openai"
	"media-assist/infrastructure/signimage"
	"media-assist/infrastructure/tempstore"

	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func ffmpegOptions(c *config.Config) []ffmpeg.Option {
	return []ffmpeg.Option{
		ffmpeg.WithFFmpegPath(c.FFmpeg.FFmpegPath),
		ffmpeg.WithFFprobePath(c.FFmpeg.FFprobePath),
	}
}

func targetFormat(c *config.Config) media.AudioFormat {
	return media.AudioFormat{
		SampleRate: c.Pipeline.SampleRate,
		Channels:   c.Pipeline.Channels,
		Codec:      media.DefaultCodec,
	}
}

func fileChecker() media.FileChecker {
	return filesystem.NewChecker()
}

func newStore(c *config.Config) (*tempstore.Store, error) {
	return tempstore.New(c.Storage.TempDir)
}

func googleClientOptions(ctx context.Context, c *config.Config) ([]option.ClientOption, error) {
	return google.ClientOptions(ctx, google.Credentials{
		APIKey:          c.Google.APIKey,
		CredentialsFile: c.Google.CredentialsFile,
		TokenFile:       c.Google.TokenFile,
		Endpoint:        c.Google.Endpoint,
		Prompt:          os.Stderr,
	})
}

func openAIClient(c *config.Config) (openai.AudioClient, error) {
	return openai.NewClient(openai.Settings{APIKey: c.OpenAI.APIKey, BaseURL: c.OpenAI.BaseURL})
}

// newTranscriber builds the configured speech backend for lang
func newTranscriber(ctx context.Context, c *config.Config, lang string) (media.Transcriber, error) {
	switch c.Speech.Backend {
	case config.BackendOpenAI:
		client, err := openAIClient(c)
		if err != nil {
			return nil, err
		}
		return openai.NewTranscriber(client, c.OpenAI.TranscriptionModel, lang), nil
	default:
		opts, err := googleClientOptions(ctx, c)
		if err != nil {
			return nil, err
		}
		svc, err := google.NewSpeechService(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return google.NewTranscriber(svc, lang, targetFormat(c)), nil
	}
}

func newSynthesizer(ctx context.Context, c *config.Config) (language.Synthesizer, error) {
	switch c.TTS.Backend {
	case config.BackendOpenAI:
		client, err := openAIClient(c)
		if err != nil {
			return nil, err
		}
		return openai.NewSynthesizer(client, c.OpenAI.TTSModel, c.OpenAI.Voice), nil
	default:
		opts, err := googleClientOptions(ctx, c)
		if err != nil {
			return nil, err
		}
		svc, err := google.NewTextToSpeechService(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return google.NewSynthesizer(svc), nil
	}
}

func newTranslationService(ctx context.Context, c *config.Config, log *zap.Logger) (*translation.Service, error) {
	opts, err := googleClientOptions(ctx, c)
	if err != nil {
		return nil, err
	}
	svc, err := google.NewTranslateService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	translator := google.NewTranslator(svc)
	return translation.NewService(translator, translator, c.Translation.DefaultTarget, log), nil
}

func newSpeechService(ctx context.Context, c *config.Config, log *zap.Logger) (*appspeech.Service, error) {
	synth, err := newSynthesizer(ctx, c)
	if err != nil {
		return nil, err
	}
	return appspeech.NewService(synth, c.TTS.Language, log), nil
}

func newSignService(c *config.Config, log *zap.Logger) *appsign.Service {
	return appsign.NewService(signimage.New(c.Sign.ImageDir, c.Sign.FilePattern, c.Sign.Width), log)
}

// pipeline bundles the controller with the extractor so the ffmpeg
// installation can be verified before use
type pipeline struct {
	controller *transcription.Controller
	extractor  *ffmpeg.Extractor
	store      *tempstore.Store
}

func newPipeline(ctx context.Context, c *config.Config, log *zap.Logger) (*pipeline, error) {
	store, err := newStore(c)
	if err != nil {
		return nil, err
	}
	transcriber, err := newTranscriber(ctx, c, c.Speech.Language)
	if err != nil {
		return nil, fmt.Errorf("speech backend: %w", err)
	}

	extractor := ffmpeg.NewExtractor(store, ffmpegOptions(c)...)
	normalizer := ffmpeg.NewNormalizer(store, targetFormat(c), ffmpegOptions(c)...)
	controller := transcription.NewController(store, extractor, normalizer, transcriber,
		transcription.Config{
			DecodeTimeout:     c.Pipeline.DecodeTimeout,
			TranscribeTimeout: c.Pipeline.TranscribeTimeout,
			AllowedExtensions: c.Pipeline.AllowedExtensions,
		},
		transcription.WithLogger(log.Named("pipeline")))

	return &pipeline{controller: controller, extractor: extractor, store: store}, nil
}

func newLiveService(ctx context.Context, c *config.Config, log *zap.Logger) (*transcription.LiveService, *ffmpeg.Recorder, error) {
	store, err := newStore(c)
	if err != nil {
		return nil, nil, err
	}
	transcriber, err := newTranscriber(ctx, c, c.Microphone.Language)
	if err != nil {
		return nil, nil, fmt.Errorf("speech backend: %w", err)
	}

	recorder := ffmpeg.NewRecorder(store, c.Microphone.InputFormat, c.Microphone.Device, ffmpegOptions(c)...)
	normalizer := ffmpeg.NewNormalizer(store, targetFormat(c), ffmpegOptions(c)...)
	live := transcription.NewLiveService(store, recorder, normalizer, transcriber,
		transcription.LiveConfig{
			Duration:          c.Microphone.Duration,
			TranscribeTimeout: c.Pipeline.TranscribeTimeout,
		},
		log.Named("live"))
	return live, recorder, nil
}

// verifyTools checks that external tools are installed when v supports it
func verifyTools(ctx context.Context, v any) error {
	if verifiable, ok := v.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}
	return nil
}
