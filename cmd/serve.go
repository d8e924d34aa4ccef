package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-assist/infrastructure/config"
	"media-assist/infrastructure/httpapi"
	"media-assist/infrastructure/tempstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the features over HTTP",
	Long: `Start the HTTP server used by the web shell.

Routes:
  GET  /healthz
  POST /v1/transcriptions   multipart "file", optional "start" and "end"
  POST /v1/translations     {"text": "...", "target": "fr"}
  GET  /v1/languages
  POST /v1/speech           {"text": "...", "language": "en"} -> audio/mpeg
  GET  /v1/signs?word=hello
  GET  /v1/signs/{letter}

Features whose backend cannot be configured answer 503.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log := GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := buildServices(ctx, cfg, log)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	go sweepLoop(ctx, store, cfg.Storage.SweepAfter, log)

	server := httpapi.NewServer(services, httpapi.Options{
		MaxUploadBytes:    cfg.Pipeline.MaxUploadBytes,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
	}, log.Named("http"))
	return server.ListenAndServe(ctx, cfg.Server.Addr)
}

// buildServices constructs every feature. A feature that cannot be built
// is left nil and logged.
func buildServices(ctx context.Context, cfg *config.Config, log *zap.Logger) httpapi.Services {
	var services httpapi.Services

	if p, err := newPipeline(ctx, cfg, log); err != nil {
		log.Warn("transcription disabled", zap.Error(err))
	} else if err := verifyTools(ctx, p.extractor); err != nil {
		log.Warn("transcription disabled", zap.Error(err))
	} else {
		services.Pipeline = p.controller
	}

	if svc, err := newTranslationService(ctx, cfg, log); err != nil {
		log.Warn("translation disabled", zap.Error(err))
	} else {
		services.Translator = svc
	}

	if svc, err := newSpeechService(ctx, cfg, log); err != nil {
		log.Warn("text-to-speech disabled", zap.Error(err))
	} else {
		services.Speaker = svc
	}

	services.Speller = newSignService(cfg, log)
	return services
}

// sweepLoop removes artifacts left behind by a previous crash, then keeps
// sweeping until ctx is done
func sweepLoop(ctx context.Context, store *tempstore.Store, olderThan time.Duration, log *zap.Logger) {
	sweep := func() {
		removed, err := store.Sweep(olderThan)
		if err != nil {
			log.Warn("sweep failed", zap.String("dir", store.Dir()), zap.Error(err))
			return
		}
		if removed > 0 {
			log.Info("removed stale artifacts", zap.Int("count", removed), zap.String("dir", store.Dir()))
		}
	}

	sweep()
	ticker := time.NewTicker(olderThan)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
