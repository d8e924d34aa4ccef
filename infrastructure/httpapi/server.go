// Package httpapi exposes the media-assist features over HTTP for the web
// shell.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	appsign "media-assist/application/sign"
	"media-assist/domain/language"
	"media-assist/domain/media"
	"media-assist/domain/sign"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// Pipeline runs a video through transcription
type Pipeline interface {
	Run(ctx context.Context, req media.PipelineRequest) media.TranscriptionResult
}

// Translator translates text and lists target languages
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
	Languages(ctx context.Context) ([]language.Language, error)
}

// Speaker converts text to MP3 audio
type Speaker interface {
	Speak(ctx context.Context, text, lang string) ([]byte, error)
}

// Speller looks up sign-language images
type Speller interface {
	Spell(word string) ([]appsign.LetterResult, error)
	Letter(letter rune) (sign.Image, error)
}

// Services are the features served. A nil service answers 503.
type Services struct {
	Pipeline   Pipeline
	Translator Translator
	Speaker    Speaker
	Speller    Speller
}

// Options configures limits and CORS
type Options struct {
	MaxUploadBytes    int64
	RequestsPerMinute int
	AllowedOrigins    []string
}

// Server is the HTTP surface
type Server struct {
	services Services
	opts     Options
	logger   *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(services Services, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{services: services, opts: opts, logger: logger}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(v1 chi.Router) {
		if s.opts.RequestsPerMinute > 0 {
			v1.Use(httprate.LimitByIP(s.opts.RequestsPerMinute, time.Minute))
		}

		v1.Post("/transcriptions", s.handleTranscribe)
		v1.Post("/translations", s.handleTranslate)
		v1.Get("/languages", s.handleLanguages)
		v1.Post("/speech", s.handleSpeak)
		v1.Get("/signs", s.handleSpell)
		v1.Get("/signs/{letter}", s.handleLetter)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}
