// Package transcription runs the video-to-text pipeline and the live
// microphone flow.
package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"media-assist/domain/media"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the pipeline limits
type Config struct {
	DecodeTimeout     time.Duration
	TranscribeTimeout time.Duration
	AllowedExtensions []string
}

// Transition is one step of the pipeline state machine
type Transition struct {
	RequestID string
	From      media.State
	To        media.State
}

// Observer is notified of every state change of every run
type Observer func(Transition)

// Controller runs one request through persist, extract, normalize and
// transcribe. It holds no per-request state and is safe for concurrent use.
type Controller struct {
	store       media.Store
	extractor   media.AudioExtractor
	normalizer  media.AudioNormalizer
	transcriber media.Transcriber
	cfg         Config
	allowed     map[string]bool
	logger      *zap.Logger
	observer    Observer
	now         func() time.Time
	newID       func() string
}

// Option is a functional option for configuring Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithObserver registers a state-change observer
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithClock sets the time source used for elapsed times
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator sets how request ids are generated when the caller gives none
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		c.newID = gen
	}
}

// NewController creates a new pipeline controller
func NewController(
	store media.Store,
	extractor media.AudioExtractor,
	normalizer media.AudioNormalizer,
	transcriber media.Transcriber,
	cfg Config,
	opts ...Option,
) *Controller {
	c := &Controller{
		store:       store,
		extractor:   extractor,
		normalizer:  normalizer,
		transcriber: transcriber,
		cfg:         cfg,
		allowed:     make(map[string]bool),
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, ext := range cfg.AllowedExtensions {
		c.allowed[media.NormalizeExtension(ext)] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes one request. It never returns an error: failures are
// reported in the result. Every artifact created along the way is deleted
// before Run returns.
func (c *Controller) Run(ctx context.Context, req media.PipelineRequest) media.TranscriptionResult {
	started := c.now()
	id := req.ID
	if id == "" {
		id = c.newID()
	}

	r := &run{
		c:     c,
		id:    id,
		state: media.StateIdle,
		log:   c.logger.With(zap.String("request_id", id)),
	}
	text, err := r.process(ctx, req)

	elapsed := c.now().Sub(started)
	if err != nil {
		r.log.Warn("transcription failed",
			zap.String("error_kind", media.KindName(err)),
			zap.Error(err),
			zap.Duration("elapsed", elapsed))
		return media.Failed(id, err, elapsed)
	}

	r.log.Info("transcription complete",
		zap.Int("characters", len(text)),
		zap.Duration("elapsed", elapsed))
	return media.Succeeded(id, text, elapsed)
}

// Validate checks a request before any work is done
func (c *Controller) Validate(req media.PipelineRequest) error {
	if len(req.Data) == 0 {
		return media.Wrap(media.ErrInvalidRequest, "validate", "video payload is empty", nil)
	}
	ext := req.NormalizedExtension()
	if ext == "" {
		return media.Wrap(media.ErrInvalidRequest, "validate", "file extension is required", nil)
	}
	if len(c.allowed) > 0 && !c.allowed[ext] {
		return media.Wrap(media.ErrInvalidRequest, "validate",
			fmt.Sprintf("unsupported file type %q (allowed: %s)", ext, strings.Join(c.cfg.AllowedExtensions, ", ")), nil)
	}
	return nil
}

// run is the state of a single request
type run struct {
	c         *Controller
	id        string
	state     media.State
	artifacts []media.Artifact
	log       *zap.Logger
}

func (r *run) process(ctx context.Context, req media.PipelineRequest) (text string, err error) {
	defer func() {
		r.enter(media.StateCleanup)
		r.releaseAll()
		if err != nil {
			r.enter(media.StateFailed)
		} else {
			r.enter(media.StateDone)
		}
	}()

	if err := r.c.Validate(req); err != nil {
		return "", err
	}

	video, err := r.artifactStage(media.StatePersisting, media.ErrStorage, func() (media.Artifact, error) {
		return r.c.store.Persist(req.Data, "."+req.NormalizedExtension(), media.KindVideo)
	})
	if err != nil {
		return "", err
	}

	raw, err := r.artifactStage(media.StateExtracting, media.ErrDecode, func() (media.Artifact, error) {
		ctx, cancel := withTimeout(ctx, r.c.cfg.DecodeTimeout)
		defer cancel()
		return r.c.extractor.Extract(ctx, video, media.ExtractOptions{Clip: req.Clip})
	})
	if err != nil {
		return "", err
	}

	normalized, err := r.artifactStage(media.StateNormalizing, media.ErrUnsupportedFormat, func() (media.Artifact, error) {
		ctx, cancel := withTimeout(ctx, r.c.cfg.DecodeTimeout)
		defer cancel()
		return r.c.normalizer.Normalize(ctx, raw)
	})
	if err != nil {
		return "", err
	}

	r.enter(media.StateTranscribing)
	started := r.c.now()
	err = guard(media.StateTranscribing, media.ErrRecognition, func() error {
		ctx, cancel := withTimeout(ctx, r.c.cfg.TranscribeTimeout)
		defer cancel()
		var terr error
		text, terr = r.c.transcriber.Transcribe(ctx, normalized)
		return terr
	})
	if err != nil {
		return "", err
	}
	r.log.Debug("stage complete",
		zap.String("stage", string(media.StateTranscribing)),
		zap.Duration("elapsed", r.c.now().Sub(started)))

	return text, nil
}

// artifactStage runs a stage that produces an artifact and tracks the
// artifact for cleanup.
func (r *run) artifactStage(state media.State, kind error, fn func() (media.Artifact, error)) (media.Artifact, error) {
	r.enter(state)
	started := r.c.now()

	var a media.Artifact
	err := guard(state, kind, func() error {
		var serr error
		a, serr = fn()
		return serr
	})
	if !a.IsZero() {
		r.artifacts = append(r.artifacts, a)
	}
	if err != nil {
		return media.Artifact{}, err
	}

	r.log.Debug("stage complete",
		zap.String("stage", string(state)),
		zap.String("artifact", a.ID),
		zap.String("size", humanize.Bytes(uint64(a.Size))),
		zap.Duration("elapsed", r.c.now().Sub(started)))
	return a, nil
}

func (r *run) enter(to media.State) {
	from := r.state
	if !media.ValidTransition(from, to) {
		r.log.Error("invalid pipeline transition",
			zap.String("from", string(from)),
			zap.String("to", string(to)))
	}
	r.state = to
	if r.c.observer != nil {
		r.c.observer(Transition{RequestID: r.id, From: from, To: to})
	}
}

func (r *run) releaseAll() {
	for i := len(r.artifacts) - 1; i >= 0; i-- {
		a := r.artifacts[i]
		if err := r.c.store.Release(a); err != nil {
			r.log.Warn("failed to release artifact",
				zap.String("artifact", a.ID),
				zap.String("path", a.Path),
				zap.Error(err))
		}
	}
	r.artifacts = nil
}

// guard runs a stage, converting a panic or an untyped error into the
// stage's error kind
func guard(state media.State, kind error, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = media.Wrap(kind, string(state), "stage panicked", fmt.Errorf("%v", p))
		}
	}()
	if err = fn(); err != nil && !media.HasKind(err) {
		err = media.Wrap(kind, string(state), "", err)
	}
	return err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
