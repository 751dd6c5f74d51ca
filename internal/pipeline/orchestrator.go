package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"signbridge/internal/artifacts"
	"signbridge/internal/logging"
	"signbridge/internal/services/detect"
	"signbridge/internal/services/signvideo"
	"signbridge/internal/services/speech"
)

// Detector invokes the language-detection stage.
type Detector interface {
	Detect(ctx context.Context, req detect.Request) (detect.Result, error)
}

// Recognizer invokes the speech-recognition stage.
type Recognizer interface {
	Transcribe(ctx context.Context, req speech.Request) (speech.Transcript, error)
}

// Translator invokes the translation stage.
type Translator interface {
	Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error)
}

// Synthesizer invokes the video-generation stage and save promotion.
type Synthesizer interface {
	Generate(ctx context.Context, req signvideo.Request) (signvideo.Result, error)
	Save(ctx context.Context, tempVideoID, userID string) (string, error)
}

// Clients bundles the concrete stage clients the orchestrator drives.
type Clients struct {
	Detector    Detector
	Recognizer  Recognizer
	Translator  Translator
	Synthesizer Synthesizer
}

// Recorder mirrors run snapshots into durable storage after every mutation.
// Implementations must be cheap and must not fail the pipeline.
type Recorder interface {
	Record(ctx context.Context, run Run)
}

// errStale marks work that finished for a run that has since been cancelled
// or superseded; its results are discarded, never applied.
var errStale = errors.New("run superseded")

// IsStale reports whether an orchestrator error means the run was cancelled
// or replaced while the operation was in flight.
func IsStale(err error) bool {
	return errors.Is(err, errStale)
}

// Settings carries orchestration tuning derived from configuration.
type Settings struct {
	UserID       string
	DefaultModel string
	TickDelay    time.Duration
	Punctuate    bool
}

// Orchestrator is the sequential state machine driving one run at a time.
type Orchestrator struct {
	clients  Clients
	registry *artifacts.Registry
	settings Settings
	logger   *slog.Logger
	observer Observer
	recorder Recorder
	sleeper  func(context.Context, time.Duration) error

	mu    sync.Mutex
	run   *Run
	input Input
	epoch uint64
	busy  bool
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithObserver attaches a progress observer. May be passed multiple times.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs == nil {
			return
		}
		switch existing := o.observer.(type) {
		case nil:
			o.observer = obs
		case multiObserver:
			o.observer = append(existing, obs)
		default:
			o.observer = multiObserver{existing, obs}
		}
	}
}

// WithRecorder attaches a run snapshot recorder.
func WithRecorder(rec Recorder) Option {
	return func(o *Orchestrator) { o.recorder = rec }
}

// WithSleeper overrides how progress tick delays are waited out (used in
// tests to avoid real time).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleeper != nil {
			o.sleeper = sleeper
		}
	}
}

// New constructs an orchestrator.
func New(clients Clients, registry *artifacts.Registry, settings Settings, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.TickDelay <= 0 {
		settings.TickDelay = 400 * time.Millisecond
	}
	if settings.DefaultModel == "" {
		settings.DefaultModel = signvideo.ModelMale
	}
	o := &Orchestrator{
		clients:  clients,
		registry: registry,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		sleeper:  sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Snapshot returns a copy of the active run, if any.
func (o *Orchestrator) Snapshot() (Run, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == nil {
		return Run{}, false
	}
	return o.run.clone(), true
}

// Active reports whether a stage call is currently in flight.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

func (o *Orchestrator) publish(event Event) {
	if o.observer != nil {
		o.observer.Publish(event)
	}
}

func (o *Orchestrator) record(ctx context.Context, run Run) {
	if o.recorder != nil {
		o.recorder.Record(ctx, run)
	}
}
