package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"signbridge/internal/config"
	"signbridge/internal/language"
	"signbridge/internal/logging"
	"signbridge/internal/logs"
	"signbridge/internal/pipeline"
	"signbridge/internal/runstore"
	"signbridge/internal/services"
	"signbridge/internal/services/signvideo"
)

// Daemon coordinates the conversion orchestrator and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *runstore.Store
	orch   *pipeline.Orchestrator

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LedgerDBPath string
	LockFilePath string
	ActiveRun    *pipeline.Run
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *runstore.Store, orch *pipeline.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "signbridged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		orch:     orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another signbridge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("signbridge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts processing, waits for in-flight work to drain, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("signbridge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound HTTP API address, empty until started.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LedgerDBPath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if run, ok := d.orch.Snapshot(); ok {
		status.ActiveRun = &run
	}
	return status
}

// StartRun registers a new conversion and processes it in the background.
// The returned snapshot reflects the registered run before any stage work.
func (d *Daemon) StartRun(ctx context.Context, input pipeline.Input) (pipeline.Run, error) {
	run, err := d.orch.Start(ctx, input)
	if err != nil {
		return pipeline.Run{}, err
	}
	d.async(func(bg context.Context) {
		if _, err := d.orch.Process(bg); err != nil && !pipeline.IsStale(err) {
			d.logger.Warn("conversion finished with failure",
				logging.String(logging.FieldRunID, run.ID),
				logging.Error(err))
		}
	})
	return run, nil
}

// GenerateVideo kicks off video synthesis for the active run in the
// background and returns the pre-generation snapshot.
func (d *Daemon) GenerateVideo(ctx context.Context, id, model string) (pipeline.Run, error) {
	if err := d.requireActive(id); err != nil {
		return pipeline.Run{}, err
	}
	if model != "" && !signvideo.ValidModel(model) {
		return pipeline.Run{}, services.Wrap(services.ErrValidation, "video generation", "generate",
			fmt.Sprintf("unknown model %q", model), nil)
	}
	d.async(func(bg context.Context) {
		if _, err := d.orch.GenerateVideo(bg, model); err != nil && !pipeline.IsStale(err) {
			d.logger.Warn("video generation finished with failure",
				logging.String(logging.FieldRunID, id),
				logging.Error(err))
		}
	})
	run, _ := d.orch.Snapshot()
	return run, nil
}

// RetryRun resumes the active run at its failed stage in the background.
func (d *Daemon) RetryRun(ctx context.Context, id string) (pipeline.Run, error) {
	if err := d.requireActive(id); err != nil {
		return pipeline.Run{}, err
	}
	run, ok := d.orch.Snapshot()
	if !ok || !run.Stage.IsFailure() || run.Err == nil {
		return pipeline.Run{}, services.Wrap(services.ErrValidation, "pipeline", "retry", "run has no retryable failure", nil)
	}
	if !run.Err.Retryable {
		return pipeline.Run{}, services.Wrap(services.ErrValidation, "pipeline", "retry", "failure is not retryable", nil)
	}
	d.async(func(bg context.Context) {
		if _, err := d.orch.Retry(bg); err != nil && !pipeline.IsStale(err) {
			d.logger.Warn("retry finished with failure",
				logging.String(logging.FieldRunID, id),
				logging.Error(err))
		}
	})
	return run, nil
}

// CancelRun aborts the active run and releases its artifacts.
func (d *Daemon) CancelRun(ctx context.Context, id string) (pipeline.Run, error) {
	if err := d.requireActive(id); err != nil {
		return pipeline.Run{}, err
	}
	return d.orch.Cancel(ctx)
}

// SetTranslation replaces the editable translated text on the active run.
func (d *Daemon) SetTranslation(ctx context.Context, id, text string) (pipeline.Run, error) {
	if err := d.requireActive(id); err != nil {
		return pipeline.Run{}, err
	}
	return d.orch.SetTranslatedText(ctx, text)
}

// SaveRun promotes the active run's preview video to permanent storage.
func (d *Daemon) SaveRun(ctx context.Context, id string) (pipeline.Run, error) {
	if err := d.requireActive(id); err != nil {
		return pipeline.Run{}, err
	}
	return d.orch.Save(ctx)
}

// ErrRunNotFound marks lookups for runs the daemon does not know.
var ErrRunNotFound = errors.New("run not found")

// GetRun returns the live snapshot for the active run, or the recorded
// snapshot for a historical one.
func (d *Daemon) GetRun(ctx context.Context, id string) (pipeline.Run, error) {
	if run, ok := d.orch.Snapshot(); ok && run.ID == id {
		return run, nil
	}
	stored, err := d.store.Get(ctx, id)
	if err != nil {
		return pipeline.Run{}, err
	}
	if stored == nil {
		return pipeline.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return *stored, nil
}

// ListRuns returns recorded runs, the live one included, most recent first.
func (d *Daemon) ListRuns(ctx context.Context, limit int) ([]*pipeline.Run, error) {
	runs, err := d.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if active, ok := d.orch.Snapshot(); ok {
		for i, run := range runs {
			if run != nil && run.ID == active.ID {
				copied := active
				runs[i] = &copied
				break
			}
		}
	}
	return runs, nil
}

// ClearRuns removes all recorded runs from the ledger.
func (d *Daemon) ClearRuns(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearFinished removes settled runs from the ledger, keeping failures.
func (d *Daemon) ClearFinished(ctx context.Context) (int64, error) {
	return d.store.ClearFinished(ctx)
}

// Languages returns the closed set of supported source language codes.
func (d *Daemon) Languages() []string {
	return language.Codes()
}

// LogPath returns the daemon log file location, or empty when file logging
// is disabled.
func (d *Daemon) LogPath() string {
	if d.cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(d.cfg.Paths.LogDir, "signbridge.log")
}

// TailLog reads daemon log lines for CLI diagnostics.
func (d *Daemon) TailLog(ctx context.Context, opts logs.TailOptions) (logs.TailResult, error) {
	path := d.LogPath()
	if path == "" {
		return logs.TailResult{}, errors.New("file logging is disabled")
	}
	return logs.Tail(ctx, path, opts)
}

func (d *Daemon) requireActive(id string) error {
	run, ok := d.orch.Snapshot()
	if !ok || run.ID != id {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func (d *Daemon) async(fn func(context.Context)) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(ctx)
	}()
}
