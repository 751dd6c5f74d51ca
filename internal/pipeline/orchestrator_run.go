package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signbridge/internal/artifacts"
	"signbridge/internal/language"
	"signbridge/internal/logging"
	"signbridge/internal/services"
	"signbridge/internal/services/detect"
	"signbridge/internal/services/speech"
)

// Start registers a new run for the given input. It fails with a validation
// error when another run is still being processed. A finished run (complete,
// video ready, or failed) is superseded: its artifacts are released and the
// new run takes its place.
func (o *Orchestrator) Start(ctx context.Context, input Input) (Run, error) {
	if input.Empty() {
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "start", "no audio provided", nil)
	}
	if input.FileName == "" {
		input.FileName = "upload"
	}

	o.mu.Lock()
	if o.busy || (o.run != nil && o.run.Stage.IsProcessing()) {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "start", "another conversion is already running", nil)
	}
	o.epoch++
	now := time.Now().UTC()
	run := &Run{
		ID:         uuid.NewString(),
		Stage:      StageIdle,
		SourceFile: input.FileName,
		Model:      o.settings.DefaultModel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.run = run
	o.input = input
	snapshot := run.clone()
	o.mu.Unlock()

	if o.registry != nil {
		o.registry.ReleaseAll(ctx)
	}
	if input.TempAudioID != "" && o.registry != nil {
		o.registry.Register(artifacts.KindAudio, input.TempAudioID)
	}

	o.logger.Info("run registered",
		logging.String(logging.FieldRunID, snapshot.ID),
		logging.String("source_file", snapshot.SourceFile))
	o.record(ctx, snapshot)
	return snapshot, nil
}

// Process drives the active run through detection, recognition, and
// translation. It blocks until the run reaches a terminal stage or the run
// is cancelled out from under it.
func (o *Orchestrator) Process(ctx context.Context) (Run, error) {
	o.mu.Lock()
	if o.run == nil {
		o.mu.Unlock()
		return Run{}, errStale
	}
	if o.run.Stage != StageIdle {
		id := o.run.ID
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "process", fmt.Sprintf("run %s already processed", id), nil)
	}
	epoch := o.epoch
	o.mu.Unlock()

	return o.processFrom(ctx, epoch, StageDetecting)
}

// processFrom runs the recognition chain starting at the given stage. Earlier
// stage results already present on the run are reused, which is what makes
// retry resume at the stage that failed instead of starting over.
func (o *Orchestrator) processFrom(ctx context.Context, epoch uint64, from Stage) (Run, error) {
	switch from {
	case StageDetecting:
		if err := o.detectStage(ctx, epoch); err != nil {
			return o.finish(ctx, epoch, err)
		}
		fallthrough
	case StageTranscribing:
		if err := o.transcribeStage(ctx, epoch); err != nil {
			return o.finish(ctx, epoch, err)
		}
		fallthrough
	case StageTranslating:
		if err := o.translateStage(ctx, epoch); err != nil {
			return o.finish(ctx, epoch, err)
		}
	default:
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "process", fmt.Sprintf("cannot resume from stage %q", from), nil)
	}
	return o.finish(ctx, epoch, nil)
}

func (o *Orchestrator) finish(ctx context.Context, epoch uint64, err error) (Run, error) {
	o.mu.Lock()
	if o.epoch != epoch || o.run == nil {
		o.mu.Unlock()
		return Run{}, errStale
	}
	snapshot := o.run.clone()
	o.mu.Unlock()
	return snapshot, err
}

func (o *Orchestrator) detectStage(ctx context.Context, epoch uint64) error {
	o.mu.Lock()
	input := o.input
	o.mu.Unlock()

	return o.runStage(ctx, epoch, StageDetecting, func(ctx context.Context) (func(*Run), error) {
		req := detect.Request{
			FileName:    input.FileName,
			TempAudioID: input.TempAudioID,
		}
		if len(input.Audio) > 0 {
			req.Audio = bytes.NewReader(input.Audio)
		}
		result, err := o.clients.Detector.Detect(ctx, req)
		if err != nil {
			return nil, err
		}
		code, ok := language.Normalize(result.DetectedLanguage)
		if !ok {
			return nil, services.Wrap(services.ErrUnsupportedLanguage, "language detection", "detect",
				fmt.Sprintf("unsupported language %q", result.DetectedLanguage), nil)
		}
		return func(run *Run) {
			run.DetectedLanguage = code
		}, nil
	})
}

func (o *Orchestrator) transcribeStage(ctx context.Context, epoch uint64) error {
	o.mu.Lock()
	input := o.input
	code := ""
	if o.run != nil {
		code = o.run.DetectedLanguage
	}
	o.mu.Unlock()

	return o.runStage(ctx, epoch, StageTranscribing, func(ctx context.Context) (func(*Run), error) {
		req := speech.Request{
			FileName:     input.FileName,
			TempAudioID:  input.TempAudioID,
			LanguageCode: code,
			Punctuate:    o.settings.Punctuate,
		}
		if len(input.Audio) > 0 {
			req.Audio = bytes.NewReader(input.Audio)
		}
		transcript, err := o.clients.Recognizer.Transcribe(ctx, req)
		if err != nil {
			return nil, err
		}
		if transcript.TempAudioID != "" && o.registry != nil {
			o.registry.Register(artifacts.KindAudio, transcript.TempAudioID)
		}
		return func(run *Run) {
			run.Transcript = transcript
		}, nil
	})
}

func (o *Orchestrator) translateStage(ctx context.Context, epoch uint64) error {
	o.mu.Lock()
	code := ""
	text := ""
	if o.run != nil {
		code = o.run.DetectedLanguage
		text = o.run.Transcript.Text
	}
	o.mu.Unlock()

	// English audio needs no translation. The transcript is promoted to the
	// translated text directly and the stage is skipped entirely.
	if code == language.English {
		o.mu.Lock()
		if o.epoch != epoch || o.run == nil {
			o.mu.Unlock()
			return errStale
		}
		o.run.Translation = &TranslationResult{
			SourceCode: code,
			TargetCode: language.English,
			Text:       text,
			Identity:   true,
		}
		o.run.TranslatedText = text
		o.run.Stage = StageComplete
		o.run.ProgressLabel = StageTranslating.Label()
		o.run.ProgressMessage = "Translation not needed"
		o.run.ProgressPercent = 100
		o.run.UpdatedAt = time.Now().UTC()
		snapshot := o.run.clone()
		o.mu.Unlock()

		o.record(ctx, snapshot)
		o.publish(Event{
			RunID:     snapshot.ID,
			Stage:     StageComplete,
			StepLabel: snapshot.ProgressMessage,
			Percent:   100,
			Terminal:  true,
		})
		o.logger.Info("translation skipped",
			logging.String(logging.FieldRunID, snapshot.ID),
			logging.String("language", code))
		return nil
	}

	return o.runStage(ctx, epoch, StageTranslating, func(ctx context.Context) (func(*Run), error) {
		translated, err := o.clients.Translator.Translate(ctx, text, code, language.English)
		if err != nil {
			return nil, err
		}
		return func(run *Run) {
			run.Translation = &TranslationResult{
				SourceCode: code,
				TargetCode: language.English,
				Text:       translated,
			}
			run.TranslatedText = translated
		}, nil
	})
}

// runStage plays the progress script for a stage, performs the remote call,
// and applies the result. Every mutation is guarded by the epoch captured at
// entry so work for a cancelled run is discarded instead of applied.
func (o *Orchestrator) runStage(ctx context.Context, epoch uint64, stage Stage, invoke func(context.Context) (func(*Run), error)) error {
	o.mu.Lock()
	if o.epoch != epoch || o.run == nil {
		o.mu.Unlock()
		return errStale
	}
	o.busy = true
	o.run.Stage = stage
	o.run.ProgressLabel = stage.Label()
	o.run.ProgressMessage = stage.Label()
	o.run.ProgressPercent = 0
	o.run.Err = nil
	o.run.UpdatedAt = time.Now().UTC()
	snapshot := o.run.clone()
	o.mu.Unlock()

	o.logger.Info("stage started",
		logging.String(logging.FieldRunID, snapshot.ID),
		logging.String(logging.FieldStage, string(stage)))
	o.record(ctx, snapshot)
	o.publish(Event{RunID: snapshot.ID, Stage: stage, StepLabel: stage.Label(), Percent: 0})

	done := make(chan struct{})
	var apply func(*Run)
	var callErr error
	go func() {
		defer close(done)
		callCtx := services.WithRunID(ctx, snapshot.ID)
		callCtx = services.WithStage(callCtx, string(stage))
		apply, callErr = invoke(callCtx)
	}()

	if err := o.playScript(ctx, epoch, stage, snapshot.ID, done); err != nil {
		<-done
		o.clearBusy(epoch)
		if IsStale(err) {
			return err
		}
		return o.failStage(ctx, epoch, stage, err)
	}
	<-done
	o.clearBusy(epoch)

	if callErr != nil {
		return o.failStage(ctx, epoch, stage, callErr)
	}

	o.mu.Lock()
	if o.epoch != epoch || o.run == nil {
		o.mu.Unlock()
		return errStale
	}
	if apply != nil {
		apply(o.run)
	}
	next := stage.successor()
	o.run.Stage = next
	o.run.ProgressLabel = stage.Label()
	o.run.ProgressMessage = stage.Label() + " complete"
	o.run.ProgressPercent = 100
	o.run.UpdatedAt = time.Now().UTC()
	snapshot = o.run.clone()
	o.mu.Unlock()

	o.record(ctx, snapshot)
	o.publish(Event{
		RunID:     snapshot.ID,
		Stage:     next,
		StepLabel: snapshot.ProgressMessage,
		Percent:   100,
		Terminal:  next.IsTerminal(),
	})
	o.logger.Info("stage finished",
		logging.String(logging.FieldRunID, snapshot.ID),
		logging.String(logging.FieldStage, string(stage)))
	return nil
}

// playScript emits the intermediate progress ticks for a stage until the
// remote call completes. Ticks never reach 100 percent; only the applied
// result does.
func (o *Orchestrator) playScript(ctx context.Context, epoch uint64, stage Stage, runID string, done <-chan struct{}) error {
	for _, tick := range scriptFor(stage) {
		delay := tick.Delay
		if delay <= 0 {
			delay = o.settings.TickDelay
		}
		if err := o.sleeper(ctx, delay); err != nil {
			return services.Wrap(services.ErrTransport, string(stage), "progress", "interrupted", err)
		}
		select {
		case <-done:
			return nil
		default:
		}

		o.mu.Lock()
		if o.epoch != epoch || o.run == nil {
			o.mu.Unlock()
			return errStale
		}
		if tick.Percent > o.run.ProgressPercent {
			o.run.ProgressPercent = tick.Percent
		}
		o.run.ProgressMessage = tick.Label
		o.run.UpdatedAt = time.Now().UTC()
		snapshot := o.run.clone()
		o.mu.Unlock()

		o.record(ctx, snapshot)
		o.publish(Event{RunID: runID, Stage: stage, StepLabel: tick.Label, Percent: snapshot.ProgressPercent})
	}

	// Script exhausted before the call returned; wait it out.
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return services.Wrap(services.ErrTransport, string(stage), "progress", "interrupted", ctx.Err())
	}
}

func (o *Orchestrator) clearBusy(epoch uint64) {
	o.mu.Lock()
	if o.epoch == epoch {
		o.busy = false
	}
	o.mu.Unlock()
}

// failStage records a stage failure on the run and publishes the terminal
// failure event. Video generation failures keep earlier recognition results
// usable, so they land in their own failure stage.
func (o *Orchestrator) failStage(ctx context.Context, epoch uint64, stage Stage, err error) error {
	details := services.Details(err)
	retryable := services.Retryable(err)
	failure := StageFailed
	if stage == StageGeneratingVideo {
		failure = StageVideoFailed
	}

	o.mu.Lock()
	if o.epoch != epoch || o.run == nil {
		o.mu.Unlock()
		return errStale
	}
	o.run.Stage = failure
	o.run.Err = &StageError{Stage: stage, Message: details.Message, Retryable: retryable}
	o.run.ProgressMessage = details.Message
	o.run.UpdatedAt = time.Now().UTC()
	snapshot := o.run.clone()
	o.mu.Unlock()

	o.record(ctx, snapshot)
	o.publish(Event{
		RunID:     snapshot.ID,
		Stage:     failure,
		StepLabel: stage.Label() + " failed",
		Percent:   snapshot.ProgressPercent,
		Terminal:  true,
		Err:       details.Message,
	})
	o.logger.Error("stage failed",
		logging.String(logging.FieldRunID, snapshot.ID),
		logging.String(logging.FieldStage, string(stage)),
		logging.Error(err))
	return err
}
