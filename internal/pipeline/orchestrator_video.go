package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signbridge/internal/artifacts"
	"signbridge/internal/logging"
	"signbridge/internal/services"
	"signbridge/internal/services/signvideo"
)

// GenerateVideo synthesizes a sign-language video from the run's current
// translated text. It is valid once a translation exists and may be invoked
// again after success or failure to regenerate, releasing the previous
// temporary video exactly once at the transition in.
func (o *Orchestrator) GenerateVideo(ctx context.Context, model string) (Run, error) {
	if model == "" {
		model = o.settings.DefaultModel
	}
	if !signvideo.ValidModel(model) {
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "generate",
			fmt.Sprintf("unknown model %q", model), nil)
	}

	o.mu.Lock()
	if o.run == nil {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "generate", "no active run", nil)
	}
	if o.busy {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "generate", "run is busy", nil)
	}
	switch o.run.Stage {
	case StageComplete, StageVideoReady, StageVideoFailed:
	default:
		stage := o.run.Stage
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "generate",
			fmt.Sprintf("run is %s, not ready for video generation", stage), nil)
	}
	text := strings.TrimSpace(o.run.TranslatedText)
	if text == "" {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "generate", "translated text is empty", nil)
	}
	var previous string
	if o.run.Video != nil {
		previous = o.run.Video.TempVideoID
		o.run.Video = nil
	}
	o.run.Model = model
	o.run.SavedURL = ""
	// Claim the run before the lock drops. The previous-video release is a
	// remote call; without the claim a second generate request arriving
	// during it would pass every precondition above.
	o.busy = true
	epoch := o.epoch
	o.mu.Unlock()

	return o.generateVideo(ctx, epoch, model, text, previous)
}

// generateVideo releases the superseded temp video and runs the generation
// stage. The caller must have marked the run busy under the lock.
func (o *Orchestrator) generateVideo(ctx context.Context, epoch uint64, model, text, previous string) (Run, error) {
	if previous != "" && o.registry != nil {
		o.registry.Release(ctx, artifacts.KindVideo, previous)
	}

	err := o.runStage(ctx, epoch, StageGeneratingVideo, func(ctx context.Context) (func(*Run), error) {
		result, genErr := o.clients.Synthesizer.Generate(ctx, signvideo.Request{
			Text:   text,
			Model:  model,
			UserID: o.settings.UserID,
		})
		if genErr != nil {
			return nil, genErr
		}
		if o.registry != nil {
			o.registry.Register(artifacts.KindVideo, result.TempVideoID)
		}
		return func(run *Run) {
			run.Video = &VideoResult{
				TempVideoID:  result.TempVideoID,
				PreviewURL:   result.PreviewURL,
				Duration:     result.Duration,
				SignsUsed:    result.SignsUsed,
				SignsSkipped: result.SignsSkipped,
			}
		}, nil
	})
	return o.finish(ctx, epoch, err)
}

// Save promotes the run's temporary preview video to permanent storage. The
// saved video is no longer ephemeral, so it leaves the cleanup registry.
func (o *Orchestrator) Save(ctx context.Context) (Run, error) {
	o.mu.Lock()
	if o.run == nil || o.run.Stage != StageVideoReady || o.run.Video == nil {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "save", "no video ready to save", nil)
	}
	if o.busy {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "video generation", "save", "run is busy", nil)
	}
	tempID := o.run.Video.TempVideoID
	runID := o.run.ID
	epoch := o.epoch
	o.mu.Unlock()

	callCtx := services.WithRunID(ctx, runID)
	url, err := o.clients.Synthesizer.Save(callCtx, tempID, o.settings.UserID)
	if err != nil {
		o.logger.Error("save failed",
			logging.String(logging.FieldRunID, runID),
			logging.Error(err))
		return o.finish(ctx, epoch, err)
	}

	o.mu.Lock()
	if o.epoch != epoch || o.run == nil {
		o.mu.Unlock()
		return Run{}, errStale
	}
	o.run.SavedURL = url
	o.run.UpdatedAt = time.Now().UTC()
	snapshot := o.run.clone()
	o.mu.Unlock()

	if o.registry != nil {
		o.registry.Forget(artifacts.KindVideo, tempID)
	}
	o.record(ctx, snapshot)
	o.logger.Info("video saved",
		logging.String(logging.FieldRunID, runID),
		logging.String("video_url", url))
	return snapshot, nil
}

// SetTranslatedText replaces the text that video generation will consume.
// The recognition results are untouched; only the editable translation
// output changes.
func (o *Orchestrator) SetTranslatedText(ctx context.Context, text string) (Run, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Run{}, services.Wrap(services.ErrValidation, "translation", "edit", "translated text cannot be empty", nil)
	}

	o.mu.Lock()
	if o.run == nil || o.run.Translation == nil {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "translation", "edit", "no translation to edit", nil)
	}
	if o.busy {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "translation", "edit", "run is busy", nil)
	}
	o.run.TranslatedText = text
	o.run.UpdatedAt = time.Now().UTC()
	snapshot := o.run.clone()
	o.mu.Unlock()

	o.record(ctx, snapshot)
	return snapshot, nil
}
