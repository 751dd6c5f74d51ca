package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signbridge/internal/logging"
	"signbridge/internal/services"
)

// Retry resumes a failed run at the stage that failed. Recognition stages
// resume the detection chain from the failure point with earlier results
// intact; a failed video generation is retried with the run's stored model.
func (o *Orchestrator) Retry(ctx context.Context) (Run, error) {
	o.mu.Lock()
	if o.run == nil {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "retry", "no active run", nil)
	}
	if o.busy {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "retry", "run is busy", nil)
	}
	if !o.run.Stage.IsFailure() || o.run.Err == nil {
		stage := o.run.Stage
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "retry",
			fmt.Sprintf("run is %s, nothing to retry", stage), nil)
	}
	stageErr := *o.run.Err
	if !stageErr.Retryable {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "retry",
			fmt.Sprintf("%s failure is not retryable", stageErr.Stage.Label()), nil)
	}
	model := o.run.Model
	epoch := o.epoch
	runID := o.run.ID
	var text, previous string
	if stageErr.Stage == StageGeneratingVideo {
		text = strings.TrimSpace(o.run.TranslatedText)
		if o.run.Video != nil {
			previous = o.run.Video.TempVideoID
			o.run.Video = nil
		}
		o.run.SavedURL = ""
	}
	// Claim the run before the lock drops so nothing else can start a stage
	// while the retry is dispatched.
	o.busy = true
	o.mu.Unlock()

	o.logger.Info("retrying stage",
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldStage, string(stageErr.Stage)))

	if stageErr.Stage == StageGeneratingVideo {
		return o.generateVideo(ctx, epoch, model, text, previous)
	}
	return o.processFrom(ctx, epoch, stageErr.Stage)
}

// Cancel aborts the active run from any state. In-flight stage results are
// discarded when they arrive and every ephemeral artifact is released.
func (o *Orchestrator) Cancel(ctx context.Context) (Run, error) {
	o.mu.Lock()
	if o.run == nil {
		o.mu.Unlock()
		return Run{}, services.Wrap(services.ErrValidation, "pipeline", "cancel", "no active run", nil)
	}
	o.epoch++
	o.busy = false
	previous := o.run.clone()
	o.run = nil
	o.input = Input{}
	o.mu.Unlock()

	if o.registry != nil {
		o.registry.ReleaseAll(ctx)
	}

	previous.Stage = StageIdle
	previous.ProgressMessage = "Cancelled"
	previous.UpdatedAt = time.Now().UTC()
	o.record(ctx, previous)
	o.publish(Event{
		RunID:     previous.ID,
		Stage:     StageIdle,
		StepLabel: "Cancelled",
		Percent:   previous.ProgressPercent,
		Terminal:  true,
	})
	o.logger.Info("run cancelled",
		logging.String(logging.FieldRunID, previous.ID))
	return previous, nil
}
