package api

import (
	"time"

	"signbridge/internal/language"
	"signbridge/internal/pipeline"
)

// FromRun converts a pipeline snapshot into its API view.
func FromRun(run pipeline.Run) Run {
	view := Run{
		ID:               run.ID,
		Stage:            string(run.Stage),
		StageLabel:       run.Stage.Label(),
		SourceFile:       run.SourceFile,
		DetectedLanguage: run.DetectedLanguage,
		Transcript:       run.Transcript.Text,
		TranslatedText:   run.TranslatedText,
		Model:            run.Model,
		SavedURL:         run.SavedURL,
		Progress: Progress{
			Stage:   run.ProgressLabel,
			Percent: run.ProgressPercent,
			Message: run.ProgressMessage,
		},
		CreatedAt: formatTime(run.CreatedAt),
		UpdatedAt: formatTime(run.UpdatedAt),
	}
	if run.DetectedLanguage != "" {
		view.LanguageName = language.DisplayName(run.DetectedLanguage)
	}
	if len(run.Transcript.Words) > 0 {
		view.Words = make([]WordTiming, 0, len(run.Transcript.Words))
		for _, word := range run.Transcript.Words {
			view.Words = append(view.Words, WordTiming{Word: word.Word, Start: word.Start, End: word.End})
		}
	}
	if run.Translation != nil {
		view.Translation = &Translation{
			SourceLanguage: run.Translation.SourceCode,
			TargetLanguage: run.Translation.TargetCode,
			Text:           run.Translation.Text,
			Identity:       run.Translation.Identity,
		}
	}
	if run.Video != nil {
		view.Video = &Video{
			TempVideoID:  run.Video.TempVideoID,
			PreviewURL:   run.Video.PreviewURL,
			Duration:     run.Video.Duration,
			SignsUsed:    append([]string{}, run.Video.SignsUsed...),
			SignsSkipped: append([]string{}, run.Video.SignsSkipped...),
		}
	}
	if run.Err != nil {
		view.Error = &RunError{
			Stage:     string(run.Err.Stage),
			Message:   run.Err.Message,
			Retryable: run.Err.Retryable,
		}
	}
	return view
}

// FromRuns converts a ledger listing, skipping nil entries.
func FromRuns(runs []*pipeline.Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, run := range runs {
		if run == nil {
			continue
		}
		out = append(out, FromRun(*run))
	}
	return out
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}
