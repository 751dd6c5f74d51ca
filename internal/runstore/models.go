package runstore

import (
	"encoding/json"
	"fmt"
	"time"

	"signbridge/internal/pipeline"
	"signbridge/internal/services/speech"
)

// Row is the persisted shape of one run snapshot.
type Row struct {
	ID               string
	Stage            string
	SourceFile       string
	DetectedLanguage string
	Transcript       string
	WordsJSON        string
	TranslationJSON  string
	TranslatedText   string
	Model            string
	VideoJSON        string
	SavedURL         string
	ErrorStage       string
	ErrorMessage     string
	ErrorRetryable   bool
	ProgressMessage  string
	ProgressPercent  float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func rowFromRun(run pipeline.Run) (Row, error) {
	row := Row{
		ID:               run.ID,
		Stage:            string(run.Stage),
		SourceFile:       run.SourceFile,
		DetectedLanguage: run.DetectedLanguage,
		Transcript:       run.Transcript.Text,
		TranslatedText:   run.TranslatedText,
		Model:            run.Model,
		SavedURL:         run.SavedURL,
		ProgressMessage:  run.ProgressMessage,
		ProgressPercent:  run.ProgressPercent,
		CreatedAt:        run.CreatedAt,
		UpdatedAt:        run.UpdatedAt,
	}
	if len(run.Transcript.Words) > 0 {
		data, err := json.Marshal(run.Transcript.Words)
		if err != nil {
			return Row{}, fmt.Errorf("marshal word timings: %w", err)
		}
		row.WordsJSON = string(data)
	}
	if run.Translation != nil {
		data, err := json.Marshal(run.Translation)
		if err != nil {
			return Row{}, fmt.Errorf("marshal translation: %w", err)
		}
		row.TranslationJSON = string(data)
	}
	if run.Video != nil {
		data, err := json.Marshal(run.Video)
		if err != nil {
			return Row{}, fmt.Errorf("marshal video result: %w", err)
		}
		row.VideoJSON = string(data)
	}
	if run.Err != nil {
		row.ErrorStage = string(run.Err.Stage)
		row.ErrorMessage = run.Err.Message
		row.ErrorRetryable = run.Err.Retryable
	}
	return row, nil
}

// Run reconstructs the pipeline snapshot this row was recorded from.
func (r Row) Run() (pipeline.Run, error) {
	run := pipeline.Run{
		ID:               r.ID,
		Stage:            pipeline.Stage(r.Stage),
		SourceFile:       r.SourceFile,
		DetectedLanguage: r.DetectedLanguage,
		Transcript:       speech.Transcript{Text: r.Transcript},
		TranslatedText:   r.TranslatedText,
		Model:            r.Model,
		SavedURL:         r.SavedURL,
		ProgressMessage:  r.ProgressMessage,
		ProgressPercent:  r.ProgressPercent,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.WordsJSON != "" {
		if err := json.Unmarshal([]byte(r.WordsJSON), &run.Transcript.Words); err != nil {
			return pipeline.Run{}, fmt.Errorf("unmarshal word timings: %w", err)
		}
	}
	if r.TranslationJSON != "" {
		var translation pipeline.TranslationResult
		if err := json.Unmarshal([]byte(r.TranslationJSON), &translation); err != nil {
			return pipeline.Run{}, fmt.Errorf("unmarshal translation: %w", err)
		}
		run.Translation = &translation
	}
	if r.VideoJSON != "" {
		var video pipeline.VideoResult
		if err := json.Unmarshal([]byte(r.VideoJSON), &video); err != nil {
			return pipeline.Run{}, fmt.Errorf("unmarshal video result: %w", err)
		}
		run.Video = &video
	}
	if r.ErrorMessage != "" {
		run.Err = &pipeline.StageError{
			Stage:     pipeline.Stage(r.ErrorStage),
			Message:   r.ErrorMessage,
			Retryable: r.ErrorRetryable,
		}
	}
	return run, nil
}
