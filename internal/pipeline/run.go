package pipeline

import (
	"strings"
	"time"

	"signbridge/internal/services/speech"
)

// Stage represents the lifecycle of a pipeline run.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageDetecting       Stage = "detecting"
	StageTranscribing    Stage = "transcribing"
	StageTranslating     Stage = "translating"
	StageComplete        Stage = "complete"
	StageGeneratingVideo Stage = "generating_video"
	StageVideoReady      Stage = "video_ready"
	StageFailed          Stage = "failed"
	StageVideoFailed     Stage = "video_failed"
)

var allStages = []Stage{
	StageIdle,
	StageDetecting,
	StageTranscribing,
	StageTranslating,
	StageComplete,
	StageGeneratingVideo,
	StageVideoReady,
	StageFailed,
	StageVideoFailed,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

var processingStages = map[Stage]struct{}{
	StageDetecting:       {},
	StageTranscribing:    {},
	StageTranslating:     {},
	StageGeneratingVideo: {},
}

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// IsProcessing reports whether a stage reflects an in-flight remote call.
func (s Stage) IsProcessing() bool {
	_, ok := processingStages[s]
	return ok
}

// IsFailure reports whether a stage is a frozen failure state.
func (s Stage) IsFailure() bool {
	return s == StageFailed || s == StageVideoFailed
}

// IsTerminal reports whether a stage ends a processing pass: the run either
// settled on a result or froze on a failure.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageComplete, StageVideoReady, StageFailed, StageVideoFailed:
		return true
	default:
		return false
	}
}

// successor is the stage a run enters after the given processing stage
// succeeds.
func (s Stage) successor() Stage {
	switch s {
	case StageDetecting:
		return StageTranscribing
	case StageTranscribing:
		return StageTranslating
	case StageTranslating:
		return StageComplete
	case StageGeneratingVideo:
		return StageVideoReady
	default:
		return s
	}
}

// Label returns the human-readable stage name used in progress displays.
func (s Stage) Label() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageDetecting:
		return "Detecting Language"
	case StageTranscribing:
		return "Transcribing"
	case StageTranslating:
		return "Translating"
	case StageComplete:
		return "Translation Ready"
	case StageGeneratingVideo:
		return "Generating Video"
	case StageVideoReady:
		return "Video Ready"
	case StageFailed:
		return "Failed"
	case StageVideoFailed:
		return "Video Failed"
	default:
		return string(s)
	}
}

// Input is the audio artifact a run starts from: either a raw payload or a
// server-side temporary file handle from a previous upload.
type Input struct {
	Audio       []byte
	FileName    string
	TempAudioID string
}

// Empty reports whether the input carries no artifact at all.
func (in Input) Empty() bool {
	return len(in.Audio) == 0 && strings.TrimSpace(in.TempAudioID) == ""
}

// StageError describes which stage failed and why.
type StageError struct {
	Stage     Stage  `json:"stage"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Stage) + ": " + e.Message
}

// TranslationResult records the translation stage outcome in a uniform shape.
// When the source language is already English the stage is bypassed and an
// identity mapping is recorded instead, so downstream consumers see the same
// structure either way.
type TranslationResult struct {
	SourceCode string `json:"source_language_code"`
	TargetCode string `json:"target_language_code"`
	Text       string `json:"text"`
	Identity   bool   `json:"identity"`
}

// VideoResult references a generated preview video on the server.
type VideoResult struct {
	TempVideoID  string   `json:"temp_video_id"`
	PreviewURL   string   `json:"preview_url"`
	Duration     float64  `json:"video_duration"`
	SignsUsed    []string `json:"signs_used"`
	SignsSkipped []string `json:"signs_skipped"`
}

// Run is a snapshot of one end-to-end conversion attempt. The orchestrator
// hands out copies; only the orchestrator mutates the underlying state.
type Run struct {
	ID               string
	Stage            Stage
	SourceFile       string
	DetectedLanguage string
	Transcript       speech.Transcript
	Translation      *TranslationResult
	// TranslatedText starts as the translation result and may be hand-edited
	// by the user before video generation; generation always reads the
	// current value.
	TranslatedText string
	Model          string
	Video          *VideoResult
	SavedURL       string
	Err            *StageError

	ProgressLabel   string
	ProgressMessage string
	ProgressPercent float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// clone deep-copies the run so callers can hold snapshots safely.
func (r *Run) clone() Run {
	cp := *r
	if r.Translation != nil {
		t := *r.Translation
		cp.Translation = &t
	}
	if r.Video != nil {
		v := *r.Video
		v.SignsUsed = append([]string{}, r.Video.SignsUsed...)
		v.SignsSkipped = append([]string{}, r.Video.SignsSkipped...)
		cp.Video = &v
	}
	if r.Err != nil {
		e := *r.Err
		cp.Err = &e
	}
	if len(r.Transcript.Words) > 0 {
		cp.Transcript.Words = append([]speech.WordTiming{}, r.Transcript.Words...)
	}
	return cp
}
