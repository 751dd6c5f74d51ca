package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// WordTiming is one recognized word with its audio offsets in seconds.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

// Translation describes the translation stage outcome, including the
// identity mapping recorded when the source audio was already English.
type Translation struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Text           string `json:"text"`
	Identity       bool   `json:"identity"`
}

// Video references a generated preview video held in temporary storage.
type Video struct {
	TempVideoID  string   `json:"tempVideoId"`
	PreviewURL   string   `json:"previewUrl"`
	Duration     float64  `json:"videoDuration"`
	SignsUsed    []string `json:"signsUsed"`
	SignsSkipped []string `json:"signsSkipped"`
}

// RunError describes which stage failed and whether retry can recover it.
type RunError struct {
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Progress captures progress information for a run.
type Progress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Run describes a conversion run in a transport-friendly format.
type Run struct {
	ID               string       `json:"id"`
	Stage            string       `json:"stage"`
	StageLabel       string       `json:"stageLabel"`
	SourceFile       string       `json:"sourceFile"`
	DetectedLanguage string       `json:"detectedLanguage,omitempty"`
	LanguageName     string       `json:"languageName,omitempty"`
	Transcript       string       `json:"transcript,omitempty"`
	Words            []WordTiming `json:"words,omitempty"`
	Translation      *Translation `json:"translation,omitempty"`
	TranslatedText   string       `json:"translatedText,omitempty"`
	Model            string       `json:"model,omitempty"`
	Video            *Video       `json:"video,omitempty"`
	SavedURL         string       `json:"savedUrl,omitempty"`
	Error            *RunError    `json:"error,omitempty"`
	Progress         Progress     `json:"progress"`
	CreatedAt        string       `json:"createdAt,omitempty"`
	UpdatedAt        string       `json:"updatedAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool     `json:"running"`
	PID          int      `json:"pid"`
	LedgerDBPath string   `json:"ledgerDbPath"`
	LockFilePath string   `json:"lockFilePath"`
	ActiveRun    *Run     `json:"activeRun,omitempty"`
	Languages    []string `json:"languages"`
	Models       []string `json:"models"`
}

// RunListResponse wraps a collection of runs for API responses.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// RunResponse wraps a single run.
type RunResponse struct {
	Run Run `json:"run"`
}

// ErrorResponse is the uniform error payload for the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
