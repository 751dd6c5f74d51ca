package speech

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signbridge/internal/services"
)

const (
	stageName          = "speech recognition"
	defaultHTTPTimeout = 120 * time.Second
)

// Config captures the runtime settings required to reach the speech service.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client invokes the speech-recognition endpoints.
type Client struct {
	cfg  Config
	doer services.HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer services.HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// NewClient constructs a speech client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:  Config{BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"), TimeoutSeconds: cfg.TimeoutSeconds},
		doer: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// WordTiming is one transcript word with its offsets in seconds.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Transcript is the recognition response payload.
type Transcript struct {
	Text        string       `json:"transcript"`
	Words       []WordTiming `json:"words,omitempty"`
	TempAudioID string       `json:"temp_audio_id,omitempty"`
}

// Request describes one transcription call. Exactly one of Audio or
// TempAudioID supplies the input artifact.
type Request struct {
	Audio        io.Reader
	FileName     string
	TempAudioID  string
	LanguageCode string
	Punctuate    bool
}

// Transcribe submits audio (raw or by temp id) for recognition in the given
// language. The call is synchronous and performs no retries.
func (c *Client) Transcribe(ctx context.Context, req Request) (Transcript, error) {
	var transcript Transcript
	if c.cfg.BaseURL == "" {
		return transcript, services.Wrap(services.ErrValidation, stageName, "", "service endpoint not configured", nil)
	}
	if req.Audio == nil && strings.TrimSpace(req.TempAudioID) == "" {
		return transcript, services.Wrap(services.ErrValidation, stageName, "", "audio payload or temp id required", nil)
	}
	if strings.TrimSpace(req.LanguageCode) == "" {
		return transcript, services.Wrap(services.ErrValidation, stageName, "", "language code required", nil)
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "transcribe")
	if err != nil {
		return transcript, services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}

	fields := map[string]string{
		"language_code":         req.LanguageCode,
		"enable_punctuation":    strconv.FormatBool(req.Punctuate),
		"enable_word_offsets":   "true",
		"enable_partial_result": "false",
	}
	if id := strings.TrimSpace(req.TempAudioID); id != "" {
		fields["temp_audio_id"] = id
	}
	if err := services.PostMultipart(ctx, c.doer, stageName, endpoint, fields, "audio", req.FileName, req.Audio, &transcript); err != nil {
		return Transcript{}, err
	}
	transcript.Text = strings.TrimSpace(transcript.Text)
	if transcript.Text == "" {
		return Transcript{}, services.Wrap(services.ErrBusiness, stageName, "", "backend returned an empty transcript", nil)
	}
	return transcript, nil
}

// ReleaseAudio requests deletion of a server-side temporary audio file.
// The backend treats unknown ids as already deleted.
func (c *Client) ReleaseAudio(ctx context.Context, tempAudioID string) error {
	tempAudioID = strings.TrimSpace(tempAudioID)
	if tempAudioID == "" || c.cfg.BaseURL == "" {
		return nil
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "cleanup_audio")
	if err != nil {
		return services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}
	payload := struct {
		TempAudioID string `json:"temp_audio_id"`
	}{TempAudioID: tempAudioID}
	return services.PostJSON(ctx, c.doer, stageName, endpoint, payload, nil)
}
