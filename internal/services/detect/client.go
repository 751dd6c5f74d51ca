package detect

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signbridge/internal/services"
)

const (
	stageName          = "language detection"
	defaultHTTPTimeout = 60 * time.Second
)

// Config captures the runtime settings required to reach the detection service.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client invokes the language-detection endpoint.
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

// NewClient constructs a detection client using the supplied configuration.
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

// Result is the detection response payload.
type Result struct {
	DetectedLanguage string `json:"detected_language"`
}

// Request describes one detection call. Exactly one of Audio or TempAudioID
// supplies the input artifact.
type Request struct {
	Audio       io.Reader
	FileName    string
	TempAudioID string
}

// Detect submits audio (raw or by temp id) and returns the backend's
// free-text language name. The call is synchronous and performs no retries.
func (c *Client) Detect(ctx context.Context, req Request) (Result, error) {
	var result Result
	if c.cfg.BaseURL == "" {
		return result, services.Wrap(services.ErrValidation, stageName, "", "service endpoint not configured", nil)
	}
	if req.Audio == nil && strings.TrimSpace(req.TempAudioID) == "" {
		return result, services.Wrap(services.ErrValidation, stageName, "", "audio payload or temp id required", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "detect_language")
	if err != nil {
		return result, services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}
	var fields map[string]string
	if id := strings.TrimSpace(req.TempAudioID); id != "" {
		fields = map[string]string{"temp_audio_id": id}
	}
	if err := services.PostMultipart(ctx, c.doer, stageName, endpoint, fields, "audio", req.FileName, req.Audio, &result); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(result.DetectedLanguage) == "" {
		return Result{}, services.Wrap(services.ErrBusiness, stageName, "", "backend returned no language", errors.New("empty detected_language"))
	}
	result.DetectedLanguage = strings.TrimSpace(result.DetectedLanguage)
	return result, nil
}
