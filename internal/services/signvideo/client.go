package signvideo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signbridge/internal/services"
)

const (
	stageName          = "video generation"
	defaultHTTPTimeout = 300 * time.Second
)

// Models accepted by the synthesis backend.
const (
	ModelMale   = "male"
	ModelFemale = "female"
)

// ValidModel reports whether the backend knows the given avatar model.
func ValidModel(model string) bool {
	return model == ModelMale || model == ModelFemale
}

// Config captures the runtime settings required to reach the video service.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client invokes the video-generation endpoints.
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

// NewClient constructs a video client using the supplied configuration.
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

// Request describes one video-generation call.
type Request struct {
	Text   string
	Model  string
	UserID string
}

// Result is the generation response payload.
type Result struct {
	Success      *bool    `json:"success,omitempty"`
	PreviewURL   string   `json:"preview_url"`
	TempVideoID  string   `json:"temp_video_id"`
	Duration     float64  `json:"video_duration"`
	SignsUsed    []string `json:"signs_used"`
	SignsSkipped []string `json:"signs_skipped"`
	Detail       string   `json:"detail,omitempty"`
}

type generateRequest struct {
	Text   string `json:"text"`
	Model  string `json:"model"`
	UserID string `json:"user_id"`
}

// Generate synthesizes an ISL preview video for the given text. A 2xx
// response carrying success=false is treated identically to a non-2xx
// failure. The call is synchronous and performs no retries.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	var result Result
	if c.cfg.BaseURL == "" {
		return result, services.Wrap(services.ErrValidation, stageName, "", "service endpoint not configured", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return result, services.Wrap(services.ErrValidation, stageName, "", "text required", nil)
	}
	if !ValidModel(req.Model) {
		return result, services.Wrap(services.ErrValidation, stageName, "", fmt.Sprintf("unknown model %q", req.Model), nil)
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "generate_video")
	if err != nil {
		return result, services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}

	payload := generateRequest{Text: strings.TrimSpace(req.Text), Model: req.Model, UserID: strings.TrimSpace(req.UserID)}
	if err := services.PostJSON(ctx, c.doer, stageName, endpoint, payload, &result); err != nil {
		return Result{}, err
	}
	if result.Success != nil && !*result.Success {
		message := strings.TrimSpace(result.Detail)
		if message == "" {
			message = "backend reported failure"
		}
		return Result{}, services.Wrap(services.ErrBusiness, stageName, "", message, nil)
	}
	if strings.TrimSpace(result.PreviewURL) == "" || strings.TrimSpace(result.TempVideoID) == "" {
		return Result{}, services.Wrap(services.ErrBusiness, stageName, "", "backend returned incomplete video result", nil)
	}
	return result, nil
}

type saveRequest struct {
	TempVideoID string `json:"temp_video_id"`
	UserID      string `json:"user_id"`
}

type saveResponse struct {
	Success  *bool  `json:"success,omitempty"`
	VideoURL string `json:"video_url"`
	Detail   string `json:"detail,omitempty"`
}

// Save promotes a temporary preview video to permanent storage and returns
// its durable URL. A saved video no longer needs cleanup.
func (c *Client) Save(ctx context.Context, tempVideoID, userID string) (string, error) {
	tempVideoID = strings.TrimSpace(tempVideoID)
	if c.cfg.BaseURL == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "", "service endpoint not configured", nil)
	}
	if tempVideoID == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "", "temp video id required", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "save_video")
	if err != nil {
		return "", services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}
	var resp saveResponse
	if err := services.PostJSON(ctx, c.doer, stageName, endpoint, saveRequest{TempVideoID: tempVideoID, UserID: userID}, &resp); err != nil {
		return "", err
	}
	if resp.Success != nil && !*resp.Success {
		message := strings.TrimSpace(resp.Detail)
		if message == "" {
			message = "backend reported failure"
		}
		return "", services.Wrap(services.ErrBusiness, stageName, "", message, nil)
	}
	return strings.TrimSpace(resp.VideoURL), nil
}

// ReleaseVideo requests deletion of a server-side temporary video.
// The backend treats unknown ids as already deleted.
func (c *Client) ReleaseVideo(ctx context.Context, tempVideoID string) error {
	tempVideoID = strings.TrimSpace(tempVideoID)
	if tempVideoID == "" || c.cfg.BaseURL == "" {
		return nil
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "cleanup_video")
	if err != nil {
		return services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}
	payload := struct {
		TempVideoID string `json:"temp_video_id"`
	}{TempVideoID: tempVideoID}
	return services.PostJSON(ctx, c.doer, stageName, endpoint, payload, nil)
}
