package translating

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signbridge/internal/services"
)

const (
	stageName          = "translation"
	defaultHTTPTimeout = 60 * time.Second
)

// Config captures the runtime settings required to reach the translation service.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client invokes the translation endpoint.
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

// NewClient constructs a translation client using the supplied configuration.
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

type translateRequest struct {
	Text               string `json:"text"`
	SourceLanguageCode string `json:"source_language_code"`
	TargetLanguageCode string `json:"target_language_code"`
}

type translateResponse struct {
	Success        *bool  `json:"success,omitempty"`
	TranslatedText string `json:"translated_text"`
	Detail         string `json:"detail,omitempty"`
}

// Translate converts text between the given language codes. A 2xx response
// carrying success=false is treated identically to a non-2xx failure.
func (c *Client) Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error) {
	text = strings.TrimSpace(text)
	if c.cfg.BaseURL == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "", "service endpoint not configured", nil)
	}
	if text == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "", "text required", nil)
	}
	if strings.TrimSpace(sourceCode) == "" || strings.TrimSpace(targetCode) == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "", "source and target language codes required", nil)
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "translate")
	if err != nil {
		return "", services.Wrap(services.ErrTransport, stageName, "build url", "", err)
	}

	var resp translateResponse
	payload := translateRequest{Text: text, SourceLanguageCode: sourceCode, TargetLanguageCode: targetCode}
	if err := services.PostJSON(ctx, c.doer, stageName, endpoint, payload, &resp); err != nil {
		return "", err
	}
	if resp.Success != nil && !*resp.Success {
		message := strings.TrimSpace(resp.Detail)
		if message == "" {
			message = "backend reported failure"
		}
		return "", services.Wrap(services.ErrBusiness, stageName, "", message, nil)
	}
	translated := strings.TrimSpace(resp.TranslatedText)
	if translated == "" {
		return "", services.Wrap(services.ErrBusiness, stageName, "", "backend returned empty translation", nil)
	}
	return translated, nil
}
