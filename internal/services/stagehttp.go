package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// HTTPDoer describes the HTTP client used by the stage service clients.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError carries the HTTP status and the structured detail message a
// stage backend returned alongside a non-2xx response.
type StatusError struct {
	Stage      string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		detail = "no detail provided"
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, detail)
}

// errorBody is the structured error shape shared by every stage backend.
type errorBody struct {
	Detail string `json:"detail"`
}

const maxErrorBodyBytes = 8 << 10

// PostJSON issues a single JSON request against a stage endpoint and decodes
// a successful response into out. It performs exactly one round trip; retry
// policy belongs to the caller.
func PostJSON(ctx context.Context, doer HTTPDoer, stage, endpoint string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Wrap(ErrTransport, stage, "encode request", "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Wrap(ErrTransport, stage, "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return send(doer, req, stage, out)
}

// PostMultipart issues a single multipart/form-data request carrying one file
// part plus flat string fields, then decodes a successful response into out.
func PostMultipart(ctx context.Context, doer HTTPDoer, stage, endpoint string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return Wrap(ErrTransport, stage, "encode form field", key, err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return Wrap(ErrTransport, stage, "encode form file", "", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return Wrap(ErrTransport, stage, "copy audio payload", "", err)
		}
	}
	if err := writer.Close(); err != nil {
		return Wrap(ErrTransport, stage, "finalize form", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Wrap(ErrTransport, stage, "build request", "", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return send(doer, req, stage, out)
}

func send(doer HTTPDoer, req *http.Request, stage string, out any) error {
	if doer == nil {
		doer = http.DefaultClient
	}
	resp, err := doer.Do(req)
	if err != nil {
		return Wrap(ErrTransport, stage, "http error", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return classifyStatus(resp, stage)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Wrap(ErrTransport, stage, "decode response", "", err)
	}
	return nil
}

func classifyStatus(resp *http.Response, stage string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	statusErr := &StatusError{Stage: stage, StatusCode: resp.StatusCode}

	// The StatusError cause already carries the status and detail; passing
	// them as the message too would repeat them in the rendered error.
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Detail) != "" {
		statusErr.Detail = strings.TrimSpace(parsed.Detail)
		return Wrap(ErrBusiness, stage, "", "", statusErr)
	}

	statusErr.Detail = summarizeBody(body)
	return Wrap(ErrTransport, stage, "", "", statusErr)
}

func summarizeBody(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
