package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"signbridge/internal/api"
)

var apiHTTPClient = &http.Client{Timeout: 10 * time.Minute}

func uploadRun(ctx context.Context, baseURL, audioPath string) (api.Run, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return api.Run{}, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return api.Run{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return api.Run{}, fmt.Errorf("read audio file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return api.Run{}, fmt.Errorf("finish upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/runs", &body)
	if err != nil {
		return api.Run{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return doRunRequest(req)
}

func fetchRun(ctx context.Context, baseURL, id string) (api.Run, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/runs/"+id, nil)
	if err != nil {
		return api.Run{}, err
	}
	return doRunRequest(req)
}

func postRunAction(ctx context.Context, baseURL, id, action string, payload any) (api.Run, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return api.Run{}, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/runs/"+id+"/"+action, body)
	if err != nil {
		return api.Run{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return doRunRequest(req)
}

func doRunRequest(req *http.Request) (api.Run, error) {
	resp, err := apiHTTPClient.Do(req)
	if err != nil {
		return api.Run{}, fmt.Errorf("call daemon api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return api.Run{}, fmt.Errorf("read daemon response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return api.Run{}, fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return api.Run{}, fmt.Errorf("daemon: http %d", resp.StatusCode)
	}

	var wrapped api.RunResponse
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return api.Run{}, fmt.Errorf("decode daemon response: %w", err)
	}
	return wrapped.Run, nil
}
