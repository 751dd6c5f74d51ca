package signvideo_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"signbridge/internal/services"
	"signbridge/internal/services/signvideo"
)

func newServer(t *testing.T, handler http.HandlerFunc) *signvideo.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return signvideo.NewClient(signvideo.Config{BaseURL: srv.URL})
}

func TestGenerateReturnsResult(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate_video" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var payload struct {
			Text   string `json:"text"`
			Model  string `json:"model"`
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Model != signvideo.ModelFemale || payload.UserID != "user-1" {
			t.Errorf("unexpected payload: %#v", payload)
		}
		_ = json.NewEncoder(w).Encode(signvideo.Result{
			PreviewURL:   "https://cdn.example/preview/v1",
			TempVideoID:  "vid-1",
			Duration:     12.5,
			SignsUsed:    []string{"hello", "world"},
			SignsSkipped: []string{"the"},
		})
	})

	result, err := client.Generate(context.Background(), signvideo.Request{
		Text:   "hello world",
		Model:  signvideo.ModelFemale,
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.TempVideoID != "vid-1" || result.PreviewURL == "" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(result.SignsUsed) != 2 || len(result.SignsSkipped) != 1 {
		t.Fatalf("unexpected sign lists: %#v", result)
	}
}

func TestGenerateRejectsUnknownModel(t *testing.T) {
	client := signvideo.NewClient(signvideo.Config{BaseURL: "http://localhost:0"})
	_, err := client.Generate(context.Background(), signvideo.Request{Text: "hi", Model: "robot"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateTreatsSuccessFalseAsBusinessError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		success := false
		_ = json.NewEncoder(w).Encode(signvideo.Result{Success: &success, Detail: "no signs matched"})
	})

	_, err := client.Generate(context.Background(), signvideo.Request{Text: "hi", Model: signvideo.ModelMale})
	if !errors.Is(err, services.ErrBusiness) {
		t.Fatalf("expected business error, got %v", err)
	}
}

func TestGenerateRejectsIncompleteResult(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(signvideo.Result{PreviewURL: "https://cdn.example/p"})
	})

	_, err := client.Generate(context.Background(), signvideo.Request{Text: "hi", Model: signvideo.ModelMale})
	if !errors.Is(err, services.ErrBusiness) {
		t.Fatalf("expected business error for missing temp id, got %v", err)
	}
}

func TestSaveReturnsDurableURL(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/save_video" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var payload struct {
			TempVideoID string `json:"temp_video_id"`
			UserID      string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.TempVideoID != "vid-1" {
			t.Errorf("temp_video_id = %q", payload.TempVideoID)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"video_url": "https://cdn.example/saved/v1"})
	})

	url, err := client.Save(context.Background(), "vid-1", "user-1")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if url != "https://cdn.example/saved/v1" {
		t.Fatalf("url = %q", url)
	}
}

func TestSaveRequiresTempID(t *testing.T) {
	client := signvideo.NewClient(signvideo.Config{BaseURL: "http://localhost:0"})
	_, err := client.Save(context.Background(), "  ", "user-1")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReleaseVideoIgnoresEmptyID(t *testing.T) {
	called := false
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if err := client.ReleaseVideo(context.Background(), ""); err != nil {
		t.Fatalf("ReleaseVideo returned error: %v", err)
	}
	if called {
		t.Fatal("empty id should not reach the backend")
	}
}

func TestValidModel(t *testing.T) {
	if !signvideo.ValidModel(signvideo.ModelMale) || !signvideo.ValidModel(signvideo.ModelFemale) {
		t.Fatal("known models rejected")
	}
	if signvideo.ValidModel("") || signvideo.ValidModel("robot") {
		t.Fatal("unknown models accepted")
	}
}
