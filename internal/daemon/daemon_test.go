package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"signbridge/internal/api"
	"signbridge/internal/artifacts"
	"signbridge/internal/config"
	"signbridge/internal/daemon"
	"signbridge/internal/logs"
	"signbridge/internal/pipeline"
	"signbridge/internal/services/detect"
	"signbridge/internal/services/signvideo"
	"signbridge/internal/services/speech"
	"signbridge/internal/services/translating"
	"signbridge/internal/testsupport"
)

// fakeBackend stands in for all four remote stage services.
type fakeBackend struct {
	mu            sync.Mutex
	audioCleanups []string
	videoCleanups []string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/detect_language", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"detected_language": "Hindi"})
	})
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transcript":    "नमस्ते दुनिया",
			"words":         []map[string]any{{"word": "नमस्ते", "start_time": 0.0, "end_time": 0.8}},
			"temp_audio_id": "aud-1",
		})
	})
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"translated_text": "hello world"})
	})
	mux.HandleFunc("/generate_video", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"preview_url":    "https://cdn.example/preview/vid-1",
			"temp_video_id":  "vid-1",
			"video_duration": 9.5,
			"signs_used":     []string{"hello", "world"},
		})
	})
	mux.HandleFunc("/save_video", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"video_url": "https://cdn.example/saved/vid-1"})
	})
	mux.HandleFunc("/cleanup_audio", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			TempAudioID string `json:"temp_audio_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		b.mu.Lock()
		b.audioCleanups = append(b.audioCleanups, payload.TempAudioID)
		b.mu.Unlock()
		_, _ = w.Write([]byte("{}"))
	})
	mux.HandleFunc("/cleanup_video", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			TempVideoID string `json:"temp_video_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		b.mu.Lock()
		b.videoCleanups = append(b.videoCleanups, payload.TempVideoID)
		b.mu.Unlock()
		_, _ = w.Write([]byte("{}"))
	})
	return mux
}

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*daemon.Daemon, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithServiceURL(srv.URL)}, opts...)...)
	store := testsupport.MustOpenStore(t, cfg)

	detectClient := detect.NewClient(detect.Config{BaseURL: cfg.Services.Detect.URL})
	speechClient := speech.NewClient(speech.Config{BaseURL: cfg.Services.Speech.URL})
	translateClient := translating.NewClient(translating.Config{BaseURL: cfg.Services.Translate.URL})
	videoClient := signvideo.NewClient(signvideo.Config{BaseURL: cfg.Services.Video.URL})

	registry := artifacts.NewRegistry(artifacts.Router{Audio: speechClient, Video: videoClient}, nil)
	orch := pipeline.New(
		pipeline.Clients{
			Detector:    detectClient,
			Recognizer:  speechClient,
			Translator:  translateClient,
			Synthesizer: videoClient,
		},
		registry,
		pipeline.Settings{
			UserID:       "test-user",
			DefaultModel: signvideo.ModelMale,
			TickDelay:    time.Millisecond,
			Punctuate:    true,
		},
		nil,
		pipeline.WithRecorder(store),
	)

	d, err := daemon.New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		d.Stop()
		_ = d.Close()
	})
	return d, backend
}

func uploadAudio(t *testing.T, baseURL, fileName string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("RIFFfakeaudio")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	resp, err := http.Post(baseURL+"/api/runs", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post run: %v", err)
	}
	return resp
}

func decodeRun(t *testing.T, resp *http.Response) api.Run {
	t.Helper()
	defer resp.Body.Close()

	var payload api.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	return payload.Run
}

func waitForStage(t *testing.T, baseURL, id, want string) api.Run {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	var last api.Run
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/runs/" + id)
		if err != nil {
			t.Fatalf("get run: %v", err)
		}
		last = decodeRun(t, resp)
		if last.Stage == want {
			return last
		}
		if last.Stage == "failed" || last.Stage == "video_failed" {
			t.Fatalf("run failed while waiting for %q: %+v", want, last.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run never reached stage %q, last %q", want, last.Stage)
	return last
}

func TestConversionFlowOverHTTP(t *testing.T) {
	d, _ := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	resp := uploadAudio(t, baseURL, "clip.wav")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start run status = %d", resp.StatusCode)
	}
	run := decodeRun(t, resp)
	if run.ID == "" {
		t.Fatal("expected run id")
	}

	done := waitForStage(t, baseURL, run.ID, "complete")
	if done.DetectedLanguage != "hi-IN" {
		t.Fatalf("detected language = %q", done.DetectedLanguage)
	}
	if done.TranslatedText != "hello world" {
		t.Fatalf("translated text = %q", done.TranslatedText)
	}
	if done.Progress.Percent != 100 {
		t.Fatalf("progress percent = %v", done.Progress.Percent)
	}
}

func TestVideoGenerationAndSaveOverHTTP(t *testing.T) {
	d, backend := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	run := decodeRun(t, uploadAudio(t, baseURL, "clip.wav"))
	waitForStage(t, baseURL, run.ID, "complete")

	resp, err := http.Post(baseURL+"/api/runs/"+run.ID+"/video", "application/json",
		strings.NewReader(`{"model":"female"}`))
	if err != nil {
		t.Fatalf("post video: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("video status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	ready := waitForStage(t, baseURL, run.ID, "video_ready")
	if ready.Video == nil || ready.Video.TempVideoID != "vid-1" {
		t.Fatalf("unexpected video: %+v", ready.Video)
	}
	if ready.Model != "female" {
		t.Fatalf("model = %q", ready.Model)
	}

	resp, err = http.Post(baseURL+"/api/runs/"+run.ID+"/save", "application/json", nil)
	if err != nil {
		t.Fatalf("post save: %v", err)
	}
	saved := decodeRun(t, resp)
	if saved.SavedURL != "https://cdn.example/saved/vid-1" {
		t.Fatalf("saved url = %q", saved.SavedURL)
	}

	// Cancel after save: the saved video must not be cleaned up, the temp
	// audio must be.
	resp, err = http.Post(baseURL+"/api/runs/"+run.ID+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("post cancel: %v", err)
	}
	_ = resp.Body.Close()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	for _, id := range backend.videoCleanups {
		if id == "vid-1" {
			t.Fatal("saved video was cleaned up")
		}
	}
	found := false
	for _, id := range backend.audioCleanups {
		if id == "aud-1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("temp audio not cleaned up, cleanups: %v", backend.audioCleanups)
	}
}

func TestSetTranslationOverHTTP(t *testing.T) {
	d, _ := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	run := decodeRun(t, uploadAudio(t, baseURL, "clip.wav"))
	waitForStage(t, baseURL, run.ID, "complete")

	resp, err := http.Post(baseURL+"/api/runs/"+run.ID+"/translation", "application/json",
		strings.NewReader(`{"text":"good morning"}`))
	if err != nil {
		t.Fatalf("post translation: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("translation status = %d", resp.StatusCode)
	}
	edited := decodeRun(t, resp)
	if edited.TranslatedText != "good morning" {
		t.Fatalf("translated text = %q", edited.TranslatedText)
	}
}

func TestStartRunRejectsUnsupportedExtension(t *testing.T) {
	d, _ := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	resp := uploadAudio(t, baseURL, "notes.txt")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "unsupported audio file") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestStartRunRejectsOversizedUpload(t *testing.T) {
	d, _ := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Pipeline.MaxUploadMB = 1
	})
	baseURL := "http://" + d.APIAddr()

	audioPath := filepath.Join(t.TempDir(), "long.wav")
	testsupport.WriteAudioFile(t, audioPath, 2<<20)
	data, err := os.ReadFile(audioPath)
	if err != nil {
		t.Fatalf("read audio file: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "long.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	resp, err := http.Post(baseURL+"/api/runs", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetUnknownRunReturns404(t *testing.T) {
	d, _ := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	resp, err := http.Get(baseURL + "/api/runs/no-such-run")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	d, _ := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	resp, err := http.Get(baseURL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()

	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if len(status.Languages) != 4 {
		t.Fatalf("languages = %v", status.Languages)
	}
	if len(status.Models) != 2 {
		t.Fatalf("models = %v", status.Models)
	}
	if status.LedgerDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("missing paths in status: %+v", status)
	}
}

func TestListRunsIncludesLedgerHistory(t *testing.T) {
	d, _ := newTestDaemon(t)
	baseURL := "http://" + d.APIAddr()

	run := decodeRun(t, uploadAudio(t, baseURL, "clip.wav"))
	waitForStage(t, baseURL, run.ID, "complete")

	resp, err := http.Get(baseURL + "/api/runs")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	defer resp.Body.Close()

	var list api.RunListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Runs) != 1 {
		t.Fatalf("expected one run, got %d", len(list.Runs))
	}
	if list.Runs[0].ID != run.ID {
		t.Fatalf("unexpected run id %q", list.Runs[0].ID)
	}
}

func TestTailLogReadsDaemonLog(t *testing.T) {
	d, _ := newTestDaemon(t)

	if d.LogPath() == "" {
		t.Fatal("expected log path")
	}
	result, err := d.TailLog(context.Background(), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("TailLog returned error: %v", err)
	}
	if result.Offset < 0 {
		t.Fatalf("unexpected offset %d", result.Offset)
	}
}
