package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signbridge/internal/artifacts"
	"signbridge/internal/language"
	"signbridge/internal/services"
	"signbridge/internal/services/detect"
	"signbridge/internal/services/signvideo"
	"signbridge/internal/services/speech"
)

type fakeStages struct {
	mu sync.Mutex

	detectResult detect.Result
	detectErr    error
	detectCalls  int
	detectGate   chan struct{}

	transcript      speech.Transcript
	transcribeErr   error
	transcribeCalls int
	transcribeGate  chan struct{}

	translated     string
	translateErr   error
	translateCalls int
	translateArgs  []string

	video         signvideo.Result
	generateErr   error
	generateCalls int
	generateModel string
	generateText  string

	savedURL  string
	saveErr   error
	saveCalls int
}

func (f *fakeStages) Detect(ctx context.Context, req detect.Request) (detect.Result, error) {
	f.mu.Lock()
	f.detectCalls++
	gate := f.detectGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return detect.Result{}, ctx.Err()
		}
	}
	return f.detectResult, f.detectErr
}

func (f *fakeStages) Transcribe(ctx context.Context, req speech.Request) (speech.Transcript, error) {
	f.mu.Lock()
	f.transcribeCalls++
	gate := f.transcribeGate
	transcript, err := f.transcript, f.transcribeErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return speech.Transcript{}, ctx.Err()
		}
	}
	return transcript, err
}

func (f *fakeStages) Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translateCalls++
	f.translateArgs = []string{text, sourceCode, targetCode}
	return f.translated, f.translateErr
}

func (f *fakeStages) Generate(ctx context.Context, req signvideo.Request) (signvideo.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	f.generateModel = req.Model
	f.generateText = req.Text
	return f.video, f.generateErr
}

func (f *fakeStages) Save(ctx context.Context, tempVideoID, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	return f.savedURL, f.saveErr
}

type releaseSpy struct {
	mu       sync.Mutex
	released map[artifacts.Kind][]string
}

func (r *releaseSpy) Release(ctx context.Context, kind artifacts.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released == nil {
		r.released = make(map[artifacts.Kind][]string)
	}
	r.released[kind] = append(r.released[kind], id)
	return nil
}

func (r *releaseSpy) count(kind artifacts.Kind, id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.released[kind] {
		if got == id {
			n++
		}
	}
	return n
}

// gatedReleaser blocks inside Release until told to proceed, standing in for
// a slow remote cleanup call.
type gatedReleaser struct {
	spy     *releaseSpy
	entered chan struct{}
	proceed chan struct{}
}

func (g *gatedReleaser) Release(ctx context.Context, kind artifacts.Kind, id string) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.proceed
	return g.spy.Release(ctx, kind, id)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Publish(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func hindiStages() *fakeStages {
	return &fakeStages{
		detectResult: detect.Result{DetectedLanguage: "hindi"},
		transcript: speech.Transcript{
			Text:        "नमस्ते दुनिया",
			TempAudioID: "audio-tmp-1",
			Words: []speech.WordTiming{
				{Word: "नमस्ते", Start: 0, End: 0.8},
				{Word: "दुनिया", Start: 0.9, End: 1.6},
			},
		},
		translated: "hello world",
		video: signvideo.Result{
			TempVideoID:  "video-tmp-1",
			PreviewURL:   "http://signs.local/preview/video-tmp-1",
			Duration:     4.2,
			SignsUsed:    []string{"hello", "world"},
			SignsSkipped: []string{},
		},
		savedURL: "http://signs.local/videos/final.mp4",
	}
}

func newTestOrchestrator(t *testing.T, stages *fakeStages) (*Orchestrator, *releaseSpy, *eventLog) {
	t.Helper()
	spy := &releaseSpy{}
	events := &eventLog{}
	registry := artifacts.NewRegistry(spy, nil)
	orch := New(
		Clients{Detector: stages, Recognizer: stages, Translator: stages, Synthesizer: stages},
		registry,
		Settings{UserID: "user-1", DefaultModel: signvideo.ModelMale},
		nil,
		WithObserver(events),
		WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)
	return orch, spy, events
}

func mustStart(t *testing.T, orch *Orchestrator, input Input) Run {
	t.Helper()
	run, err := orch.Start(context.Background(), input)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return run
}

func TestProcessHindiRunEndToEnd(t *testing.T) {
	stages := hindiStages()
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	run, err := orch.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if run.Stage != StageComplete {
		t.Fatalf("stage = %s, want %s", run.Stage, StageComplete)
	}
	if run.DetectedLanguage != language.Hindi {
		t.Errorf("detected language = %q, want %q", run.DetectedLanguage, language.Hindi)
	}
	if run.Transcript.Text != "नमस्ते दुनिया" {
		t.Errorf("transcript = %q", run.Transcript.Text)
	}
	if run.TranslatedText != "hello world" {
		t.Errorf("translated text = %q", run.TranslatedText)
	}
	if run.Translation == nil || run.Translation.Identity {
		t.Errorf("translation = %+v, want non-identity result", run.Translation)
	}
	want := []string{"नमस्ते दुनिया", language.Hindi, language.English}
	for i, arg := range want {
		if stages.translateArgs[i] != arg {
			t.Errorf("translate arg %d = %q, want %q", i, stages.translateArgs[i], arg)
		}
	}
}

func TestProcessEnglishSkipsTranslation(t *testing.T) {
	stages := hindiStages()
	stages.detectResult = detect.Result{DetectedLanguage: "English"}
	stages.transcript = speech.Transcript{Text: "hello there", TempAudioID: "audio-tmp-2"}
	orch, _, events := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	run, err := orch.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stages.translateCalls != 0 {
		t.Errorf("translate called %d times, want 0", stages.translateCalls)
	}
	if run.Stage != StageComplete {
		t.Fatalf("stage = %s, want %s", run.Stage, StageComplete)
	}
	if run.TranslatedText != "hello there" {
		t.Errorf("translated text = %q, want transcript verbatim", run.TranslatedText)
	}
	if run.Translation == nil || !run.Translation.Identity {
		t.Errorf("translation = %+v, want identity result", run.Translation)
	}

	last := events.all()[len(events.all())-1]
	if !last.Terminal || last.Stage != StageComplete {
		t.Errorf("final event = %+v, want terminal complete", last)
	}
}

func TestProcessUnsupportedLanguageFailsBeforeTranscription(t *testing.T) {
	stages := hindiStages()
	stages.detectResult = detect.Result{DetectedLanguage: "Klingon"}
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	run, err := orch.Process(context.Background())
	if err == nil {
		t.Fatal("Process succeeded, want unsupported language failure")
	}
	if !errors.Is(err, services.ErrUnsupportedLanguage) {
		t.Fatalf("error = %v, want unsupported language marker", err)
	}
	if stages.transcribeCalls != 0 {
		t.Errorf("transcribe called %d times, want 0", stages.transcribeCalls)
	}
	if run.Stage != StageFailed {
		t.Fatalf("stage = %s, want %s", run.Stage, StageFailed)
	}
	if run.Err == nil || run.Err.Retryable {
		t.Errorf("stage error = %+v, want non-retryable", run.Err)
	}
}

func TestRetryResumesAtFailedStage(t *testing.T) {
	stages := hindiStages()
	stages.transcribeErr = services.Wrap(services.ErrTransport, "speech recognition", "transcribe", "connection refused", nil)
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	run, err := orch.Process(context.Background())
	if err == nil {
		t.Fatal("Process succeeded, want transcription failure")
	}
	if run.Stage != StageFailed || run.Err == nil || run.Err.Stage != StageTranscribing {
		t.Fatalf("run = %+v, want failure pinned to transcription", run)
	}
	if !run.Err.Retryable {
		t.Fatal("transport failure should be retryable")
	}

	stages.mu.Lock()
	stages.transcribeErr = nil
	stages.mu.Unlock()

	run, err = orch.Retry(context.Background())
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if run.Stage != StageComplete {
		t.Fatalf("stage after retry = %s, want %s", run.Stage, StageComplete)
	}
	if stages.detectCalls != 1 {
		t.Errorf("detect called %d times, want 1 (retry must not re-detect)", stages.detectCalls)
	}
	if stages.transcribeCalls != 2 {
		t.Errorf("transcribe called %d times, want 2", stages.transcribeCalls)
	}
	if run.DetectedLanguage != language.Hindi {
		t.Errorf("detected language lost across retry: %q", run.DetectedLanguage)
	}
}

func TestRetryRejectsNonRetryableFailure(t *testing.T) {
	stages := hindiStages()
	stages.detectResult = detect.Result{DetectedLanguage: "Klingon"}
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err == nil {
		t.Fatal("Process succeeded, want failure")
	}

	if _, err := orch.Retry(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Retry error = %v, want validation", err)
	}
}

func TestGenerateVideoRegistersAndRegenerateReleasesPrevious(t *testing.T) {
	stages := hindiStages()
	orch, spy, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	run, err := orch.GenerateVideo(context.Background(), signvideo.ModelFemale)
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if run.Stage != StageVideoReady {
		t.Fatalf("stage = %s, want %s", run.Stage, StageVideoReady)
	}
	if run.Video == nil || run.Video.TempVideoID != "video-tmp-1" {
		t.Fatalf("video = %+v", run.Video)
	}
	if run.Model != signvideo.ModelFemale {
		t.Errorf("model = %q, want %q", run.Model, signvideo.ModelFemale)
	}

	stages.mu.Lock()
	stages.video.TempVideoID = "video-tmp-2"
	stages.mu.Unlock()

	run, err = orch.GenerateVideo(context.Background(), signvideo.ModelMale)
	if err != nil {
		t.Fatalf("GenerateVideo regenerate: %v", err)
	}
	if run.Video.TempVideoID != "video-tmp-2" {
		t.Fatalf("video after regenerate = %+v", run.Video)
	}
	if got := spy.count(artifacts.KindVideo, "video-tmp-1"); got != 1 {
		t.Errorf("previous temp video released %d times, want exactly 1", got)
	}
}

func TestGenerateVideoRejectsConcurrentRegenerate(t *testing.T) {
	stages := hindiStages()
	spy := &releaseSpy{}
	gate := &gatedReleaser{spy: spy, entered: make(chan struct{}, 1), proceed: make(chan struct{})}
	registry := artifacts.NewRegistry(gate, nil)
	orch := New(
		Clients{Detector: stages, Recognizer: stages, Translator: stages, Synthesizer: stages},
		registry,
		Settings{UserID: "user-1", DefaultModel: signvideo.ModelMale},
		nil,
		WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := orch.GenerateVideo(context.Background(), ""); err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}

	stages.mu.Lock()
	stages.video.TempVideoID = "video-tmp-2"
	stages.mu.Unlock()

	regenerated := make(chan error, 1)
	go func() {
		_, err := orch.GenerateVideo(context.Background(), "")
		regenerated <- err
	}()
	// The regenerate is now stalled inside the previous-video release call.
	<-gate.entered

	if _, err := orch.GenerateVideo(context.Background(), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("concurrent regenerate error = %v, want validation", err)
	}

	close(gate.proceed)
	if err := <-regenerated; err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	stages.mu.Lock()
	calls := stages.generateCalls
	stages.mu.Unlock()
	if calls != 2 {
		t.Errorf("generate called %d times, want 2", calls)
	}
	if got := spy.count(artifacts.KindVideo, "video-tmp-1"); got != 1 {
		t.Errorf("previous temp video released %d times, want exactly 1", got)
	}
}

func TestRetryBlocksConcurrentStart(t *testing.T) {
	stages := hindiStages()
	stages.transcribeErr = services.Wrap(services.ErrTransport, "speech recognition", "transcribe", "connection refused", nil)
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err == nil {
		t.Fatal("Process succeeded, want transcription failure")
	}

	stages.mu.Lock()
	stages.transcribeErr = nil
	stages.transcribeGate = make(chan struct{})
	stages.mu.Unlock()

	retried := make(chan error, 1)
	go func() {
		_, err := orch.Retry(context.Background())
		retried <- err
	}()
	waitFor(t, func() bool {
		stages.mu.Lock()
		defer stages.mu.Unlock()
		return stages.transcribeCalls == 2
	})

	if _, err := orch.Start(context.Background(), Input{Audio: []byte("more"), FileName: "other.wav"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Start during retry error = %v, want validation", err)
	}

	close(stages.transcribeGate)
	if err := <-retried; err != nil {
		t.Fatalf("Retry: %v", err)
	}
}

func TestGenerateVideoRequiresTranslation(t *testing.T) {
	stages := hindiStages()
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.GenerateVideo(context.Background(), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("GenerateVideo error = %v, want validation", err)
	}
	if stages.generateCalls != 0 {
		t.Errorf("generate called %d times, want 0", stages.generateCalls)
	}
}

func TestGenerateVideoFailureKeepsRecognitionResults(t *testing.T) {
	stages := hindiStages()
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stages.mu.Lock()
	stages.generateErr = services.Wrap(services.ErrBusiness, "video generation", "generate", "no signs matched", nil)
	stages.mu.Unlock()

	run, err := orch.GenerateVideo(context.Background(), "")
	if err == nil {
		t.Fatal("GenerateVideo succeeded, want failure")
	}
	if run.Stage != StageVideoFailed {
		t.Fatalf("stage = %s, want %s", run.Stage, StageVideoFailed)
	}
	if run.TranslatedText != "hello world" {
		t.Errorf("translated text lost on video failure: %q", run.TranslatedText)
	}
	if run.Err == nil || run.Err.Stage != StageGeneratingVideo || !run.Err.Retryable {
		t.Errorf("stage error = %+v", run.Err)
	}

	stages.mu.Lock()
	stages.generateErr = nil
	stages.mu.Unlock()

	run, err = orch.Retry(context.Background())
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if run.Stage != StageVideoReady {
		t.Fatalf("stage after retry = %s, want %s", run.Stage, StageVideoReady)
	}
	if stages.detectCalls != 1 || stages.transcribeCalls != 1 || stages.translateCalls != 1 {
		t.Errorf("retry re-ran recognition: detect=%d transcribe=%d translate=%d",
			stages.detectCalls, stages.transcribeCalls, stages.translateCalls)
	}
}

func TestSaveForgetsTempVideo(t *testing.T) {
	stages := hindiStages()
	orch, spy, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := orch.GenerateVideo(context.Background(), ""); err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}

	run, err := orch.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if run.SavedURL != "http://signs.local/videos/final.mp4" {
		t.Errorf("saved url = %q", run.SavedURL)
	}

	if _, err := orch.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := spy.count(artifacts.KindVideo, "video-tmp-1"); got != 0 {
		t.Errorf("saved video released %d times, want 0", got)
	}
	if got := spy.count(artifacts.KindAudio, "audio-tmp-1"); got != 1 {
		t.Errorf("temp audio released %d times, want 1", got)
	}
}

func TestCancelReleasesArtifactsAndDiscardsInFlightResult(t *testing.T) {
	stages := hindiStages()
	stages.detectGate = make(chan struct{})
	orch, spy, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav", TempAudioID: "audio-upload-1"})

	processed := make(chan error, 1)
	go func() {
		_, err := orch.Process(context.Background())
		processed <- err
	}()

	waitFor(t, func() bool {
		stages.mu.Lock()
		defer stages.mu.Unlock()
		return stages.detectCalls == 1
	})

	if _, err := orch.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	close(stages.detectGate)

	if err := <-processed; !IsStale(err) {
		t.Fatalf("Process error = %v, want stale", err)
	}
	if _, ok := orch.Snapshot(); ok {
		t.Error("run survived cancellation")
	}
	if got := spy.count(artifacts.KindAudio, "audio-upload-1"); got != 1 {
		t.Errorf("uploaded temp audio released %d times, want 1", got)
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	stages := hindiStages()
	stages.detectGate = make(chan struct{})
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	processed := make(chan error, 1)
	go func() {
		_, err := orch.Process(context.Background())
		processed <- err
	}()
	waitFor(t, func() bool {
		stages.mu.Lock()
		defer stages.mu.Unlock()
		return stages.detectCalls == 1
	})

	if _, err := orch.Start(context.Background(), Input{Audio: []byte("more"), FileName: "other.wav"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("second Start error = %v, want validation", err)
	}

	close(stages.detectGate)
	if err := <-processed; err != nil {
		t.Fatalf("Process: %v", err)
	}
}

func TestStartSupersedesFinishedRun(t *testing.T) {
	stages := hindiStages()
	orch, spy, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	run := mustStart(t, orch, Input{Audio: []byte("again"), FileName: "next.wav"})
	if run.Stage != StageIdle || run.SourceFile != "next.wav" {
		t.Fatalf("superseding run = %+v", run)
	}
	if got := spy.count(artifacts.KindAudio, "audio-tmp-1"); got != 1 {
		t.Errorf("previous run's temp audio released %d times, want 1", got)
	}
}

func TestSetTranslatedTextFeedsVideoGeneration(t *testing.T) {
	stages := hindiStages()
	orch, _, _ := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	run, err := orch.SetTranslatedText(context.Background(), "good morning")
	if err != nil {
		t.Fatalf("SetTranslatedText: %v", err)
	}
	if run.TranslatedText != "good morning" {
		t.Errorf("translated text = %q", run.TranslatedText)
	}
	if run.Transcript.Text != "नमस्ते दुनिया" {
		t.Errorf("transcript changed by edit: %q", run.Transcript.Text)
	}

	if _, err := orch.GenerateVideo(context.Background(), ""); err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	// The edited text, not the original translation, must reach synthesis.
	if stages.generateText != "good morning" {
		t.Errorf("generated from %q, want edited text", stages.generateText)
	}
	if stages.generateModel != signvideo.ModelMale {
		t.Errorf("model = %q, want default", stages.generateModel)
	}
}

func TestProgressEventsStayMonotonePerStage(t *testing.T) {
	stages := hindiStages()
	orch, _, events := newTestOrchestrator(t, stages)

	mustStart(t, orch, Input{Audio: []byte("riff"), FileName: "clip.wav"})
	if _, err := orch.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	last := map[Stage]float64{}
	for _, event := range events.all() {
		if event.Percent < last[event.Stage] {
			t.Errorf("stage %s percent went backwards: %.0f after %.0f", event.Stage, event.Percent, last[event.Stage])
		}
		last[event.Stage] = event.Percent
		if event.Percent >= 100 && event.Stage.IsProcessing() && !event.Terminal {
			t.Errorf("in-flight stage %s reported %.0f percent", event.Stage, event.Percent)
		}
	}
}

func TestStartRejectsEmptyInput(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, hindiStages())
	if _, err := orch.Start(context.Background(), Input{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Start error = %v, want validation", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
