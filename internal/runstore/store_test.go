package runstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"signbridge/internal/pipeline"
	"signbridge/internal/services/speech"
	"signbridge/internal/testsupport"
)

func sampleRun(id string, stage pipeline.Stage) pipeline.Run {
	now := time.Now().UTC()
	return pipeline.Run{
		ID:               id,
		Stage:            stage,
		SourceFile:       "clip.wav",
		DetectedLanguage: "hi-IN",
		Transcript: speech.Transcript{
			Text: "नमस्ते",
			Words: []speech.WordTiming{
				{Word: "नमस्ते", Start: 0, End: 0.8},
			},
		},
		Translation: &pipeline.TranslationResult{
			SourceCode: "hi-IN",
			TargetCode: "en-IN",
			Text:       "hello",
		},
		TranslatedText:  "hello",
		Model:           "male",
		ProgressMessage: "Translating",
		ProgressPercent: 80,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestUpsertRoundTripsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := sampleRun("run-1", pipeline.StageComplete)
	run.Video = &pipeline.VideoResult{
		TempVideoID:  "vid-1",
		PreviewURL:   "http://signs.local/preview/vid-1",
		Duration:     3.5,
		SignsUsed:    []string{"hello"},
		SignsSkipped: []string{"नमस्ते"},
	}
	if err := store.Upsert(ctx, run); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	fetched, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected stored run")
	}
	if fetched.Stage != pipeline.StageComplete {
		t.Errorf("stage = %s", fetched.Stage)
	}
	if fetched.Transcript.Text != "नमस्ते" || len(fetched.Transcript.Words) != 1 {
		t.Errorf("transcript = %+v", fetched.Transcript)
	}
	if fetched.Translation == nil || fetched.Translation.Text != "hello" {
		t.Errorf("translation = %+v", fetched.Translation)
	}
	if fetched.Video == nil || fetched.Video.TempVideoID != "vid-1" {
		t.Errorf("video = %+v", fetched.Video)
	}
}

func TestUpsertReplacesSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := sampleRun("run-1", pipeline.StageTranslating)
	if err := store.Upsert(ctx, run); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	run.Stage = pipeline.StageFailed
	run.Err = &pipeline.StageError{Stage: pipeline.StageTranslating, Message: "upstream busy", Retryable: true}
	if err := store.Upsert(ctx, run); err != nil {
		t.Fatalf("Upsert update failed: %v", err)
	}

	fetched, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Stage != pipeline.StageFailed {
		t.Errorf("stage = %s, want failed", fetched.Stage)
	}
	if fetched.Err == nil || fetched.Err.Message != "upstream busy" || !fetched.Err.Retryable {
		t.Errorf("error = %+v", fetched.Err)
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := sampleRun(fmt.Sprintf("run-%d", i), pipeline.StageComplete)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		run.UpdatedAt = run.CreatedAt
		if err := store.Upsert(ctx, run); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestClearFinishedKeepsFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Upsert(ctx, sampleRun("done", pipeline.StageComplete)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	failed := sampleRun("broken", pipeline.StageFailed)
	failed.Err = &pipeline.StageError{Stage: pipeline.StageDetecting, Message: "timeout", Retryable: true}
	if err := store.Upsert(ctx, failed); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	removed, err := store.ClearFinished(ctx)
	if err != nil {
		t.Fatalf("ClearFinished failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[pipeline.StageFailed] != 1 || stats[pipeline.StageComplete] != 0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestRemoveReportsWhetherRunExisted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Upsert(ctx, sampleRun("run-1", pipeline.StageComplete)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if removed, err := store.Remove(ctx, "run-1"); err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if removed, err := store.Remove(ctx, "run-1"); err != nil || removed {
		t.Fatalf("second Remove = %v, %v", removed, err)
	}
}
