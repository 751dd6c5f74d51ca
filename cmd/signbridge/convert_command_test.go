package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"signbridge/internal/api"
)

// runPollServer serves one run snapshot per poll, sticking on the last one.
func runPollServer(t *testing.T, states []api.Run) *httptest.Server {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(calls.Add(1)) - 1
		if idx >= len(states) {
			idx = len(states) - 1
		}
		_ = json.NewEncoder(w).Encode(api.RunResponse{Run: states[idx]})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFollowRunWaitsOutInitialIdle(t *testing.T) {
	srv := runPollServer(t, []api.Run{
		{ID: "run-1", Stage: "idle"},
		{ID: "run-1", Stage: "detecting", Progress: api.Progress{Percent: 10, Message: "Detecting language"}},
		{ID: "run-1", Stage: "complete", Transcript: "hello", Progress: api.Progress{Percent: 100, Message: "Translation complete"}},
	})

	run, err := followRun(context.Background(), io.Discard, srv.URL, "run-1")
	if err != nil {
		t.Fatalf("followRun: %v", err)
	}
	if run.Stage != "complete" {
		t.Fatalf("stage = %q, want complete (idle must not end the follow)", run.Stage)
	}
	if run.Transcript != "hello" {
		t.Fatalf("transcript = %q", run.Transcript)
	}
}

func TestFollowRunStopsOnCancelledRun(t *testing.T) {
	srv := runPollServer(t, []api.Run{
		{ID: "run-1", Stage: "idle", Progress: api.Progress{Message: "Cancelled"}},
	})

	run, err := followRun(context.Background(), io.Discard, srv.URL, "run-1")
	if err != nil {
		t.Fatalf("followRun: %v", err)
	}
	if run.Stage != "idle" || run.Progress.Message != "Cancelled" {
		t.Fatalf("run = %+v, want cancelled idle", run)
	}
}
