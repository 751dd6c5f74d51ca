package main

import (
	"log/slog"
	"time"

	"signbridge/internal/artifacts"
	"signbridge/internal/config"
	"signbridge/internal/pipeline"
	"signbridge/internal/runstore"
	"signbridge/internal/services/detect"
	"signbridge/internal/services/signvideo"
	"signbridge/internal/services/speech"
	"signbridge/internal/services/translating"
)

func buildOrchestrator(cfg *config.Config, store *runstore.Store, logger *slog.Logger) *pipeline.Orchestrator {
	detectClient := detect.NewClient(detect.Config{
		BaseURL:        cfg.Services.Detect.URL,
		TimeoutSeconds: cfg.Services.Detect.TimeoutSeconds,
	})
	speechClient := speech.NewClient(speech.Config{
		BaseURL:        cfg.Services.Speech.URL,
		TimeoutSeconds: cfg.Services.Speech.TimeoutSeconds,
	})
	translateClient := translating.NewClient(translating.Config{
		BaseURL:        cfg.Services.Translate.URL,
		TimeoutSeconds: cfg.Services.Translate.TimeoutSeconds,
	})
	videoClient := signvideo.NewClient(signvideo.Config{
		BaseURL:        cfg.Services.Video.URL,
		TimeoutSeconds: cfg.Services.Video.TimeoutSeconds,
	})

	registry := artifacts.NewRegistry(artifacts.Router{
		Audio: speechClient,
		Video: videoClient,
	}, logger)

	return pipeline.New(
		pipeline.Clients{
			Detector:    detectClient,
			Recognizer:  speechClient,
			Translator:  translateClient,
			Synthesizer: videoClient,
		},
		registry,
		pipeline.Settings{
			UserID:       cfg.Pipeline.UserID,
			DefaultModel: cfg.Pipeline.DefaultModel,
			TickDelay:    time.Duration(cfg.Pipeline.ProgressTickMillis) * time.Millisecond,
			Punctuate:    cfg.Pipeline.Punctuate,
		},
		logger,
		pipeline.WithRecorder(store),
	)
}
