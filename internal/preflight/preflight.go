package preflight

import (
	"context"

	"signbridge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results,
		CheckEndpoint(ctx, "Language detection", cfg.Services.Detect.URL),
		CheckEndpoint(ctx, "Speech recognition", cfg.Services.Speech.URL),
		CheckEndpoint(ctx, "Translation", cfg.Services.Translate.URL),
		CheckEndpoint(ctx, "Sign video", cfg.Services.Video.URL),
	)
	return results
}
