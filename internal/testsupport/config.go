package testsupport

import (
	"path/filepath"
	"testing"

	"signbridge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.SocketPath = filepath.Join(base, "signbridged.sock")
	cfg.Services.Detect.URL = "http://127.0.0.1:1/detect"
	cfg.Services.Speech.URL = "http://127.0.0.1:1/speech"
	cfg.Services.Translate.URL = "http://127.0.0.1:1/translate"
	cfg.Services.Video.URL = "http://127.0.0.1:1/video"
	cfg.Pipeline.ProgressTickMillis = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithServiceURL points every stage endpoint at the same base URL, which is
// how httptest-backed tests wire a single fake upstream.
func WithServiceURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Services.Detect.URL = url
		cfg.Services.Speech.URL = url
		cfg.Services.Translate.URL = url
		cfg.Services.Video.URL = url
	}
}
