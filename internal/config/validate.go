package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServices() error {
	endpoints := []struct {
		name string
		ep   Endpoint
	}{
		{"services.detect", c.Services.Detect},
		{"services.speech", c.Services.Speech},
		{"services.translate", c.Services.Translate},
		{"services.video", c.Services.Video},
	}
	for _, candidate := range endpoints {
		if strings.TrimSpace(candidate.ep.URL) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/signbridge/config.toml"
			}
			return fmt.Errorf("%s.url is required. Edit %s (create with 'signbridge config init')", candidate.name, defaultPath)
		}
		if !strings.HasPrefix(candidate.ep.URL, "http://") && !strings.HasPrefix(candidate.ep.URL, "https://") {
			return fmt.Errorf("%s.url must be an http or https URL", candidate.name)
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.DefaultModel {
	case "male", "female":
	default:
		return fmt.Errorf("pipeline.default_model must be %q or %q", "male", "female")
	}
	if c.Pipeline.ProgressTickMillis > 5000 {
		return errors.New("pipeline.progress_tick_millis must be 5000 or less")
	}
	if c.Pipeline.MaxUploadMB > 512 {
		return errors.New("pipeline.max_upload_mb must be 512 or less")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "console", "json")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
