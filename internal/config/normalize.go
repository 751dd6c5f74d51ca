package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServices()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeServices() {
	normalizeEndpoint(&c.Services.Detect, defaultServiceTimeout)
	normalizeEndpoint(&c.Services.Speech, defaultSpeechTimeout)
	normalizeEndpoint(&c.Services.Translate, defaultServiceTimeout)
	normalizeEndpoint(&c.Services.Video, defaultVideoTimeout)
}

func normalizeEndpoint(e *Endpoint, fallbackTimeout int) {
	e.URL = strings.TrimRight(strings.TrimSpace(e.URL), "/")
	if e.TimeoutSeconds <= 0 {
		e.TimeoutSeconds = fallbackTimeout
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.UserID = strings.TrimSpace(c.Pipeline.UserID)
	if c.Pipeline.ProgressTickMillis <= 0 {
		c.Pipeline.ProgressTickMillis = defaultProgressTickMillis
	}
	c.Pipeline.DefaultModel = strings.ToLower(strings.TrimSpace(c.Pipeline.DefaultModel))
	if c.Pipeline.DefaultModel == "" {
		c.Pipeline.DefaultModel = defaultModel
	}
	if c.Pipeline.MaxUploadMB <= 0 {
		c.Pipeline.MaxUploadMB = defaultMaxUploadMB
	}
	if len(c.Pipeline.AllowedExtensions) == 0 {
		c.Pipeline.AllowedExtensions = append([]string{}, defaultAllowedExtensions...)
	}
	for i, ext := range c.Pipeline.AllowedExtensions {
		c.Pipeline.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
