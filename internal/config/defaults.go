package config

const (
	defaultDataDir            = "~/.local/share/signbridge"
	defaultLogDir             = "~/.local/share/signbridge/logs"
	defaultAPIBind            = "127.0.0.1:7642"
	defaultSocketPath         = "~/.local/share/signbridge/signbridged.sock"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultProgressTickMillis = 400
	defaultModel              = "male"
	defaultMaxUploadMB        = 25
	defaultServiceTimeout     = 60
	defaultSpeechTimeout      = 120
	defaultVideoTimeout       = 300
)

var defaultAllowedExtensions = []string{"wav", "mp3", "m4a", "ogg", "flac", "webm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
			SocketPath: defaultSocketPath,
		},
		Services: Services{
			Detect:    Endpoint{TimeoutSeconds: defaultServiceTimeout},
			Speech:    Endpoint{TimeoutSeconds: defaultSpeechTimeout},
			Translate: Endpoint{TimeoutSeconds: defaultServiceTimeout},
			Video:     Endpoint{TimeoutSeconds: defaultVideoTimeout},
		},
		Pipeline: Pipeline{
			ProgressTickMillis: defaultProgressTickMillis,
			DefaultModel:       defaultModel,
			MaxUploadMB:        defaultMaxUploadMB,
			AllowedExtensions:  append([]string{}, defaultAllowedExtensions...),
			Punctuate:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
