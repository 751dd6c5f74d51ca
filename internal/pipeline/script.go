package pipeline

import "time"

// Tick is one synthetic progress step played before a stage's remote call
// resolves. Percentages within a stage's script increase monotonically and
// stay below 100; the jump to 100 happens only when the real result arrives.
type Tick struct {
	Label   string
	Percent float64
	Delay   time.Duration
}

// Scripts are declarative so the progress feed stays deterministic and
// testable: the player substitutes the configured tick delay when a tick's
// Delay is zero, and tests inject a no-op sleeper.
var stageScripts = map[Stage][]Tick{
	StageDetecting: {
		{Label: "Uploading audio", Percent: 10},
		{Label: "Analyzing audio", Percent: 30},
		{Label: "Identifying language", Percent: 55},
		{Label: "Confirming language", Percent: 75},
	},
	StageTranscribing: {
		{Label: "Preparing audio", Percent: 10},
		{Label: "Recognizing speech", Percent: 35},
		{Label: "Aligning words", Percent: 60},
		{Label: "Polishing transcript", Percent: 80},
	},
	StageTranslating: {
		{Label: "Preparing text", Percent: 15},
		{Label: "Translating to English", Percent: 50},
		{Label: "Reviewing translation", Percent: 80},
	},
	StageGeneratingVideo: {
		{Label: "Mapping signs", Percent: 15},
		{Label: "Composing gestures", Percent: 40},
		{Label: "Rendering avatar", Percent: 65},
		{Label: "Encoding video", Percent: 85},
	},
}

func scriptFor(stage Stage) []Tick {
	return stageScripts[stage]
}
