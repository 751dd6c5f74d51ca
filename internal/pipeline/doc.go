// Package pipeline implements the orchestration core that turns an audio
// artifact into an Indian Sign Language video through four remote stages:
// language detection, speech recognition, translation to English, and
// sign-video synthesis.
//
// The orchestrator is a sequential state machine over a single active run.
// Each stage plays a deterministic script of synthetic progress ticks before
// awaiting its remote call, branches on detection results (unsupported
// language aborts, English skips translation), supports per-stage retry
// without redoing completed stages, and routes every server-side temporary
// artifact through the cleanup registry so abandoned runs leave nothing
// behind. A cancelled run's in-flight remote call is never preempted; its
// late result is discarded by an epoch check before application.
package pipeline
