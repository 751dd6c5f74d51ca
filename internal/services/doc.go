// Package services defines shared utilities consumed by the pipeline
// orchestrator and the remote stage clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     uniformly across stages (transport vs business vs validation vs
//     unsupported language).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retry eligibility) stays uniform across the
// pipeline.
package services
