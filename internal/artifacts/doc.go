// Package artifacts tracks server-side temporary files created during a
// pipeline run (uploaded audio, generated preview videos) and releases them
// through the owning service's cleanup endpoint when a run is abandoned,
// superseded, or cleared.
//
// Cleanup is strictly best effort: failures are logged and swallowed, never
// surfaced into the user-visible workflow. Releasing an unknown or
// already-released id is a no-op. Artifacts the user explicitly saved are
// forgotten before any later bulk release so they are never deleted after
// being promoted.
package artifacts
