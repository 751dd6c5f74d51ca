// Package speech wraps the remote speech-recognition service: transcription
// of uploaded or previously buffered audio, plus best-effort cleanup of the
// server-side temporary audio file the backend creates per upload.
package speech
