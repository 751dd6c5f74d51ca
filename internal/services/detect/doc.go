// Package detect wraps the remote language-detection service. It submits raw
// audio and returns the free-text language name reported by the backend;
// mapping that name onto a supported code is the language catalog's job.
package detect
