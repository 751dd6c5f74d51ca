// Package config loads, normalizes, and validates signbridge configuration.
//
// Configuration is TOML with four sections: paths (directories, API bind,
// IPC socket), services (one endpoint block per remote stage), pipeline
// (progress pacing, defaults, upload limits), and logging. Load applies
// defaults, expands ~ in paths, and rejects unusable values before anything
// else starts.
package config
