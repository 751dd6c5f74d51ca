// Package daemon hosts the conversion service: it enforces single-instance
// execution, owns the orchestrator lifecycle, and exposes the HTTP API that
// drives conversions.
package daemon
