// Package api defines the transport-friendly views of conversion runs shared
// by the daemon HTTP endpoints and the IPC surface.
package api
