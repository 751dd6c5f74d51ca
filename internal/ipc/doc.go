// Package ipc exposes daemon control over a Unix domain socket using
// JSON-RPC, for the command line client on the same host.
package ipc
