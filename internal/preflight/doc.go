// Package preflight provides readiness checks for the remote stage services
// and filesystem paths that signbridge depends on.
//
// The CLI "signbridge status" command uses these checks to display service
// health before a conversion is attempted, so endpoint or permission problems
// surface immediately instead of mid-pipeline.
package preflight
