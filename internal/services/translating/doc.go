// Package translating wraps the remote machine-translation service. The
// backend signals business failure through an embedded success flag inside
// 2xx responses as well as through non-2xx statuses; both surface as the
// same stage business error here.
package translating
