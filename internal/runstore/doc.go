// Package runstore persists conversion run snapshots to SQLite. The ledger
// is an observability history: the daemon mirrors every run mutation into it
// so status and past runs survive inspection, but processing state itself
// lives in memory and is never resumed from disk.
package runstore
