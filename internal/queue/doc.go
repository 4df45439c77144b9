// Package queue records render jobs in SQLite so the daemon and CLI can
// report what ran, what is running, and why something failed.
//
// The pipeline never reads this store; the daemon writes a row when a request
// is accepted and updates it from progress callbacks. The database is
// transient operational state rather than an archive. Schema changes bump
// schemaVersion; users delete the database to adopt a new schema.
package queue
