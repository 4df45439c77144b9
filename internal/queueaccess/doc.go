// Package queueaccess lets CLI commands read jobs from a running daemon, or
// straight from the SQLite job store when the daemon is down.
package queueaccess
