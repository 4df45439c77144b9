// Package preflight provides readiness checks for the binaries, directories,
// and speech credentials that renders depend on.
//
// The daemon runs RunAll at startup and logs each failure as a warning; the
// CLI status command renders the same results, and additionally probes the
// speech provider when asked to.
package preflight
