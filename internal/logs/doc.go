// Package logs reads the daemon's log file for the CLI logs command,
// optionally following it as new lines arrive.
package logs
