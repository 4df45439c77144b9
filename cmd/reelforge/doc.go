// Package main hosts the reelforge CLI entrypoint and command graph.
//
// The Cobra-based command tree covers both ways of producing videos: running
// the HTTP daemon (serve) and rendering a request file directly in-process
// (render). The remaining commands inspect jobs, presets, voices, logs, and
// work directories, reading from the daemon API when one answers and from
// the job database otherwise.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
