// Package filtergraph builds ffmpeg -filter_complex graphs from typed nodes.
//
// Inputs are added by name and resolve their own indices; filters are typed
// values (Scale, Overlay, Concat, ...) composed into labelled chains; the
// whole graph renders to text in one place. Optional layers are expressed as
// Null pass-through chains so label wiring stays uniform whether a layer is
// present or not.
package filtergraph
