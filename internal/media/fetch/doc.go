// Package fetch acquires remote media for a render request and prepares
// still images for compositing.
//
// Downloads are bounded by a per-kind timeout (logos use a shorter one),
// retried on transport errors and 5xx responses, and capped in size. Local
// paths are copied instead of downloaded when the acquirer allows it, which
// only batch mode does. The imaging helpers resize with a Catmull-Rom kernel
// and always write PNG.
package fetch
