// Package services defines shared utilities consumed by the render pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, stage names, and item positions
//     for logging.
//   - Structured error markers (download, synthesis, composition, assembly,
//     validation) plus the Wrap helper that keeps stage context in messages.
//   - Mapping from markers to API status codes and job error kinds.
//
// Subpackages hold clients for remote providers such as the speech service.
package services
