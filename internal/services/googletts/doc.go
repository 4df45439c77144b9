// Package googletts is a small client for the Cloud Text-to-Speech REST API.
//
// Authentication uses either an API key sent in the X-Goog-Api-Key header or
// a service account file exchanged for OAuth2 tokens. Requests that fail with
// 408, 429, or 5xx are retried with exponential backoff, honouring
// Retry-After when the server sends it.
package googletts
