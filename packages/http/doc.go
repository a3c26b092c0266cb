// Package http provides the HTTP client adapter used by storyspec scenarios.
//
// It wraps the standard library's http package with additional features:
//   - Base URL joining for relative resource paths
//   - JSON request bodies and bearer tokens
//   - Configurable timeouts, redirects, TLS verification and proxies
//   - Optional client-side rate limiting
//   - Transport failures reported as outcomes instead of errors
package http
