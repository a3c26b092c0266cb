// Package config handles storyspec configuration loading and management.
//
// Configuration can be loaded from:
//   - .storyspec.yaml or storyspec.yaml
//   - .storyspec.json or storyspec.json
//   - STORYSPEC_* environment variables
//
// File contents may reference ${VAR} or ${VAR:-default}; references are
// expanded before parsing so credentials can stay out of the file.
//
// Supported settings include base URL, credentials, auth path and token
// field, timeouts, redirect handling, SSL validation, proxy, default
// headers, rate limiting, report format and run history.
package config
