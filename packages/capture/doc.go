// Package capture copies values out of responses into the fixture store.
//
// It supports capturing values from:
//   - Response body (JSON paths)
//   - Response headers
//   - Response status code
//
// A capture only writes when its value is present and non-empty, so a failed
// create never leaves a stale or blank story id behind for later scenarios.
package capture
