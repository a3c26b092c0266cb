// Package runner executes an ordered suite of dependent API scenarios.
//
// It provides functionality for:
//   - Suite setup and teardown around a single authentication
//   - Strictly sequential execution in declared order
//   - Passing captured values between scenarios through a fixture store
//   - Per-scenario verdicts with transport, assertion, parse and dependency
//     failure kinds
//   - Latency summaries over the calls of one run
//
// A scenario that fails never stops the run. The only suite-level failure is
// authentication, which turns every scenario into a dependency failure.
package runner
