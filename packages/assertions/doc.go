// Package assertions evaluates storyspec checks against a response.
//
// Supported checks:
//   - Status code (Status(201))
//   - Exact field equality with a declared JSON type (Field("msg", "Deleted successfully!"))
//   - Present, non-empty string fields (FieldNotEmpty("storyId"))
//   - Array bodies, possibly empty (Sequence(""))
//   - JSON Schema validation (Schema(`{"type": "array"}`))
//
// Every result carries a Kind. A body that is not JSON, a missing field or a
// field of the wrong JSON type is a parse failure; a well-typed field with a
// different value is a mismatch.
package assertions
