// Package fixture holds the mutable state that storyspec scenarios share
// within one suite run.
//
// Values are written by captures (for example the id of a created story) and
// read by later scenarios through {{key}} references in request paths. A key
// that was never written is Unset, which is distinct from an empty value.
package fixture
