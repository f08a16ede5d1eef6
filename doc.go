// Package cbor implements a schema-driven codec for the Concise Binary
// Object Representation (CBOR, RFC 8949).
//
// The package is split into a small intermediate value tree (Value and its
// variants), a low level reader/writer that turns bytes into that tree and
// back in canonical form, and a derived codec that builds a per-type schema
// from struct tags and explicit variant registration and uses it to
// destructure or construct map/array values.
//
// Unlike encoding/json, struct encoding is always canonically ordered: two
// equal values always produce identical bytes, and the decoder rejects
// non-canonical or ambiguous input unless the non-strict entry points are
// used.
package cbor
