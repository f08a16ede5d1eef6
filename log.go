package cbor

import "github.com/smithy-lang/cbor-schema/internal/cborlog"

var pkgLogger cborlog.Logger = cborlog.Noop{}

// SetLogger installs the logger used for schema-build diagnostics, such as
// a type falling back to a lazily-derived (unregistered) struct codec.
// Encode and decode errors are never logged; they are returned to the
// caller (decode failures as *DecodeError).
func SetLogger(l cborlog.Logger) {
	if l == nil {
		l = cborlog.Noop{}
	}
	pkgLogger = l
}
