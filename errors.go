package cbor

import "fmt"

// Kind classifies a DecodeError. The decoder's error taxonomy has exactly
// these five members.
type Kind int

const (
	// ParsingFailed is raised by the byte reader: malformed CBOR, nesting
	// depth exceeded, or (in strict mode) non-canonical map key ordering.
	ParsingFailed Kind = iota
	// UnexpectedType means the value is well formed but the wrong shape,
	// e.g. a Map expected where a TextString was found.
	UnexpectedType
	// MissingField means a required field was absent and no default was
	// available.
	MissingField
	// UnknownField means a map carried extra entries for a closed struct,
	// or an enum discriminator matched no variant.
	UnknownField
	// UnexpectedIntegerSize means an integer (or its 128-bit byte-string
	// form) does not fit in the target width.
	UnexpectedIntegerSize
)

func (k Kind) String() string {
	switch k {
	case ParsingFailed:
		return "parsing failed"
	case UnexpectedType:
		return "unexpected type"
	case MissingField:
		return "missing field"
	case UnknownField:
		return "unknown field"
	case UnexpectedIntegerSize:
		return "unexpected integer size"
	default:
		return "unknown error"
	}
}

// DecodeError is the error type for decode failures in this package. It
// always carries one of the five Kind values above and, where available,
// the path to the field or variant that triggered it. Schema-build errors,
// an invalid Unmarshal target, and errors returned by a DeserializeWith
// hook are passed through as plain errors.
type DecodeError struct {
	Kind Kind
	Path string
	Err  error // wrapped cause, may be nil
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("cbor: %s at %s: %v", e.Kind, e.Path, e.Err)
		}
		return fmt.Sprintf("cbor: %s at %s", e.Kind, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("cbor: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cbor: %s", e.Kind)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is a *DecodeError with the same Kind, so callers
// can do errors.Is(err, cbor.ErrKind(cbor.MissingField)) or compare directly
// against the error returned by this package.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, path string, cause error) *DecodeError {
	return &DecodeError{Kind: kind, Path: path, Err: cause}
}

// ErrKind returns a sentinel *DecodeError usable with errors.Is to test the
// kind of an error returned by this package, e.g.:
//
//	if errors.Is(err, cbor.ErrKind(cbor.UnknownField)) { ... }
func ErrKind(k Kind) error {
	return &DecodeError{Kind: k}
}

func withPath(err error, segment string) error {
	de, ok := err.(*DecodeError)
	if !ok {
		return err
	}
	if de.Path == "" {
		return &DecodeError{Kind: de.Kind, Path: segment, Err: de.Err}
	}
	return &DecodeError{Kind: de.Kind, Path: segment + "." + de.Path, Err: de.Err}
}
