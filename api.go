package cbor

import (
	"fmt"
	"reflect"
)

// Marshal encodes v as canonical CBOR bytes.
func Marshal(v any) ([]byte, error) {
	val, err := MarshalValue(v)
	if err != nil {
		return nil, err
	}
	return Encode(val), nil
}

// MarshalValue encodes v into the intermediate Value tree without
// serializing it to bytes. Useful for callers composing a larger document
// or inspecting the shape before writing it out.
func MarshalValue(v any) (Value, error) {
	return encodeReflect(reflect.ValueOf(v))
}

// MarshalAs encodes v as canonical CBOR bytes using T as the static type to
// dispatch on. Use this instead of Marshal when v's static type is a
// registered enum interface: boxing an interface value into the `any`
// parameter of Marshal erases which interface it implements (Go interfaces
// don't nest), so Marshal would see only the concrete variant type and
// encode it bare, without the enum's tagging wrapper. MarshalAs sidesteps
// this by taking T as an explicit type parameter, so `MarshalAs[D](d)`
// dispatches as D even though d's dynamic value is some concrete variant.
func MarshalAs[T any](v T) ([]byte, error) {
	val, err := MarshalValueAs[T](v)
	if err != nil {
		return nil, err
	}
	return Encode(val), nil
}

// MarshalValueAs is MarshalAs without the final byte-encoding step.
func MarshalValueAs[T any](v T) (Value, error) {
	rv := reflect.ValueOf(&v).Elem()
	return encodeReflect(rv)
}

// Unmarshal decodes strict canonical CBOR bytes from p into *out: map keys
// must appear in canonical order, with no unknown fields unless the target
// type allows them. maxNesting bounds recursion depth during the byte-level
// parse; 0 selects DefaultMaxNesting.
func Unmarshal(p []byte, out any, maxNesting int) error {
	val, err := ReadNested(p, maxNesting)
	if err != nil {
		return err
	}
	return UnmarshalValue(val, out)
}

// UnmarshalNonStrict decodes the same byte surface as Unmarshal but accepts
// maps whose keys are not in canonical order.
func UnmarshalNonStrict(p []byte, out any, maxNesting int) error {
	val, err := ReadNestedNonStrict(p, maxNesting)
	if err != nil {
		return err
	}
	return UnmarshalValue(val, out)
}

// UnmarshalValue decodes an already-parsed Value into *out.
func UnmarshalValue(v Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("cbor: Unmarshal target must be a non-nil pointer, got %T", out)
	}
	return decodeDefault(v, rv.Elem())
}
