package cbor

// Value is the intermediate representation of a CBOR data item. It is a
// throwaway tree: built by Marshal/MarshalValue, consumed by Unmarshal/
// UnmarshalValue, and never shared or mutated after construction.
//
// The following types implement Value:
//   - Unsigned
//   - Negative
//   - ByteString
//   - TextString
//   - Array
//   - Map
//   - *Tag
//   - Simple
type Value interface {
	isValue()
}

// Unsigned is a CBOR unsigned integer (major type 0), 0 through 2^64-1.
type Unsigned uint64

// Negative is a CBOR negative integer (major type 1). The represented
// integer is -1-n for the stored n, so the range is -1 through -2^64.
type Negative uint64

// ByteString is a CBOR byte string (major type 2).
type ByteString []byte

// TextString is a CBOR UTF-8 text string (major type 3).
type TextString string

// Array is a CBOR array (major type 4).
type Array []Value

// MapEntry is one key/value pair of a Map. Map preserves entry order: order
// is part of a Map's identity, and the canonical form is the entries sorted
// ascending by key (see Less).
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is a CBOR map (major type 5) represented as an ordered sequence of
// entries rather than a Go map, since key order and duplicate detection are
// both load bearing for this package's strict decoder.
type Map []MapEntry

// Tag is a CBOR tagged value (major type 6). The value tree can carry tags
// produced by the byte reader, but the schema-driven codec does not decode
// a tag into a typed target: scalar, string, container and struct targets
// fail with UnexpectedType and enum targets with UnknownField. Only a Value
// passthrough target keeps the tag as is.
type Tag struct {
	Number uint64
	Value  Value
}

// Simple is a CBOR simple value (major type 7). Only the four variants
// below are supported; any other simple value fails to decode.
type Simple byte

// The supported Simple values.
const (
	False Simple = iota
	True
	Null
	Undefined
)

func (Unsigned) isValue()   {}
func (Negative) isValue()   {}
func (ByteString) isValue() {}
func (TextString) isValue() {}
func (Array) isValue()      {}
func (Map) isValue()        {}
func (*Tag) isValue()       {}
func (Simple) isValue()     {}

var (
	_ Value = Unsigned(0)
	_ Value = Negative(0)
	_ Value = ByteString(nil)
	_ Value = TextString("")
	_ Value = Array(nil)
	_ Value = Map(nil)
	_ Value = (*Tag)(nil)
	_ Value = False
)

// Equal reports whether a and b are structurally identical CBOR values.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case Unsigned:
		bv, ok := b.(Unsigned)
		return ok && av == bv
	case Negative:
		bv, ok := b.(Negative)
		return ok && av == bv
	case ByteString:
		bv, ok := b.(ByteString)
		return ok && bytesEqual(av, bv)
	case TextString:
		bv, ok := b.(TextString)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i].Key, bv[i].Key) || !Equal(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	case *Tag:
		bv, ok := b.(*Tag)
		return ok && av.Number == bv.Number && Equal(av.Value, bv.Value)
	case Simple:
		bv, ok := b.(Simple)
		return ok && av == bv
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Sort orders m ascending by key per canonical CBOR map key ordering (see
// Less), in place, and returns m for chaining.
func (m Map) Sort() Map {
	insertionSort(m, func(i, j int) bool { return Less(m[i].Key, m[j].Key) })
	return m
}

// insertion sort keeps this dependency-free and is adequate: struct field
// counts and map sizes in this package's use are small.
func insertionSort(m Map, less func(i, j int) bool) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}
