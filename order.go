package cbor

import "bytes"

// Less reports whether a sorts before b under CBOR canonical map-key
// ordering (RFC 8949 §4.2): shorter canonical encodings sort first, and
// encodings of equal length compare bytewise lexicographically. This
// collapses, in practice, to unsigned integers < negative integers < byte
// strings < text strings < arrays < maps, with natural ordering inside each
// kind, but is always computed from the actual canonical bytes so it stays
// correct for mixed-kind key sets.
func Less(a, b Value) bool {
	pa := Encode(a)
	pb := Encode(b)
	if len(pa) != len(pb) {
		return len(pa) < len(pb)
	}
	return bytes.Compare(pa, pb) < 0
}

// compareValues returns -1, 0, or 1 as a sorts before, equal to, or after b
// under canonical order.
func compareValues(a, b Value) int {
	if Equal(a, b) {
		return 0
	}
	if Less(a, b) {
		return -1
	}
	return 1
}

// Key is a schema key: either a text string or an unsigned integer, the
// only two key shapes spec.md's schema model allows for field and variant
// identifiers.
type Key struct {
	text   string
	num    uint64
	isText bool
	isNum  bool
}

// StringKey builds a text-string schema key.
func StringKey(s string) Key { return Key{text: s, isText: true} }

// UintKey builds an unsigned-integer schema key.
func UintKey(n uint64) Key { return Key{num: n, isNum: true} }

// IsZero reports whether k carries no key (the zero value of Key).
func (k Key) IsZero() bool { return !k.isText && !k.isNum }

// Value returns the CBOR value this key encodes to.
func (k Key) Value() Value {
	if k.isNum {
		return Unsigned(k.num)
	}
	return TextString(k.text)
}

// String returns a display form of the key, used in error messages.
func (k Key) String() string {
	if k.isNum {
		return uintToString(k.num)
	}
	return k.text
}

func uintToString(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Equal reports whether two keys are identical.
func (k Key) Equal(o Key) bool {
	if k.isText != o.isText || k.isNum != o.isNum {
		return false
	}
	if k.isText {
		return k.text == o.text
	}
	if k.isNum {
		return k.num == o.num
	}
	return true // both zero
}
