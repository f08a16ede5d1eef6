package cbor

import (
	"encoding/binary"
	"fmt"
)

// DefaultMaxNesting is the nesting depth enforced by ReadNested and
// ReadNestedNonStrict when a caller passes 0 for maxNesting.
const DefaultMaxNesting = 64

// ReadNested parses strict canonical CBOR from p: map keys must appear in
// canonical ascending order with no duplicates, containers must be
// definite-length, and floating point or indefinite-length forms are
// rejected. maxNesting bounds recursion depth; 0 selects DefaultMaxNesting.
func ReadNested(p []byte, maxNesting int) (Value, error) {
	return readNested(p, maxNesting, true)
}

// ReadNestedNonStrict parses the same byte surface as ReadNested but does
// not require canonical map key ordering; maps are accepted in any order
// (duplicates are still rejected).
func ReadNestedNonStrict(p []byte, maxNesting int) (Value, error) {
	return readNested(p, maxNesting, false)
}

func readNested(p []byte, maxNesting int, strict bool) (Value, error) {
	if maxNesting <= 0 {
		maxNesting = DefaultMaxNesting
	}
	r := &reader{strict: strict, maxDepth: maxNesting}
	v, n, err := r.value(p, 0)
	if err != nil {
		return nil, err
	}
	if n != len(p) {
		return nil, newErr(ParsingFailed, "", fmt.Errorf("trailing %d bytes after top-level value", len(p)-n))
	}
	return v, nil
}

type reader struct {
	strict   bool
	maxDepth int
}

func (r *reader) value(p []byte, depth int) (Value, int, error) {
	if depth > r.maxDepth {
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("nesting exceeds maximum of %d", r.maxDepth))
	}
	if len(p) == 0 {
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("unexpected end of payload"))
	}

	switch peekMajor(p) {
	case majorUnsigned:
		arg, n, err := r.argument(p)
		if err != nil {
			return nil, 0, err
		}
		return Unsigned(arg), n, nil
	case majorNegative:
		arg, n, err := r.argument(p)
		if err != nil {
			return nil, 0, err
		}
		return Negative(arg), n, nil
	case majorByte:
		b, n, err := r.slice(p)
		if err != nil {
			return nil, 0, err
		}
		return ByteString(b), n, nil
	case majorText:
		b, n, err := r.slice(p)
		if err != nil {
			return nil, 0, err
		}
		return TextString(b), n, nil
	case majorArray:
		return r.array(p, depth)
	case majorMap:
		return r.mapValue(p, depth)
	case majorTag:
		return r.tag(p, depth)
	default:
		return r.major7(p)
	}
}

func peekMajor(p []byte) majorType {
	return majorType(p[0] >> 5)
}

func peekMinor(p []byte) byte {
	return p[0] & 0b11111
}

// argument decodes a sized CBOR argument; it rejects the indefinite marker
// as an unexpected minor value. The string, array and map readers check for
// that marker first so they can report it as an unsupported indefinite form.
func (r *reader) argument(p []byte) (uint64, int, error) {
	minor := peekMinor(p)
	if minor < 24 {
		return uint64(minor), 1, nil
	}

	var argLen int
	switch minor {
	case minorArg1:
		argLen = 1
	case minorArg2:
		argLen = 2
	case minorArg4:
		argLen = 4
	case minorArg8:
		argLen = 8
	default:
		return 0, 0, newErr(ParsingFailed, "", fmt.Errorf("unexpected minor value %d", minor))
	}

	if len(p) < argLen+1 {
		return 0, 0, newErr(ParsingFailed, "", fmt.Errorf("argument length %d exceeds remaining buffer", argLen))
	}

	v := readUint(p[1:], argLen)
	if !r.isShortestForm(v, argLen) {
		return 0, 0, newErr(ParsingFailed, "", fmt.Errorf("non-canonical integer encoding"))
	}
	return v, argLen + 1, nil
}

// isShortestForm rejects arguments that could have been encoded with fewer
// bytes: canonical CBOR always uses the shortest form.
func (r *reader) isShortestForm(v uint64, argLen int) bool {
	switch argLen {
	case 1:
		return v >= 24
	case 2:
		return v >= 0x100
	case 4:
		return v >= 0x10000
	case 8:
		return v >= 0x100000000
	}
	return true
}

func readUint(p []byte, n int) uint64 {
	switch n {
	case 1:
		return uint64(p[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(p))
	case 4:
		return uint64(binary.BigEndian.Uint32(p))
	default:
		return binary.BigEndian.Uint64(p)
	}
}

func (r *reader) slice(p []byte) ([]byte, int, error) {
	if peekMinor(p) == minorIndefinite {
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("indefinite-length string not supported"))
	}

	slen, off, err := r.argument(p)
	if err != nil {
		return nil, 0, err
	}
	p = p[off:]
	if uint64(len(p)) < slen {
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("string length %d exceeds remaining buffer", slen))
	}
	return p[:slen], off + int(slen), nil
}

func (r *reader) array(p []byte, depth int) (Array, int, error) {
	if peekMinor(p) == minorIndefinite {
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("indefinite-length array not supported"))
	}

	alen, off, err := r.argument(p)
	if err != nil {
		return nil, 0, err
	}
	p = p[off:]

	arr := make(Array, 0, min64(alen, 1024))
	for i := uint64(0); i < alen; i++ {
		item, n, err := r.value(p, depth+1)
		if err != nil {
			return nil, 0, err
		}
		p = p[n:]
		off += n
		arr = append(arr, item)
	}
	return arr, off, nil
}

func (r *reader) mapValue(p []byte, depth int) (Map, int, error) {
	if peekMinor(p) == minorIndefinite {
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("indefinite-length map not supported"))
	}

	mlen, off, err := r.argument(p)
	if err != nil {
		return nil, 0, err
	}
	p = p[off:]

	m := make(Map, 0, min64(mlen, 1024))
	for i := uint64(0); i < mlen; i++ {
		key, kn, err := r.value(p, depth+1)
		if err != nil {
			return nil, 0, err
		}
		p = p[kn:]
		off += kn

		val, vn, err := r.value(p, depth+1)
		if err != nil {
			return nil, 0, err
		}
		p = p[vn:]
		off += vn

		if r.strict && len(m) > 0 {
			last := m[len(m)-1].Key
			if !Less(last, key) {
				return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("map keys not in canonical order"))
			}
		}
		m = append(m, MapEntry{Key: key, Value: val})
	}

	if !r.strict {
		m.Sort()
	}
	if err := checkNoDuplicates(m); err != nil {
		return nil, 0, err
	}

	return m, off, nil
}

func checkNoDuplicates(m Map) error {
	for i := 1; i < len(m); i++ {
		if Equal(m[i-1].Key, m[i].Key) {
			return newErr(ParsingFailed, "", fmt.Errorf("duplicate map key"))
		}
	}
	return nil
}

func (r *reader) tag(p []byte, depth int) (*Tag, int, error) {
	id, off, err := r.argument(p)
	if err != nil {
		return nil, 0, err
	}
	p = p[off:]

	v, n, err := r.value(p, depth+1)
	if err != nil {
		return nil, 0, err
	}
	return &Tag{Number: id, Value: v}, off + n, nil
}

func (r *reader) major7(p []byte) (Value, int, error) {
	switch m := peekMinor(p); m {
	case minor7False:
		return False, 1, nil
	case minor7True:
		return True, 1, nil
	case minor7Null:
		return Null, 1, nil
	case minor7Undefined:
		return Undefined, 1, nil
	case minor7Float16, minor7Float32, minor7Float64:
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("floating point values not supported"))
	default:
		return nil, 0, newErr(ParsingFailed, "", fmt.Errorf("unsupported simple value minor %d", m))
	}
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
