package cbor

import (
	"encoding/binary"
	"io"
)

// majorType is the three-bit major type field of a CBOR initial byte.
type majorType byte

const (
	majorUnsigned majorType = 0
	majorNegative majorType = 1
	majorByte     majorType = 2
	majorText     majorType = 3
	majorArray    majorType = 4
	majorMap      majorType = 5
	majorTag      majorType = 6
	major7        majorType = 7
)

const (
	minorArg1 = 24
	minorArg2 = 25
	minorArg4 = 26
	minorArg8 = 27

	minor7False     = 20
	minor7True      = 21
	minor7Null      = 22
	minor7Undefined = 23
	minor7Float16   = 25
	minor7Float32   = 26
	minor7Float64   = 27

	minorIndefinite = 31
)

// Write emits the canonical CBOR encoding of v to w. Integers use
// shortest-form arguments, byte/text strings use their natural major types,
// all containers are written definite-length, and no tags are emitted
// except those the caller placed in the tree. Maps are written in the order
// their entries appear in v: callers that need canonical map ordering (the
// schema codec always does) must sort before calling Write.
func Write(v Value, w io.Writer) error {
	p := make([]byte, 0, encodedLen(v))
	p = appendValue(p, v)
	_, err := w.Write(p)
	return err
}

// Encode returns the canonical CBOR encoding of v.
func Encode(v Value) []byte {
	p := make([]byte, 0, encodedLen(v))
	return appendValue(p, v)
}

func encodedLen(v Value) int {
	switch tv := v.(type) {
	case Unsigned:
		return argLen(uint64(tv))
	case Negative:
		return argLen(uint64(tv))
	case ByteString:
		return argLen(uint64(len(tv))) + len(tv)
	case TextString:
		return argLen(uint64(len(tv))) + len(tv)
	case Array:
		total := argLen(uint64(len(tv)))
		for _, e := range tv {
			total += encodedLen(e)
		}
		return total
	case Map:
		total := argLen(uint64(len(tv)))
		for _, e := range tv {
			total += encodedLen(e.Key) + encodedLen(e.Value)
		}
		return total
	case *Tag:
		return argLen(tv.Number) + encodedLen(tv.Value)
	case Simple:
		return 1
	default:
		return 0
	}
}

func compose(major majorType, minor byte) byte {
	return byte(major)<<5 | minor
}

// argLen returns the number of bytes needed to encode arg as a CBOR
// argument (the initial byte plus any following length bytes), using the
// shortest available form.
func argLen(arg uint64) int {
	switch {
	case arg < 24:
		return 1
	case arg < 0x100:
		return 2
	case arg < 0x10000:
		return 3
	case arg < 0x100000000:
		return 5
	default:
		return 9
	}
}

func appendArg(p []byte, t majorType, arg uint64) []byte {
	switch {
	case arg < 24:
		return append(p, compose(t, byte(arg)))
	case arg < 0x100:
		p = append(p, compose(t, minorArg1))
		return append(p, byte(arg))
	case arg < 0x10000:
		p = append(p, compose(t, minorArg2))
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(arg))
		return append(p, b[:]...)
	case arg < 0x100000000:
		p = append(p, compose(t, minorArg4))
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(arg))
		return append(p, b[:]...)
	default:
		p = append(p, compose(t, minorArg8))
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], arg)
		return append(p, b[:]...)
	}
}

func appendValue(p []byte, v Value) []byte {
	switch tv := v.(type) {
	case Unsigned:
		return appendArg(p, majorUnsigned, uint64(tv))
	case Negative:
		return appendArg(p, majorNegative, uint64(tv))
	case ByteString:
		p = appendArg(p, majorByte, uint64(len(tv)))
		return append(p, tv...)
	case TextString:
		p = appendArg(p, majorText, uint64(len(tv)))
		return append(p, tv...)
	case Array:
		p = appendArg(p, majorArray, uint64(len(tv)))
		for _, e := range tv {
			p = appendValue(p, e)
		}
		return p
	case Map:
		p = appendArg(p, majorMap, uint64(len(tv)))
		for _, e := range tv {
			p = appendValue(p, e.Key)
			p = appendValue(p, e.Value)
		}
		return p
	case *Tag:
		p = appendArg(p, majorTag, tv.Number)
		return appendValue(p, tv.Value)
	case Simple:
		return append(p, compose(major7, simpleMinor(tv)))
	default:
		return p
	}
}

func simpleMinor(s Simple) byte {
	switch s {
	case False:
		return minor7False
	case True:
		return minor7True
	case Null:
		return minor7Null
	case Undefined:
		return minor7Undefined
	default:
		return minor7Undefined
	}
}
