package cbor

import (
	"encoding/hex"
	"math/big"
	"testing"
)

// Scenario 5 from spec §8: 128-bit values round-trip through big.Int as a
// big-endian byte string, shortest form (no leading zero byte).
func TestBigUintByteStringForm(t *testing.T) {
	var big1e6 big.Int
	big1e6.SetInt64(1000000)

	got, err := Marshal(big1e6)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if e, a := "430f4240", hex.EncodeToString(got); e != a {
		t.Fatalf("expected %s, got %s", e, a)
	}

	var zero big.Int
	got, err = Marshal(zero)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if e, a := "40", hex.EncodeToString(got); e != a {
		t.Fatalf("expected %s, got %s", e, a)
	}

	var decoded big.Int
	if err := Unmarshal(got, &decoded, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Sign() != 0 {
		t.Fatalf("expected zero, got %s", decoded.String())
	}
}

func TestBigUintRejectsOversizeByteString(t *testing.T) {
	v := ByteString(make([]byte, 17))
	var bi big.Int
	if err := UnmarshalValue(v, &bi); err == nil {
		t.Fatalf("expected a 17-byte string to be rejected")
	} else if de := err.(*DecodeError); de.Kind != UnexpectedIntegerSize {
		t.Fatalf("expected UnexpectedIntegerSize, got %v", de.Kind)
	}
}

func TestSizedIntegerBoundaries(t *testing.T) {
	var u8 uint8
	if err := UnmarshalValue(Unsigned(255), &u8); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if u8 != 255 {
		t.Fatalf("expected 255, got %d", u8)
	}
	if err := UnmarshalValue(Unsigned(256), &u8); err == nil {
		t.Fatalf("expected 256 to overflow a uint8")
	} else if de := err.(*DecodeError); de.Kind != UnexpectedIntegerSize {
		t.Fatalf("expected UnexpectedIntegerSize, got %v", de.Kind)
	}

	var i8 int8
	if err := UnmarshalValue(Negative(127), &i8); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if i8 != -128 {
		t.Fatalf("expected -128, got %d", i8)
	}
	if err := UnmarshalValue(Negative(128), &i8); err == nil {
		t.Fatalf("expected -129 to overflow an int8")
	} else if de := err.(*DecodeError); de.Kind != UnexpectedIntegerSize {
		t.Fatalf("expected UnexpectedIntegerSize, got %v", de.Kind)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	in := []uint64{1, 2, 3}
	v, err := MarshalValue(in)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	arr, ok := v.(Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected a 3-element array, got %#v", v)
	}

	var out []uint64
	if err := UnmarshalValue(v, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Fatalf("unexpected round trip: %v", out)
	}
}

func TestHashedMapSortsKeysOnEmission(t *testing.T) {
	in := map[string]uint64{"bytes": 1, "foo": 2}
	v, err := MarshalValue(in)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	m, ok := v.(Map)
	if !ok || len(m) != 2 {
		t.Fatalf("expected a 2-entry map, got %#v", v)
	}
	if !Equal(m[0].Key, TextString("foo")) {
		t.Fatalf("expected foo to sort first (shorter canonical encoding), got %#v", m[0])
	}

	var out map[string]uint64
	if err := UnmarshalValue(v, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if out["foo"] != 2 || out["bytes"] != 1 {
		t.Fatalf("unexpected round trip: %v", out)
	}
}

func TestSetEncodesAsSortedArray(t *testing.T) {
	in := map[uint64]struct{}{3: {}, 1: {}, 2: {}}
	v, err := MarshalValue(in)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	arr, ok := v.(Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected a 3-element array, got %#v", v)
	}
	if !Equal(arr[0], Unsigned(1)) || !Equal(arr[1], Unsigned(2)) || !Equal(arr[2], Unsigned(3)) {
		t.Fatalf("expected a sorted array, got %#v", arr)
	}

	var out map[uint64]struct{}
	if err := UnmarshalValue(v, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 members, got %d", len(out))
	}
}

func TestOptionalPointerRoundTrip(t *testing.T) {
	var nilPtr *uint64
	v, err := MarshalValue(nilPtr)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	if !isNullValue(v) {
		t.Fatalf("expected a nil pointer to encode as Null, got %#v", v)
	}

	n := uint64(9)
	v, err = MarshalValue(&n)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	if !Equal(v, Unsigned(9)) {
		t.Fatalf("expected inner encoding, got %#v", v)
	}

	var out *uint64
	if err := UnmarshalValue(v, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if out == nil || *out != 9 {
		t.Fatalf("expected a pointer to 9, got %v", out)
	}
}

func TestOrderedMapPreservesInsertionOrderAfterDecode(t *testing.T) {
	om := NewOrderedMap[string, uint64]()
	om.Set("b", 2)
	om.Set("a", 1)

	p, err := Marshal(om)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out OrderedMap[string, uint64]
	if err := Unmarshal(p, &out, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	// On the wire the entries are sorted ("a" before "b"), so the decoded
	// map holds them in that canonical order, not in the original insertion
	// order ("b" then "a"): decode inserts entries in the order they arrive.
	if out.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", out.Len())
	}
	keys := out.Keys()
	if keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected key order: %v", keys)
	}
	v1, _ := out.Get("a")
	v2, _ := out.Get("b")
	if v1 != 1 || v2 != 2 {
		t.Fatalf("unexpected values: a=%d b=%d", v1, v2)
	}
}

func TestTuple2RoundTrip(t *testing.T) {
	tup := Tuple2[string, uint64]{First: "x", Second: 5}
	p, err := Marshal(tup)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Tuple2[string, uint64]
	if err := Unmarshal(p, &out, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.First != "x" || out.Second != 5 {
		t.Fatalf("unexpected round trip: %+v", out)
	}
}

func TestTuple3RejectsWrongArity(t *testing.T) {
	var out Tuple3[uint64, uint64, uint64]
	if err := UnmarshalValue(Array{Unsigned(1), Unsigned(2)}, &out); err == nil {
		t.Fatalf("expected arity mismatch to fail")
	} else if de := err.(*DecodeError); de.Kind != UnexpectedType {
		t.Fatalf("expected UnexpectedType, got %v", de.Kind)
	}
}

func TestTuple4RoundTrip(t *testing.T) {
	tup := Tuple4[uint64, uint64, uint64, uint64]{First: 1, Second: 2, Third: 3, Fourth: 4}
	v, err := MarshalValue(tup)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	arr, ok := v.(Array)
	if !ok || len(arr) != 4 {
		t.Fatalf("expected a 4-element array, got %#v", v)
	}

	var out Tuple4[uint64, uint64, uint64, uint64]
	if err := UnmarshalValue(v, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if out != tup {
		t.Fatalf("unexpected round trip: %+v", out)
	}
}

func TestValuePassthrough(t *testing.T) {
	inner := Map{{Key: TextString("x"), Value: Unsigned(1)}}
	v, err := MarshalValue(inner)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	if !Equal(v, inner) {
		t.Fatalf("expected passthrough, got %#v", v)
	}

	var out Value
	if err := UnmarshalValue(inner, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if !Equal(out, inner) {
		t.Fatalf("expected passthrough, got %#v", out)
	}

	// A concrete Value-tree type as the decode target passes through too,
	// not just the Value interface itself.
	var m Map
	if err := UnmarshalValue(inner, &m); err != nil {
		t.Fatalf("UnmarshalValue into concrete Map: %v", err)
	}
	if !Equal(m, inner) {
		t.Fatalf("expected passthrough, got %#v", m)
	}
}
