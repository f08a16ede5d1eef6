package cbor

import (
	"encoding/hex"
	"testing"
)

// mkex builds a byte slice from a hex literal with spaces allowed, matching
// the fixture style used throughout this package's tests.
func mkex(t *testing.T, s string) []byte {
	t.Helper()
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			continue
		}
		clean = append(clean, s[i])
	}
	b, err := hex.DecodeString(string(clean))
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := map[string]Value{
		"unsigned small":  Unsigned(10),
		"unsigned 1 byte": Unsigned(100),
		"unsigned 2 byte": Unsigned(1000),
		"unsigned 4 byte": Unsigned(100000),
		"unsigned 8 byte": Unsigned(10000000000),
		"negative":        Negative(0),
		"negative large":  Negative(499),
		"byte string":     ByteString{0x01, 0x02, 0x03},
		"empty bytes":     ByteString{},
		"text string":     TextString("hello"),
		"empty array":     Array{},
		"array":           Array{Unsigned(1), Unsigned(2)},
		"map":             Map{{Key: TextString("a"), Value: Unsigned(1)}},
		"tag":             &Tag{Number: 2, Value: ByteString{0x01}},
		"false":           False,
		"true":            True,
		"null":            Null,
		"undefined":       Undefined,
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			p := Encode(v)
			got, err := ReadNested(p, 0)
			if err != nil {
				t.Fatalf("ReadNested: %v", err)
			}
			if !Equal(got, v) {
				t.Fatalf("round trip mismatch: got %#v, want %#v", got, v)
			}
		})
	}
}

func TestEncodeShortestForm(t *testing.T) {
	if e, a := "0a", hex.EncodeToString(Encode(Unsigned(10))); e != a {
		t.Errorf("expected %s, got %s", e, a)
	}
	if e, a := "1818", hex.EncodeToString(Encode(Unsigned(24))); e != a {
		t.Errorf("expected %s, got %s", e, a)
	}
	if e, a := "190100", hex.EncodeToString(Encode(Unsigned(256))); e != a {
		t.Errorf("expected %s, got %s", e, a)
	}
}

// Scenario 2 from spec §8: non-canonical map input rejected by the strict
// decoder, accepted by the non-strict one.
func TestReadNestedRejectsNonCanonicalOrder(t *testing.T) {
	p := mkex(t, "A2 65 62 79 74 65 73 41 01 63 66 6F 6F 18 2A")

	if _, err := ReadNested(p, 0); err == nil {
		t.Fatalf("expected ParsingFailed for out-of-order map keys")
	} else if de, ok := err.(*DecodeError); !ok || de.Kind != ParsingFailed {
		t.Fatalf("expected ParsingFailed, got %v", err)
	}

	v, err := ReadNestedNonStrict(p, 0)
	if err != nil {
		t.Fatalf("ReadNestedNonStrict: %v", err)
	}
	m, ok := v.(Map)
	if !ok || len(m) != 2 {
		t.Fatalf("expected a 2-entry map, got %#v", v)
	}
	if !Equal(m[0].Key, TextString("foo")) || !Equal(m[0].Value, Unsigned(42)) {
		t.Fatalf("expected sorted entry 0 to be foo:42, got %#v", m[0])
	}
}

func TestReadNestedRejectsDuplicateKeys(t *testing.T) {
	p := mkex(t, "A2 63 66 6F 6F 01 63 66 6F 6F 02")
	if _, err := ReadNested(p, 0); err == nil {
		t.Fatalf("expected duplicate key to fail")
	}
}

func TestReadNestedEnforcesNestingLimit(t *testing.T) {
	// A deeply nested array: [[[[...]]]]. Each level is a 1-element array:
	// major 4, arg 1 -> 0x81, repeated, ending in an empty array 0x80.
	depth := 70
	p := make([]byte, 0, depth+1)
	for i := 0; i < depth; i++ {
		p = append(p, 0x81)
	}
	p = append(p, 0x80)

	if _, err := ReadNested(p, 64); err == nil {
		t.Fatalf("expected nesting limit to be enforced")
	}
	if _, err := ReadNested(p, 100); err != nil {
		t.Fatalf("expected deeper limit to succeed, got %v", err)
	}
}

func TestReadNestedRejectsIndefiniteAndFloat(t *testing.T) {
	if _, err := ReadNested(mkex(t, "5F 41 01 FF"), 0); err == nil {
		t.Fatalf("expected indefinite-length byte string to be rejected")
	}
	if _, err := ReadNested(mkex(t, "FA 47 C3 50 00"), 0); err == nil {
		t.Fatalf("expected float32 to be rejected")
	}
}

func TestMapSort(t *testing.T) {
	m := Map{
		{Key: TextString("bytes"), Value: Unsigned(1)},
		{Key: TextString("foo"), Value: Unsigned(2)},
	}
	m.Sort()
	if !Equal(m[0].Key, TextString("foo")) {
		t.Fatalf("expected foo to sort before bytes (shorter canonical encoding), got %#v", m)
	}
}

func TestLessCollapsesToMajorTypeOrder(t *testing.T) {
	// Each pair below encodes to the same byte length, so the comparison
	// exercises the major-type byte itself rather than length ordering.
	if !Less(Unsigned(0), Negative(0)) {
		t.Errorf("expected an unsigned integer to sort before a negative integer of equal encoded length")
	}
	if !Less(Negative(0), ByteString{}) {
		t.Errorf("expected a negative integer to sort before a byte string of equal encoded length")
	}
	if !Less(ByteString{0x41}, TextString("A")) {
		t.Errorf("expected a byte string to sort before a text string of equal encoded length")
	}
}
