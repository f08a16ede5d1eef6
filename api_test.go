package cbor

import (
	"encoding/hex"
	"testing"
)

type apiPerson struct {
	Name string `cbor:"name"`
	Age  uint64 `cbor:"age"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := apiPerson{Name: "ada", Age: 36}
	p, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out apiPerson
	if err := Unmarshal(p, &out, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestMarshalValueUnmarshalValueRoundTrip(t *testing.T) {
	in := apiPerson{Name: "grace", Age: 47}
	v, err := MarshalValue(in)
	if err != nil {
		t.Fatalf("MarshalValue: %v", err)
	}
	if _, ok := v.(Map); !ok {
		t.Fatalf("expected a Map, got %#v", v)
	}

	var out apiPerson
	if err := UnmarshalValue(v, &out); err != nil {
		t.Fatalf("UnmarshalValue: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestUnmarshalRejectsNonPointerTarget(t *testing.T) {
	var out apiPerson
	if err := UnmarshalValue(Map{}, out); err == nil {
		t.Fatalf("expected non-pointer target to be rejected")
	}
	if err := UnmarshalValue(Map{}, nil); err == nil {
		t.Fatalf("expected nil target to be rejected")
	}
	var nilPtr *apiPerson
	if err := UnmarshalValue(Map{}, nilPtr); err == nil {
		t.Fatalf("expected nil pointer target to be rejected")
	}
}

func TestUnmarshalNonStrictThroughPublicAPI(t *testing.T) {
	p := mkex(t, "A2 63 616765 18 24 64 6E616D65 63 616461")
	// A well-formed, canonically-ordered map ("age" < "name"): both strict
	// and non-strict accept it, and agree on the result.
	var strict, loose apiPerson
	if err := Unmarshal(p, &strict, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := UnmarshalNonStrict(p, &loose, 0); err != nil {
		t.Fatalf("UnmarshalNonStrict: %v", err)
	}
	if strict != loose || strict.Name != "ada" || strict.Age != 36 {
		t.Fatalf("unexpected decode: strict=%+v loose=%+v", strict, loose)
	}
}

func TestMarshalPropagatesSchemaErrors(t *testing.T) {
	type cannotTransparent struct {
		A uint64
		B uint64
	}
	RegisterStruct[cannotTransparent](Transparent())

	if _, err := Marshal(cannotTransparent{A: 1, B: 2}); err == nil {
		t.Fatalf("expected transparent-on-multi-field struct to fail")
	}
}

func TestEncodeIsDeterministicAcrossRuns(t *testing.T) {
	in := apiPerson{Name: "linus", Age: 55}
	a, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if hex.EncodeToString(a) != hex.EncodeToString(b) {
		t.Fatalf("expected identical bytes across runs, got %s and %s", hex.EncodeToString(a), hex.EncodeToString(b))
	}

	// Re-encoding a decoded value reproduces the same bytes.
	var out apiPerson
	if err := Unmarshal(a, &out, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	c, err := Marshal(out)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if hex.EncodeToString(a) != hex.EncodeToString(c) {
		t.Fatalf("expected re-encode to match, got %s and %s", hex.EncodeToString(a), hex.EncodeToString(c))
	}
}
