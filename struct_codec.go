package cbor

import (
	"fmt"
	"reflect"
	"sort"
)

// structOptions holds the type-level attributes a struct can be registered
// with. Field-level attributes come from `cbor` struct tags instead, parsed
// at schema-build time.
type structOptions struct {
	transparent  bool
	asArray      bool
	allowUnknown bool
	noDefault    bool
	withDefault  bool
}

// StructOption configures a type registered with RegisterStruct.
type StructOption func(*structOptions)

// Transparent marks a single-field struct as a newtype whose codec is
// identical to its field's: no wrapper is emitted on the wire.
func Transparent() StructOption { return func(o *structOptions) { o.transparent = true } }

// AsArray encodes and decodes the struct positionally rather than as a map.
func AsArray() StructOption { return func(o *structOptions) { o.asArray = true } }

// AllowUnknownFields accepts (and discards) unrecognized map keys or extra
// array elements during decode instead of failing with UnknownField.
func AllowUnknownFields() StructOption { return func(o *structOptions) { o.allowUnknown = true } }

// NoDefault rejects Null/Undefined recovery for this type: a missing field
// of this type, or a top-level Null/Undefined decode, fails MissingField
// instead of producing the zero value.
func NoDefault() StructOption { return func(o *structOptions) { o.noDefault = true } }

// WithDefault explicitly affirms default recovery; mutually exclusive with
// NoDefault. Included for symmetry with the attribute algebra; omitting
// both options already behaves this way.
func WithDefault() StructOption { return func(o *structOptions) { o.withDefault = true } }

// RegisterStruct attaches type-level attributes to T ahead of its first
// use. Calling it is optional: a struct with no type-level attributes
// builds a correct default codec lazily from its field tags alone.
func RegisterStruct[T any](opts ...StructOption) {
	var zero T
	typ := reflect.TypeOf(zero)
	var so structOptions
	for _, o := range opts {
		o(&so)
	}
	structRegistry.Store(typ, buildStructCodec(typ, so))
}

type fieldEntry struct {
	goIndex  int
	name     string
	key      Key
	optional bool
	skip     bool
	hooks    FieldHooks
	hasHooks bool
}

type structCodec struct {
	typ          reflect.Type
	transparent  bool
	asArray      bool
	allowUnknown bool
	noDefault    bool
	fields       []*fieldEntry // source order
	sortedFields []*fieldEntry // canonical key order, excludes skip fields
	buildErr     error
}

// arrayCarrier reports whether this type encodes positionally. The source
// language distinguishes a tuple/newtype struct (unnamed fields) from an
// ordinary struct syntactically, and defaults the former to an array; Go
// has no such distinction; every struct field has a name, so the array
// carrier here is opt-in only, via AsArray.
func (sc *structCodec) arrayCarrier() bool {
	return sc.asArray
}

func buildStructCodec(typ reflect.Type, so structOptions) *structCodec {
	sc := &structCodec{
		typ:          typ,
		transparent:  so.transparent,
		asArray:      so.asArray,
		allowUnknown: so.allowUnknown,
		noDefault:    so.noDefault,
	}

	if so.noDefault && so.withDefault {
		sc.buildErr = fmt.Errorf("cbor: %s: no_default and with_default are mutually exclusive", typ)
		return sc
	}

	n := typ.NumField()
	if so.transparent && n != 1 {
		sc.buildErr = fmt.Errorf("cbor: %s: transparent requires exactly one field", typ)
		return sc
	}

	for i := 0; i < n; i++ {
		f := typ.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		ft := parseFieldTag(f.Tag.Get("cbor"))

		fe := &fieldEntry{goIndex: i, name: f.Name}
		if ft.rename != "" {
			fe.key = StringKey(ft.rename)
		} else {
			fe.key = StringKey(f.Name)
		}
		fe.optional = ft.flags["optional"]
		fe.skip = ft.flags["skip"]
		if hooks, ok := lookupFieldHooks(typ, f.Name); ok {
			fe.hooks = hooks
			fe.hasHooks = true
		}

		if so.asArray {
			if fe.optional {
				sc.buildErr = fmt.Errorf("cbor: %s.%s: optional is rejected on array carrier fields", typ, f.Name)
				return sc
			}
			if fe.hasHooks && fe.hooks.SkipSerializingIf != nil {
				sc.buildErr = fmt.Errorf("cbor: %s.%s: skip_serializing_if is rejected on array carrier fields", typ, f.Name)
				return sc
			}
		}

		sc.fields = append(sc.fields, fe)
	}

	sc.sortedFields = make([]*fieldEntry, 0, len(sc.fields))
	for _, fe := range sc.fields {
		if !fe.skip {
			sc.sortedFields = append(sc.sortedFields, fe)
		}
	}
	sort.Slice(sc.sortedFields, func(i, j int) bool {
		return Less(sc.sortedFields[i].key.Value(), sc.sortedFields[j].key.Value())
	})

	return sc
}

func encodeFieldValue(fe *fieldEntry, fv reflect.Value) (Value, error) {
	if fe.hasHooks && fe.hooks.SerializeWith != nil {
		return fe.hooks.SerializeWith(fv)
	}
	return encodeReflect(fv)
}

func decodeFieldValue(fe *fieldEntry, v Value, fv reflect.Value) error {
	if fe.hasHooks && fe.hooks.DeserializeWith != nil {
		dv, err := fe.hooks.DeserializeWith(v)
		if err != nil {
			return err
		}
		fv.Set(dv)
		return nil
	}
	return decodeDefault(v, fv)
}

func encodeStruct(rv reflect.Value) (Value, error) {
	sc := lookupStructCodec(rv.Type())
	if sc.buildErr != nil {
		return nil, sc.buildErr
	}

	if len(sc.fields) == 0 {
		return Null, nil
	}
	if sc.transparent {
		return encodeReflect(rv.Field(sc.fields[0].goIndex))
	}
	if sc.arrayCarrier() {
		return encodeStructArray(sc, rv)
	}
	return encodeStructMap(sc, rv)
}

func encodeStructArray(sc *structCodec, rv reflect.Value) (Value, error) {
	out := make(Array, 0, len(sc.fields))
	for _, fe := range sc.fields {
		if fe.skip {
			continue
		}
		v, err := encodeFieldValue(fe, rv.Field(fe.goIndex))
		if err != nil {
			return nil, withPath(err, fe.name)
		}
		out = append(out, v)
	}
	return out, nil
}

func encodeStructMap(sc *structCodec, rv reflect.Value) (Value, error) {
	m, err := encodeStructMapEntries(sc, rv)
	if err != nil {
		return nil, err
	}
	m.Sort()
	return m, nil
}

func encodeStructMapEntries(sc *structCodec, rv reflect.Value) (Map, error) {
	var m Map
	for _, fe := range sc.fields {
		if fe.skip {
			continue
		}
		fv := rv.Field(fe.goIndex)
		skipIf := fe.hasHooks && fe.hooks.SkipSerializingIf != nil

		if fe.optional && skipIf && fe.hooks.SkipSerializingIf(fv) {
			continue
		}

		v, err := encodeFieldValue(fe, fv)
		if err != nil {
			return nil, withPath(err, fe.name)
		}

		if fe.optional && !skipIf && isNullValue(v) {
			continue
		}

		m = append(m, MapEntry{Key: fe.key.Value(), Value: v})
	}
	return m, nil
}

func decodeStruct(v Value, rv reflect.Value) error {
	sc := lookupStructCodec(rv.Type())
	if sc.buildErr != nil {
		return sc.buildErr
	}

	if len(sc.fields) == 0 {
		if isNullLike(v) {
			return nil
		}
		return newErr(UnexpectedType, "", fmt.Errorf("expected null for unit struct, got %T", v))
	}
	if sc.transparent {
		return decodeReflect(v, rv.Field(sc.fields[0].goIndex))
	}
	if sc.arrayCarrier() {
		return decodeStructArray(sc, rv, v)
	}
	return decodeStructMap(sc, rv, v)
}

func decodeStructArray(sc *structCodec, rv reflect.Value, v Value) error {
	arr, ok := v.(Array)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array, got %T", v))
	}

	nonSkip := make([]*fieldEntry, 0, len(sc.fields))
	for _, fe := range sc.fields {
		if !fe.skip {
			nonSkip = append(nonSkip, fe)
		}
	}

	if len(arr) < len(nonSkip) {
		return newErr(MissingField, "", fmt.Errorf("array has %d elements, need %d", len(arr), len(nonSkip)))
	}
	if len(arr) > len(nonSkip) && !sc.allowUnknown {
		return newErr(UnknownField, "", fmt.Errorf("array has %d elements, expected %d", len(arr), len(nonSkip)))
	}

	for i, fe := range nonSkip {
		if err := decodeFieldValue(fe, arr[i], rv.Field(fe.goIndex)); err != nil {
			return withPath(err, fe.name)
		}
	}
	for _, fe := range sc.fields {
		if fe.skip {
			if err := decodeDefault(Null, rv.Field(fe.goIndex)); err != nil {
				return withPath(err, fe.name)
			}
		}
	}
	return nil
}

func decodeStructMap(sc *structCodec, rv reflect.Value, v Value) error {
	m, ok := v.(Map)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected map, got %T", v))
	}

	idx := 0
	for _, fe := range sc.sortedFields {
		for sc.allowUnknown && idx < len(m) && compareValues(m[idx].Key, fe.key.Value()) < 0 {
			idx++ // unknown key ahead of this field
		}
		if idx >= len(m) {
			if err := decodeFieldValue(fe, Null, rv.Field(fe.goIndex)); err != nil {
				return withPath(err, fe.name)
			}
			continue
		}
		switch compareValues(m[idx].Key, fe.key.Value()) {
		case 0:
			if err := decodeFieldValue(fe, m[idx].Value, rv.Field(fe.goIndex)); err != nil {
				return withPath(err, fe.name)
			}
			idx++
		case 1: // map key greater than field key: field is missing
			if err := decodeFieldValue(fe, Null, rv.Field(fe.goIndex)); err != nil {
				return withPath(err, fe.name)
			}
		default: // map key less than field key: unknown earlier key
			return newErr(UnknownField, "", fmt.Errorf("unexpected key %s", displayKey(m[idx].Key)))
		}
	}

	if idx < len(m) && !sc.allowUnknown {
		return newErr(UnknownField, "", fmt.Errorf("unexpected key %s", displayKey(m[idx].Key)))
	}

	for _, fe := range sc.fields {
		if fe.skip {
			if err := decodeDefault(Null, rv.Field(fe.goIndex)); err != nil {
				return withPath(err, fe.name)
			}
		}
	}
	return nil
}

func displayKey(v Value) string {
	switch tv := v.(type) {
	case TextString:
		return string(tv)
	case Unsigned:
		return uintToString(uint64(tv))
	default:
		return fmt.Sprintf("%v", v)
	}
}
