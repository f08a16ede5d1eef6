package cbor

import (
	"fmt"
	"reflect"
)

// VariantKind distinguishes a unit variant (no payload) from every other
// variant shape (newtype, tuple, or struct) — which all reduce to "wraps
// exactly one Go value whose own codec determines the wire shape".
type VariantKind int

const (
	UnitVariant VariantKind = iota
	ValueVariant
)

// Variant describes one member of an enum interface registered with
// RegisterEnum. Sample must be a zero value of the concrete Go type that
// implements the enum interface for this variant; for a ValueVariant, that
// type's own encodeReflect/decodeReflect dispatch (struct, slice, or
// scalar) is reused verbatim as the payload codec.
type Variant struct {
	Name         string
	Rename       Key
	Sample       any
	Kind         VariantKind
	AsStruct     bool
	Skip         bool
	Embed        bool
	AllowUnknown bool
	Missing      bool
	Discriminant Value
}

type enumOptions struct {
	untagged bool
	tag      Key
	hasTag   bool
}

// EnumOption configures an enum type registered with RegisterEnum.
type EnumOption func(*enumOptions)

// Untagged encodes variants with no discriminator on the wire. Decoding an
// untagged enum is unsupported and fails at first use.
func Untagged() EnumOption { return func(o *enumOptions) { o.untagged = true } }

// TaggedBy selects internally-tagged encoding: every variant's map, except
// that of the variant marked Missing, gains one entry under key whose value
// identifies the variant.
func TaggedBy(key Key) EnumOption {
	return func(o *enumOptions) { o.tag = key; o.hasTag = true }
}

type variantEntry struct {
	v      Variant
	typ    reflect.Type
	key    Key
	isUnit bool
}

type enumCodec struct {
	ifaceType         reflect.Type
	untagged          bool
	hasTag            bool
	tag               Key
	variants          []*variantEntry
	missingVariant    *variantEntry
	buildErr          error
	decodeUnsupported error
}

// RegisterEnum attaches the variant set and type-level attributes to the
// enum interface T. Every concrete type a Variant.Sample names must
// implement T.
func RegisterEnum[T any](variants []Variant, opts ...EnumOption) {
	var eo enumOptions
	for _, o := range opts {
		o(&eo)
	}
	ifaceType := reflect.TypeOf((*T)(nil)).Elem()
	enumRegistry.Store(ifaceType, buildEnumCodec(ifaceType, variants, eo))
}

func buildEnumCodec(ifaceType reflect.Type, variants []Variant, eo enumOptions) *enumCodec {
	ec := &enumCodec{ifaceType: ifaceType, untagged: eo.untagged, hasTag: eo.hasTag, tag: eo.tag}

	if eo.untagged && eo.hasTag {
		ec.buildErr = fmt.Errorf("cbor: %s: untagged and tag are mutually exclusive", ifaceType)
		return ec
	}
	if eo.untagged {
		ec.decodeUnsupported = fmt.Errorf("cbor: %s: untagged enums cannot be decoded", ifaceType)
	}

	missingCount := 0
	for i := range variants {
		v := variants[i]
		ve := &variantEntry{v: v, isUnit: v.Kind == UnitVariant}
		if v.Rename.IsZero() {
			ve.key = StringKey(v.Name)
		} else {
			ve.key = v.Rename
		}
		ve.typ = reflect.TypeOf(v.Sample)

		if v.AsStruct && !ve.isUnit {
			ec.buildErr = fmt.Errorf("cbor: %s: as_struct only applies to unit variants (%s)", ifaceType, v.Name)
			return ec
		}
		if v.Embed && ve.isUnit {
			ec.buildErr = fmt.Errorf("cbor: %s: embed is rejected on unit variants (%s)", ifaceType, v.Name)
			return ec
		}
		if v.Embed && eo.hasTag {
			ec.buildErr = fmt.Errorf("cbor: %s: embed is rejected on internally tagged enums (%s)", ifaceType, v.Name)
			return ec
		}
		if v.Discriminant != nil && eo.hasTag {
			ec.buildErr = fmt.Errorf("cbor: %s: explicit discriminant is not applicable under tag mode (%s)", ifaceType, v.Name)
			return ec
		}
		if v.Missing {
			missingCount++
			ec.missingVariant = ve
			if !eo.hasTag {
				ec.buildErr = fmt.Errorf("cbor: %s: missing requires tag mode (%s)", ifaceType, v.Name)
				return ec
			}
		}
		if eo.hasTag && !ve.isUnit {
			sc := lookupStructCodec(ve.typ)
			if sc == nil || sc.buildErr != nil || sc.transparent || sc.arrayCarrier() {
				ec.buildErr = fmt.Errorf("cbor: %s: variant %s must encode as a map under tag mode", ifaceType, v.Name)
				return ec
			}
		}

		ec.variants = append(ec.variants, ve)
	}

	if missingCount > 1 {
		ec.buildErr = fmt.Errorf("cbor: %s: more than one variant marked missing", ifaceType)
		return ec
	}
	if ec.missingVariant != nil && ec.untagged {
		ec.buildErr = fmt.Errorf("cbor: %s: missing is rejected on untagged enums", ifaceType)
		return ec
	}

	return ec
}

func (ec *enumCodec) findByType(t reflect.Type) *variantEntry {
	for _, ve := range ec.variants {
		if ve.typ == t {
			return ve
		}
	}
	return nil
}

func (ec *enumCodec) keyValue(ve *variantEntry) Value {
	if ve.v.Discriminant != nil {
		return ve.v.Discriminant
	}
	return ve.key.Value()
}

func encodeEnum(rv reflect.Value) (Value, error) {
	ec := lookupEnumCodec(rv.Type())
	if ec.buildErr != nil {
		return nil, ec.buildErr
	}
	if rv.IsNil() {
		return nil, fmt.Errorf("cbor: cannot encode nil %s", rv.Type())
	}

	concrete := rv.Elem()
	ve := ec.findByType(concrete.Type())
	if ve == nil {
		return nil, fmt.Errorf("cbor: %s: value of type %s is not a registered variant", rv.Type(), concrete.Type())
	}

	if ve.v.Skip {
		return Undefined, nil
	}
	if ve.isUnit {
		return wrapVariant(ec, ve, Map{})
	}

	inner, err := encodeReflect(concrete)
	if err != nil {
		return nil, err
	}
	return wrapVariant(ec, ve, inner)
}

// wrapVariant applies the enum's tagging mode to a variant's already-encoded
// inner value. inner is Map{} for unit variants (the as_struct / tag-mode
// shape) and whatever the payload type produced otherwise.
func wrapVariant(ec *enumCodec, ve *variantEntry, inner Value) (Value, error) {
	bareUnit := ve.isUnit && !ve.v.AsStruct && !ec.hasTag

	if ec.untagged {
		if bareUnit {
			return Null, nil
		}
		return inner, nil
	}

	if ec.hasTag {
		m, ok := inner.(Map)
		if !ok {
			return nil, fmt.Errorf("cbor: %s: variant %s does not encode as a map", ec.ifaceType, ve.v.Name)
		}
		if ve.v.Missing {
			return m, nil
		}
		out := make(Map, len(m), len(m)+1)
		copy(out, m)
		out = append(out, MapEntry{Key: ec.tag.Value(), Value: ec.keyValue(ve)})
		out.Sort()
		return out, nil
	}

	if bareUnit {
		return ec.keyValue(ve), nil
	}
	return Map{{Key: ec.keyValue(ve), Value: inner}}, nil
}

func decodeEnum(v Value, rv reflect.Value) error {
	ec := lookupEnumCodec(rv.Type())
	if ec.buildErr != nil {
		return ec.buildErr
	}
	if ec.decodeUnsupported != nil {
		return newErr(UnknownField, "", ec.decodeUnsupported)
	}

	if ec.hasTag {
		return decodeInternallyTagged(ec, v, rv)
	}
	return decodeExternallyTagged(ec, v, rv)
}

func decodeExternallyTagged(ec *enumCodec, v Value, rv reflect.Value) error {
	var key, inner Value
	isMapSplit := false
	if m, ok := v.(Map); ok && len(m) == 1 {
		key, inner = m[0].Key, m[0].Value
		isMapSplit = true
	}

	if isMapSplit {
		for _, ve := range ec.variants {
			if ve.isUnit || ve.v.Skip || ve.v.Embed {
				continue
			}
			if Equal(key, ec.keyValue(ve)) {
				return decodeValueVariantInto(ve, inner, rv)
			}
		}
	}

	for _, ve := range ec.variants {
		if !ve.isUnit || ve.v.Skip {
			continue
		}
		if Equal(v, ec.keyValue(ve)) {
			return setEnumValue(rv, ve)
		}
		if ve.v.AsStruct && isMapSplit && Equal(key, ec.keyValue(ve)) {
			if m, ok := inner.(Map); ok && len(m) == 0 {
				return setEnumValue(rv, ve)
			}
		}
	}

	if isMapSplit {
		for _, ve := range ec.variants {
			if !ve.v.Embed || ve.isUnit || ve.v.Skip {
				continue
			}
			wrapped := Map{{Key: key, Value: inner}}
			if err := decodeValueVariantInto(ve, wrapped, rv); err == nil {
				return nil
			}
		}
	}

	return newErr(UnknownField, "", fmt.Errorf("no variant of %s matches", ec.ifaceType))
}

func decodeInternallyTagged(ec *enumCodec, v Value, rv reflect.Value) error {
	m, ok := v.(Map)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected map, got %T", v))
	}

	var discriminator Value = Undefined
	found := false
	rest := make(Map, 0, len(m))
	for _, e := range m {
		if !found && Equal(e.Key, ec.tag.Value()) {
			discriminator = e.Value
			found = true
			continue
		}
		rest = append(rest, e)
	}

	for _, ve := range ec.variants {
		if ve.v.Skip || ve.v.Missing {
			continue
		}
		if Equal(discriminator, ec.keyValue(ve)) {
			if ve.isUnit {
				return setEnumValue(rv, ve)
			}
			return decodeValueVariantInto(ve, rest, rv)
		}
	}

	if ec.missingVariant != nil && isUndefinedValue(discriminator) {
		if ec.missingVariant.isUnit {
			return setEnumValue(rv, ec.missingVariant)
		}
		return decodeValueVariantInto(ec.missingVariant, rest, rv)
	}

	return newErr(UnknownField, "", fmt.Errorf("discriminator matches no variant of %s", ec.ifaceType))
}

func decodeValueVariantInto(ve *variantEntry, inner Value, rv reflect.Value) error {
	nv := reflect.New(ve.typ).Elem()
	if err := decodeDefault(inner, nv); err != nil {
		return err
	}
	rv.Set(nv)
	return nil
}

func setEnumValue(rv reflect.Value, ve *variantEntry) error {
	rv.Set(reflect.New(ve.typ).Elem())
	return nil
}

func isUndefinedValue(v Value) bool {
	s, ok := v.(Simple)
	return ok && s == Undefined
}
