package cbor

import (
	"fmt"
	"math/big"
	"reflect"
)

// Marshaler is implemented by types that encode themselves directly,
// bypassing struct/enum reflection. Grounded on the teacher's
// document.SmithyDocumentMarshaler pairing of an explicit marshal/unmarshal
// interface around an otherwise-opaque value.
type Marshaler interface {
	MarshalCBORValue() (Value, error)
}

// Unmarshaler is implemented by types that decode themselves directly from
// a Value, bypassing struct/enum reflection.
type Unmarshaler interface {
	UnmarshalCBORValue(Value) error
}

var (
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	bigIntType      = reflect.TypeOf(big.Int{})
	valueType       = reflect.TypeOf((*Value)(nil)).Elem()
	byteType        = reflect.TypeOf(byte(0))
)

// encodeReflect converts rv's dynamic value into a Value, dispatching
// (in order) to a Marshaler implementation, a registered struct/enum
// schema, or one of the built-in primitive bindings.
func encodeReflect(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null, nil
	}

	if rv.Type().Implements(marshalerType) {
		return rv.Interface().(Marshaler).MarshalCBORValue()
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalCBORValue()
	}

	if rv.Type().Implements(valueType) {
		switch rv.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			if rv.IsNil() {
				return Null, nil
			}
		}
		return rv.Interface().(Value), nil
	}

	if rv.Type() == bigIntType {
		return encodeBigUint(rv.Interface().(big.Int)), nil
	}

	if isRegisteredEnum(rv.Type()) {
		return encodeEnum(rv)
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return True, nil
		}
		return False, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Unsigned(rv.Uint()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n >= 0 {
			return Unsigned(uint64(n)), nil
		}
		return Negative(uint64(-(n + 1))), nil

	case reflect.String:
		return TextString(rv.String()), nil

	case reflect.Ptr:
		if rv.IsNil() {
			return Null, nil
		}
		return encodeReflect(rv.Elem())

	case reflect.Slice:
		if rv.Type().Elem() == byteType {
			if rv.IsNil() {
				return ByteString(nil), nil
			}
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return ByteString(b), nil
		}
		return encodeSequence(rv)

	case reflect.Array:
		if rv.Type().Elem() == byteType {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return ByteString(b), nil
		}
		return encodeSequence(rv)

	case reflect.Map:
		if rv.Type().Elem().Size() == 0 && rv.Type().Elem().Kind() == reflect.Struct {
			// set represented as map[T]struct{}
			return encodeSet(rv)
		}
		return encodeMap(rv)

	case reflect.Struct:
		return encodeStruct(rv)

	case reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}
		return encodeReflect(rv.Elem())

	default:
		return nil, fmt.Errorf("cbor: cannot encode kind %s", rv.Kind())
	}
}

func encodeSequence(rv reflect.Value) (Value, error) {
	out := make(Array, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := encodeReflect(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeMap(rv reflect.Value) (Value, error) {
	keys := rv.MapKeys()
	out := make(Map, 0, len(keys))
	for _, k := range keys {
		kv, err := encodeReflect(k)
		if err != nil {
			return nil, err
		}
		vv, err := encodeReflect(rv.MapIndex(k))
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry{Key: kv, Value: vv})
	}
	out.Sort()
	return out, nil
}

func encodeSet(rv reflect.Value) (Value, error) {
	keys := rv.MapKeys()
	out := make(Array, 0, len(keys))
	for _, k := range keys {
		kv, err := encodeReflect(k)
		if err != nil {
			return nil, err
		}
		out = append(out, kv)
	}
	sortArray(out)
	return out, nil
}

func sortArray(a Array) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && Less(a[j], a[j-1]); j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

func encodeBigUint(v big.Int) Value {
	return ByteString(v.Bytes())
}

// isNullValue reports whether v is the CBOR null simple value, the test
// used to decide whether an `optional` field is omitted on encode.
func isNullValue(v Value) bool {
	s, ok := v.(Simple)
	return ok && s == Null
}

// decodeReflect decodes v into the addressable rv, dispatching (in order)
// to an Unmarshaler implementation, a registered struct/enum schema, or a
// built-in primitive binding.
func decodeReflect(v Value, rv reflect.Value) error {
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalCBORValue(v)
	}

	if rv.Type() == valueType {
		rv.Set(reflect.ValueOf(v))
		return nil
	}

	if rv.Type().Implements(valueType) {
		if v == nil || !reflect.TypeOf(v).AssignableTo(rv.Type()) {
			return newErr(UnexpectedType, "", fmt.Errorf("expected %s, got %T", rv.Type(), v))
		}
		rv.Set(reflect.ValueOf(v))
		return nil
	}

	if rv.Type() == bigIntType {
		bi, err := decodeBigUint(v)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(bi))
		return nil
	}

	if isRegisteredEnum(rv.Type()) {
		return decodeEnum(v, rv)
	}

	switch rv.Kind() {
	case reflect.Bool:
		s, ok := v.(Simple)
		if !ok || (s != True && s != False) {
			return newErr(UnexpectedType, "", fmt.Errorf("expected bool, got %T", v))
		}
		rv.SetBool(s == True)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, ok := v.(Unsigned)
		if !ok {
			return newErr(UnexpectedType, "", fmt.Errorf("expected unsigned integer, got %T", v))
		}
		if !fitsUint(uint64(u), rv.Type().Bits()) {
			return newErr(UnexpectedIntegerSize, "", nil)
		}
		rv.SetUint(uint64(u))
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch tv := v.(type) {
		case Unsigned:
			if !fitsInt(int64(tv), rv.Type().Bits()) || int64(tv) < 0 {
				return newErr(UnexpectedIntegerSize, "", nil)
			}
			rv.SetInt(int64(tv))
			return nil
		case Negative:
			n := -1 - int64(tv)
			if int64(tv) < 0 || !fitsInt(n, rv.Type().Bits()) {
				return newErr(UnexpectedIntegerSize, "", nil)
			}
			rv.SetInt(n)
			return nil
		default:
			return newErr(UnexpectedType, "", fmt.Errorf("expected integer, got %T", v))
		}

	case reflect.String:
		s, ok := v.(TextString)
		if !ok {
			return newErr(UnexpectedType, "", fmt.Errorf("expected text string, got %T", v))
		}
		rv.SetString(string(s))
		return nil

	case reflect.Ptr:
		if isNullLike(v) {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		rv.Set(reflect.New(rv.Type().Elem()))
		return decodeReflect(v, rv.Elem())

	case reflect.Slice:
		if rv.Type().Elem() == byteType {
			b, ok := v.(ByteString)
			if !ok {
				return newErr(UnexpectedType, "", fmt.Errorf("expected byte string, got %T", v))
			}
			cp := make([]byte, len(b))
			copy(cp, b)
			rv.SetBytes(cp)
			return nil
		}
		return decodeSequenceIntoSlice(v, rv)

	case reflect.Array:
		if rv.Type().Elem() == byteType {
			b, ok := v.(ByteString)
			if !ok {
				return newErr(UnexpectedType, "", fmt.Errorf("expected byte string, got %T", v))
			}
			if len(b) != rv.Len() {
				return newErr(UnexpectedType, "", fmt.Errorf("byte array length %d does not match expected %d", len(b), rv.Len()))
			}
			reflect.Copy(rv, reflect.ValueOf([]byte(b)))
			return nil
		}
		return decodeSequenceIntoArray(v, rv)

	case reflect.Map:
		if rv.Type().Elem().Size() == 0 && rv.Type().Elem().Kind() == reflect.Struct {
			return decodeSet(v, rv)
		}
		return decodeMap(v, rv)

	case reflect.Struct:
		return decodeStruct(v, rv)

	default:
		return fmt.Errorf("cbor: cannot decode into kind %s", rv.Kind())
	}
}

func isNullLike(v Value) bool {
	s, ok := v.(Simple)
	return ok && (s == Null || s == Undefined)
}

// decodeDefault is the two-stage decode entry point: Null/Undefined recover
// the target's default (or fail MissingField if the type opts out via
// no_default), anything else decodes normally.
func decodeDefault(v Value, rv reflect.Value) error {
	if isNullLike(v) {
		if sc := lookupStructCodec(rv.Type()); sc != nil && sc.noDefault {
			return newErr(MissingField, "", fmt.Errorf("type %s has no default", rv.Type()))
		}
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	return decodeReflect(v, rv)
}

func decodeSequenceIntoSlice(v Value, rv reflect.Value) error {
	arr, ok := v.(Array)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array, got %T", v))
	}
	out := reflect.MakeSlice(rv.Type(), len(arr), len(arr))
	for i, e := range arr {
		if err := decodeReflect(e, out.Index(i)); err != nil {
			return withPath(err, fmt.Sprintf("[%d]", i))
		}
	}
	rv.Set(out)
	return nil
}

func decodeSequenceIntoArray(v Value, rv reflect.Value) error {
	arr, ok := v.(Array)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array, got %T", v))
	}
	if len(arr) != rv.Len() {
		return newErr(UnexpectedType, "", fmt.Errorf("array length %d does not match expected %d", len(arr), rv.Len()))
	}
	for i, e := range arr {
		if err := decodeReflect(e, rv.Index(i)); err != nil {
			return withPath(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

func decodeMap(v Value, rv reflect.Value) error {
	m, ok := v.(Map)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected map, got %T", v))
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(m))
	kt := rv.Type().Key()
	vt := rv.Type().Elem()
	for _, e := range m {
		kv := reflect.New(kt).Elem()
		if err := decodeReflect(e.Key, kv); err != nil {
			return err
		}
		vv := reflect.New(vt).Elem()
		if err := decodeReflect(e.Value, vv); err != nil {
			return err
		}
		out.SetMapIndex(kv, vv)
	}
	rv.Set(out)
	return nil
}

func decodeSet(v Value, rv reflect.Value) error {
	arr, ok := v.(Array)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array, got %T", v))
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(arr))
	kt := rv.Type().Key()
	for _, e := range arr {
		kv := reflect.New(kt).Elem()
		if err := decodeReflect(e, kv); err != nil {
			return err
		}
		out.SetMapIndex(kv, reflect.Zero(rv.Type().Elem()))
	}
	rv.Set(out)
	return nil
}

func decodeBigUint(v Value) (big.Int, error) {
	b, ok := v.(ByteString)
	if !ok {
		return big.Int{}, newErr(UnexpectedType, "", fmt.Errorf("expected byte string, got %T", v))
	}
	if len(b) > 16 {
		return big.Int{}, newErr(UnexpectedIntegerSize, "", fmt.Errorf("128-bit value exceeds 16 bytes"))
	}
	var bi big.Int
	bi.SetBytes(b)
	return bi, nil
}

func fitsUint(v uint64, bits int) bool {
	if bits >= 64 {
		return true
	}
	return v < (uint64(1) << uint(bits))
}

func fitsInt(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	max := int64(1) << uint(bits-1)
	return v >= -max && v < max
}
