package cbor

import (
	"reflect"
	"sync"

	"github.com/smithy-lang/cbor-schema/internal/cborlog"
)

// The schema for each user type is derived from its struct tags once and
// cached for the lifetime of the process, the same one-entry-per-type
// bookkeeping the teacher's TypeRegistry/RegistryEntry pair uses for
// shape metadata: build it once, key it by reflect.Type, reuse it.

var structRegistry sync.Map // reflect.Type -> *structCodec
var enumRegistry sync.Map  // reflect.Type -> *enumCodec
var fieldHookRegistry sync.Map // fieldHookKey -> FieldHooks

type fieldHookKey struct {
	typ   reflect.Type
	field string
}

// FieldHooks supplies the function-valued field options (skip_serializing_if,
// serialize_with, deserialize_with) that a struct tag cannot carry by
// itself. Register with RegisterFieldHooks before the owning type is first
// encoded or decoded.
type FieldHooks struct {
	SkipSerializingIf func(reflect.Value) bool
	SerializeWith     func(reflect.Value) (Value, error)
	DeserializeWith   func(Value) (reflect.Value, error)
}

// RegisterFieldHooks attaches FieldHooks to the named Go field of T.
func RegisterFieldHooks[T any](field string, hooks FieldHooks) {
	var zero T
	typ := reflect.TypeOf(zero)
	fieldHookRegistry.Store(fieldHookKey{typ: typ, field: field}, hooks)
}

func lookupFieldHooks(typ reflect.Type, field string) (FieldHooks, bool) {
	v, ok := fieldHookRegistry.Load(fieldHookKey{typ: typ, field: field})
	if !ok {
		return FieldHooks{}, false
	}
	return v.(FieldHooks), true
}

func lookupStructCodec(t reflect.Type) *structCodec {
	if t.Kind() != reflect.Struct {
		return nil
	}
	if v, ok := structRegistry.Load(t); ok {
		return v.(*structCodec)
	}
	pkgLogger.Logf(cborlog.Debug, "deriving default schema for %s (no RegisterStruct call seen)", t)
	sc := buildStructCodec(t, structOptions{})
	actual, _ := structRegistry.LoadOrStore(t, sc)
	return actual.(*structCodec)
}

func isRegisteredEnum(t reflect.Type) bool {
	if t.Kind() != reflect.Interface {
		return false
	}
	_, ok := enumRegistry.Load(t)
	return ok
}

func lookupEnumCodec(t reflect.Type) *enumCodec {
	v, ok := enumRegistry.Load(t)
	if !ok {
		return nil
	}
	return v.(*enumCodec)
}
