package cbor

import (
	"fmt"
	"reflect"
)

// OrderedMap preserves insertion order, unlike a plain Go map. Every Map
// this package emits is sorted on encode regardless (so an OrderedMap's
// wire form is identical to a hashed map's), but decoding into an
// OrderedMap keeps entries in the order they appeared on the wire, which
// for a strict decode is already canonical order — the one place
// insertion order actually matters is after decode.
type OrderedMap[K comparable, V any] struct {
	keys []K
	vals map[K]V
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{vals: make(map[K]V)}
}

// Set inserts or updates k. A new key is appended to the iteration order;
// updating an existing key leaves its position unchanged.
func (m *OrderedMap[K, V]) Set(k K, v V) {
	if m.vals == nil {
		m.vals = make(map[K]V)
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get looks up k.
func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *OrderedMap[K, V]) MarshalCBORValue() (Value, error) {
	out := make(Map, 0, len(m.keys))
	for _, k := range m.keys {
		kv, err := encodeReflect(reflect.ValueOf(k))
		if err != nil {
			return nil, err
		}
		vv, err := encodeReflect(reflect.ValueOf(m.vals[k]))
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry{Key: kv, Value: vv})
	}
	out.Sort()
	return out, nil
}

func (m *OrderedMap[K, V]) UnmarshalCBORValue(v Value) error {
	cm, ok := v.(Map)
	if !ok {
		return newErr(UnexpectedType, "", fmt.Errorf("expected map, got %T", v))
	}
	*m = OrderedMap[K, V]{vals: make(map[K]V, len(cm))}
	for _, e := range cm {
		var k K
		if err := decodeReflect(e.Key, reflect.ValueOf(&k).Elem()); err != nil {
			return err
		}
		var val V
		if err := decodeReflect(e.Value, reflect.ValueOf(&val).Elem()); err != nil {
			return err
		}
		m.Set(k, val)
	}
	return nil
}

// Tuple2 encodes as a fixed two-element Array, the fixed-arity tuple row
// of the primitive codec table.
type Tuple2[A, B any] struct {
	First  A
	Second B
}

func (t Tuple2[A, B]) MarshalCBORValue() (Value, error) {
	a, err := encodeReflect(reflect.ValueOf(&t.First).Elem())
	if err != nil {
		return nil, err
	}
	b, err := encodeReflect(reflect.ValueOf(&t.Second).Elem())
	if err != nil {
		return nil, err
	}
	return Array{a, b}, nil
}

func (t *Tuple2[A, B]) UnmarshalCBORValue(v Value) error {
	arr, ok := v.(Array)
	if !ok || len(arr) != 2 {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array of length 2, got %T", v))
	}
	if err := decodeReflect(arr[0], reflect.ValueOf(&t.First).Elem()); err != nil {
		return withPath(err, "[0]")
	}
	if err := decodeReflect(arr[1], reflect.ValueOf(&t.Second).Elem()); err != nil {
		return withPath(err, "[1]")
	}
	return nil
}

// Tuple3 encodes as a fixed three-element Array.
type Tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func (t Tuple3[A, B, C]) MarshalCBORValue() (Value, error) {
	a, err := encodeReflect(reflect.ValueOf(&t.First).Elem())
	if err != nil {
		return nil, err
	}
	b, err := encodeReflect(reflect.ValueOf(&t.Second).Elem())
	if err != nil {
		return nil, err
	}
	c, err := encodeReflect(reflect.ValueOf(&t.Third).Elem())
	if err != nil {
		return nil, err
	}
	return Array{a, b, c}, nil
}

func (t *Tuple3[A, B, C]) UnmarshalCBORValue(v Value) error {
	arr, ok := v.(Array)
	if !ok || len(arr) != 3 {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array of length 3, got %T", v))
	}
	if err := decodeReflect(arr[0], reflect.ValueOf(&t.First).Elem()); err != nil {
		return withPath(err, "[0]")
	}
	if err := decodeReflect(arr[1], reflect.ValueOf(&t.Second).Elem()); err != nil {
		return withPath(err, "[1]")
	}
	if err := decodeReflect(arr[2], reflect.ValueOf(&t.Third).Elem()); err != nil {
		return withPath(err, "[2]")
	}
	return nil
}

// Tuple4 encodes as a fixed four-element Array.
type Tuple4[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

func (t Tuple4[A, B, C, D]) MarshalCBORValue() (Value, error) {
	a, err := encodeReflect(reflect.ValueOf(&t.First).Elem())
	if err != nil {
		return nil, err
	}
	b, err := encodeReflect(reflect.ValueOf(&t.Second).Elem())
	if err != nil {
		return nil, err
	}
	c, err := encodeReflect(reflect.ValueOf(&t.Third).Elem())
	if err != nil {
		return nil, err
	}
	d, err := encodeReflect(reflect.ValueOf(&t.Fourth).Elem())
	if err != nil {
		return nil, err
	}
	return Array{a, b, c, d}, nil
}

func (t *Tuple4[A, B, C, D]) UnmarshalCBORValue(v Value) error {
	arr, ok := v.(Array)
	if !ok || len(arr) != 4 {
		return newErr(UnexpectedType, "", fmt.Errorf("expected array of length 4, got %T", v))
	}
	if err := decodeReflect(arr[0], reflect.ValueOf(&t.First).Elem()); err != nil {
		return withPath(err, "[0]")
	}
	if err := decodeReflect(arr[1], reflect.ValueOf(&t.Second).Elem()); err != nil {
		return withPath(err, "[1]")
	}
	if err := decodeReflect(arr[2], reflect.ValueOf(&t.Third).Elem()); err != nil {
		return withPath(err, "[2]")
	}
	if err := decodeReflect(arr[3], reflect.ValueOf(&t.Fourth).Elem()); err != nil {
		return withPath(err, "[3]")
	}
	return nil
}
