package beans

import (
	"encoding"
	"fmt"
	"reflect"
)

var (
	errorType           = reflect.TypeFor[error]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Adapter converts values of one type to and from a single string. A type
// with an adapter is written as a document string instead of an object.
type Adapter struct {
	Decode func(string) (any, error)
	Encode func(any) (string, error)
}

// TextAdapter builds an Adapter from typed conversion functions.
func TextAdapter[T any](parse func(string) (T, error), format func(T) string) Adapter {
	return Adapter{
		Decode: func(s string) (any, error) {
			return parse(s)
		},
		Encode: func(v any) (string, error) {
			t, ok := v.(T)
			if !ok {
				return "", fmt.Errorf("adapter for %s given %T", reflect.TypeFor[T](), v)
			}
			return format(t), nil
		},
	}
}

// noAdapter is the cached result of a lookup that found nothing.
var noAdapter = &Adapter{}

// AdapterFor returns the adapter of t, or nil. Registered adapters win
// over encoding.TextMarshaler/TextUnmarshaler implementations. Results are
// cached per type, including the absence of an adapter.
func (m *Mapper) AdapterFor(t reflect.Type) *Adapter {
	t = baseType(t)
	if a, ok := m.adapterCache.Load(t); ok {
		return present(a.(*Adapter))
	}
	a, _ := m.adapterCache.LoadOrStore(t, m.lookupAdapter(t))
	return present(a.(*Adapter))
}

func present(a *Adapter) *Adapter {
	if a == noAdapter {
		return nil
	}
	return a
}

func (m *Mapper) lookupAdapter(t reflect.Type) *Adapter {
	if a, ok := m.adapters[t]; ok {
		return &a
	}
	if t.Kind() == reflect.Interface {
		return noAdapter
	}
	pt := reflect.PointerTo(t)
	if !pt.Implements(textUnmarshalerType) {
		return noAdapter
	}
	if !t.Implements(textMarshalerType) && !pt.Implements(textMarshalerType) {
		return noAdapter
	}
	return &Adapter{
		Decode: func(s string) (any, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return p.Elem().Interface(), nil
		},
		Encode: func(v any) (string, error) {
			rv := reflect.ValueOf(v)
			if !rv.IsValid() {
				return "", fmt.Errorf("nil %s", t)
			}
			tm, ok := v.(encoding.TextMarshaler)
			if !ok {
				tm = addr(rv).Interface().(encoding.TextMarshaler)
			}
			d, err := tm.MarshalText()
			if err != nil {
				return "", err
			}
			return string(d), nil
		},
	}
}
