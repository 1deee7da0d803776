package beans

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/stream"
)

// Encoder is the state of one encode call, including the stack of
// expected types that decides when a type tag is needed. It is handed to
// the Fallback codec so that container elements are encoded by the mapper
// again.
type Encoder struct {
	m        *Mapper
	dst      stream.Sink
	omitTag  bool
	depth    int
	expect   []expectation
	path     []string
	visiting map[visitKey]bool
}

// expectation declares typ for the value encoded at depth+1. When typ is
// a slice, array or map, it declares the element type for the values one
// level further down, and so on.
type expectation struct {
	typ   reflect.Type
	depth int
}

func (e *Encoder) push(t reflect.Type) {
	e.expect = append(e.expect, expectation{typ: t, depth: e.depth})
}

func (e *Encoder) pop() {
	e.expect = e.expect[:len(e.expect)-1]
}

// expected returns the type declared for the value being encoded.
func (e *Encoder) expected() (reflect.Type, bool) {
	if len(e.expect) == 0 {
		return nil, false
	}
	x := e.expect[len(e.expect)-1]
	t := x.typ
	for range e.depth - x.depth - 1 {
		t = baseType(t)
		switch t.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		default:
			return nil, false
		}
	}
	return t, true
}

// Sink returns the event sink being written.
func (e *Encoder) Sink() stream.Sink { return e.dst }

// Mapper returns the mapper running the encode.
func (e *Encoder) Mapper() *Mapper { return e.m }

// Location describes the current document position.
func (e *Encoder) Location() string {
	return "$" + strings.Join(e.path, "")
}

func (e *Encoder) write(ev stream.Event) error {
	return e.dst.WriteEvent(&ev)
}

// EncodeAt encodes v as the child of the current value at the given path
// segment, such as ir.PathIndex(i).
func (e *Encoder) EncodeAt(segment string, v reflect.Value) error {
	e.path = append(e.path, segment)
	defer func() { e.path = e.path[:len(e.path)-1] }()
	return e.Encode(v)
}

// Encode writes v.
func (e *Encoder) Encode(v reflect.Value) error {
	e.depth++
	defer func() { e.depth-- }()

	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return e.m.fallback.EncodeValue(e, v)
	}
	bt := baseType(v.Type())
	if e.m.ignored[bt] {
		return e.m.fallback.EncodeValue(e, v)
	}
	if a := e.m.AdapterFor(bt); a != nil {
		s, err := a.Encode(reflect.Indirect(indirect(v)).Interface())
		if err != nil {
			return fmt.Errorf("encode %s at %s: %w", bt, e.Location(), err)
		}
		return e.write(stream.Event{Type: stream.EventString, String: s})
	}
	if e.m.isFallback(bt) {
		return e.m.fallback.EncodeValue(e, v)
	}
	return e.encodeBean(v, bt)
}

// indirect strips all but the last pointer.
func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v
}

// encodeBean writes v as an object: the type tag when the expected type
// does not already name bt, then every readable, non-transient property.
// A bean with no readable properties is still an object, holding only the
// tag or nothing, so the key that led to it always has a value.
func (e *Encoder) encodeBean(v reflect.Value, bt reflect.Type) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return e.write(stream.Event{Type: stream.EventNull})
		}
		key, err := e.enter(v)
		if err != nil {
			return err
		}
		defer e.leave(key)
		v = v.Elem()
	}
	if bt.Kind() != reflect.Struct {
		return withLocation(&UncatalogableError{Type: bt, Message: fmt.Sprintf("%s is not a struct", bt.Kind())}, e.Location())
	}
	cat, err := e.m.Properties(bt)
	if err != nil {
		return withLocation(err, e.Location())
	}
	if !v.CanAddr() {
		c := reflect.New(bt).Elem()
		c.Set(v)
		v = c
	}

	if err := e.write(stream.Event{Type: stream.EventBeginObject}); err != nil {
		return err
	}
	if exp, ok := e.expected(); ok && !e.omitTag && bt != e.m.concrete(exp) {
		if err := e.write(stream.Event{Type: stream.EventKey, Key: ir.TypeTagKey}); err != nil {
			return err
		}
		if err := e.write(stream.Event{Type: stream.EventString, String: e.m.TagFor(bt)}); err != nil {
			return err
		}
	}
	for _, p := range cat.Properties() {
		if !p.Readable() || p.Transient {
			continue
		}
		val, err := p.Get(v)
		if err != nil {
			e.m.log.Warn("property read failed",
				zap.Stringer("type", bt),
				zap.String("property", p.Name),
				zap.String("location", e.Location()),
				zap.Error(err))
			continue
		}
		if err := e.write(stream.Event{Type: stream.EventKey, Key: p.Name}); err != nil {
			return err
		}
		if err := e.property(p, val); err != nil {
			return err
		}
	}
	return e.write(stream.Event{Type: stream.EventEndObject})
}

// property encodes a property value under the expectation of its
// declared type; the expectation is removed whatever the outcome.
func (e *Encoder) property(p *Property, val reflect.Value) error {
	e.push(p.Type)
	defer e.pop()
	return e.EncodeAt(ir.PathField(p.Name), val)
}

// Encode writes v to dst.
func (m *Mapper) Encode(dst stream.Sink, v any, opts ...EncodeOption) error {
	e := &Encoder{
		m:        m,
		dst:      dst,
		omitTag:  m.omitTag,
		visiting: map[visitKey]bool{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e.Encode(reflect.ValueOf(v))
}

// Marshal encodes v as JSON.
func (m *Mapper) Marshal(v any, opts ...EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(stream.NewEncoder(&buf), v, opts...); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ToIR encodes v as a document node.
func (m *Mapper) ToIR(v any, opts ...EncodeOption) (*ir.Node, error) {
	b := stream.NewNodeBuilder()
	if err := m.Encode(b, v, opts...); err != nil {
		return nil, err
	}
	return b.Node(), nil
}
