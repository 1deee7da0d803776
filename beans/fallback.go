package beans

import (
	"bytes"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/go-json-experiment/json"

	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/stream"
)

// Fallback encodes and decodes the values that are not beans: scalars,
// slices, arrays, maps, document nodes, types handling their own document
// form and ignored types. Container elements go back through the Encoder
// or Decoder.
type Fallback interface {
	DecodeValue(d *Decoder, t reflect.Type) (reflect.Value, error)
	EncodeValue(e *Encoder, v reflect.Value) error
}

// IRMarshaler is implemented by types producing their own document form.
type IRMarshaler interface {
	ToIR() (*ir.Node, error)
}

// IRUnmarshaler is implemented by types reading their own document form.
type IRUnmarshaler interface {
	FromIR(*ir.Node) error
}

var (
	irNodeType        = reflect.TypeFor[ir.Node]()
	irMarshalerType   = reflect.TypeFor[IRMarshaler]()
	irUnmarshalerType = reflect.TypeFor[IRUnmarshaler]()
)

func handlesIR(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(irMarshalerType) || pt.Implements(irMarshalerType) || pt.Implements(irUnmarshalerType)
}

type defaultFallback struct{}

func (defaultFallback) EncodeValue(e *Encoder, v reflect.Value) error {
	if !v.IsValid() {
		return e.write(stream.Event{Type: stream.EventNull})
	}
	t := v.Type()
	switch {
	case t == irNodeType || t == reflect.PointerTo(irNodeType):
		return stream.WriteNode(e.Sink(), addr(reflect.Indirect(v)).Interface().(*ir.Node))
	case t.Implements(irMarshalerType) || reflect.PointerTo(t).Implements(irMarshalerType):
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return e.write(stream.Event{Type: stream.EventNull})
		}
		var m IRMarshaler
		if t.Implements(irMarshalerType) {
			m = v.Interface().(IRMarshaler)
		} else {
			m = addr(v).Interface().(IRMarshaler)
		}
		node, err := m.ToIR()
		if err != nil {
			return fmt.Errorf("encode %s at %s: %w", t, e.Location(), err)
		}
		return stream.WriteNode(e.Sink(), node)
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return e.write(stream.Event{Type: stream.EventNull})
		}
		return defaultFallback{}.EncodeValue(e, v.Elem())
	case reflect.String:
		return e.write(stream.Event{Type: stream.EventString, String: v.String()})
	case reflect.Bool:
		return e.write(stream.Event{Type: stream.EventBool, Bool: v.Bool()})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.write(stream.Event{Type: stream.EventInt, Int: v.Int()})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return e.write(stream.Event{Type: stream.EventFloat, Float: float64(u)})
		}
		return e.write(stream.Event{Type: stream.EventInt, Int: int64(u)})
	case reflect.Float32, reflect.Float64:
		return e.write(stream.Event{Type: stream.EventFloat, Float: v.Float()})
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice {
			if v.IsNil() {
				return e.write(stream.Event{Type: stream.EventNull})
			}
			key, err := e.enter(v)
			if err != nil {
				return err
			}
			defer e.leave(key)
		}
		if err := e.write(stream.Event{Type: stream.EventBeginArray}); err != nil {
			return err
		}
		for i := range v.Len() {
			if err := e.EncodeAt(ir.PathIndex(i), v.Index(i)); err != nil {
				return err
			}
		}
		return e.write(stream.Event{Type: stream.EventEndArray})
	case reflect.Map:
		if v.IsNil() {
			return e.write(stream.Event{Type: stream.EventNull})
		}
		key, err := e.enter(v)
		if err != nil {
			return err
		}
		defer e.leave(key)
		return encodeMap(e, v)
	case reflect.Struct:
		return encodeJSON(e, v)
	default:
		return fmt.Errorf("encode %s at %s: unsupported kind %s", t, e.Location(), v.Kind())
	}
}

// visitKey identifies a pointer, slice or map being encoded. A slice
// shares its address with its first element and a struct with its first
// field, so the type and, for slices, the length are part of the key.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// enter records v as being encoded, failing if it already is.
func (e *Encoder) enter(v reflect.Value) (visitKey, error) {
	key := visitKey{ptr: v.Pointer(), typ: v.Type()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if e.visiting[key] {
		return key, fmt.Errorf("%w at %s", ErrCycle, e.Location())
	}
	e.visiting[key] = true
	return key, nil
}

func (e *Encoder) leave(key visitKey) {
	delete(e.visiting, key)
}

func mapKey(k reflect.Value) (string, error) {
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		d, err := tm.MarshalText()
		return string(d), err
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("unsupported map key type %s", k.Type())
}

// encodeMap writes the entries of a map in ascending key order, except
// that a type tag entry is written first.
func encodeMap(e *Encoder, v reflect.Value) error {
	type entry struct {
		key string
		val reflect.Value
	}
	var entries []entry
	iter := v.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return fmt.Errorf("encode at %s: %w", e.Location(), err)
		}
		entries = append(entries, entry{key: k, val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.key == b.key:
			return 0
		case a.key == ir.TypeTagKey:
			return -1
		case b.key == ir.TypeTagKey:
			return 1
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	if err := e.write(stream.Event{Type: stream.EventBeginObject}); err != nil {
		return err
	}
	for _, ent := range entries {
		if err := e.write(stream.Event{Type: stream.EventKey, Key: ent.key}); err != nil {
			return err
		}
		if err := e.EncodeAt(ir.PathField(ent.key), ent.val); err != nil {
			return err
		}
	}
	return e.write(stream.Event{Type: stream.EventEndObject})
}

// encodeJSON writes ignored struct values the way the json package
// marshals them.
func encodeJSON(e *Encoder, v reflect.Value) error {
	d, err := json.Marshal(v.Interface())
	if err != nil {
		return fmt.Errorf("encode %s at %s: %w", v.Type(), e.Location(), err)
	}
	return stream.Copy(e.Sink(), stream.NewDecoder(bytes.NewReader(d)))
}

func (f defaultFallback) DecodeValue(d *Decoder, t reflect.Type) (reflect.Value, error) {
	ev, err := d.peek()
	if err != nil {
		return reflect.Value{}, err
	}
	if ev.Type == stream.EventNull {
		if _, err := d.read(); err != nil {
			return reflect.Value{}, err
		}
		return reflect.Zero(t), nil
	}
	loc := d.Location()
	bt := baseType(t)
	switch {
	case bt == irNodeType:
		node, err := stream.ReadNode(d.Source())
		if err != nil {
			return reflect.Value{}, err
		}
		v, _ := fit(reflect.ValueOf(node), t)
		return v, nil
	case reflect.PointerTo(bt).Implements(irUnmarshalerType):
		node, err := stream.ReadNode(d.Source())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(bt)
		if err := p.Interface().(IRUnmarshaler).FromIR(node); err != nil {
			return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Err: err}
		}
		v, _ := fit(p.Elem(), t)
		return v, nil
	}
	if t.Kind() == reflect.Pointer {
		inner, err := f.DecodeValue(d, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		return addr(inner), nil
	}
	if ev.Type == stream.EventString && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		if _, err := d.read(); err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(ev.String)); err != nil {
			return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Err: err}
		}
		return p.Elem(), nil
	}
	shape := func(want string) error {
		return &DocumentShapeError{Location: loc, Expected: want, Got: ev.Type.String()}
	}
	res := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		if ev.Type != stream.EventString {
			return reflect.Value{}, shape("string")
		}
		res.SetString(ev.String)
	case reflect.Bool:
		if ev.Type != stream.EventBool {
			return reflect.Value{}, shape("bool")
		}
		res.SetBool(ev.Bool)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := integer(ev)
		if !ok || res.OverflowInt(i) {
			return reflect.Value{}, shape(t.String())
		}
		res.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := integer(ev)
		if !ok || i < 0 || res.OverflowUint(uint64(i)) {
			return reflect.Value{}, shape(t.String())
		}
		res.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		switch ev.Type {
		case stream.EventInt:
			res.SetFloat(float64(ev.Int))
		case stream.EventFloat:
			res.SetFloat(ev.Float)
		default:
			return reflect.Value{}, shape("number")
		}
	case reflect.Slice:
		return decodeSliceValue(d, t, loc)
	case reflect.Array:
		return decodeArrayValue(d, t, loc)
	case reflect.Map:
		return decodeMapValue(d, t, loc)
	case reflect.Interface:
		return decodeInterfaceValue(d, t, loc)
	case reflect.Struct:
		return decodeJSONValue(d, t, loc)
	default:
		return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Message: "unsupported kind " + t.Kind().String()}
	}
	if _, err := d.read(); err != nil {
		return reflect.Value{}, err
	}
	return res, nil
}

func integer(ev *stream.Event) (int64, bool) {
	switch ev.Type {
	case stream.EventInt:
		return ev.Int, true
	case stream.EventFloat:
		if ev.Float == math.Trunc(ev.Float) && math.Abs(ev.Float) < 1<<63 {
			return int64(ev.Float), true
		}
	}
	return 0, false
}

func expectEvent(d *Decoder, et stream.EventType, loc string) error {
	ev, err := d.read()
	if err != nil {
		return err
	}
	if ev.Type != et {
		want := "array"
		if et == stream.EventBeginObject {
			want = "object"
		}
		return &DocumentShapeError{Location: loc, Expected: want, Got: ev.Type.String()}
	}
	return nil
}

// elements decodes array elements with f until the end of the array.
func elements(d *Decoder, f func(i int) error) error {
	for i := 0; ; i++ {
		ev, err := d.peek()
		if err != nil {
			return err
		}
		if ev.Type == stream.EventEndArray {
			_, err := d.read()
			return err
		}
		if err := f(i); err != nil {
			return err
		}
	}
}

func decodeSliceValue(d *Decoder, t reflect.Type, loc string) (reflect.Value, error) {
	if err := expectEvent(d, stream.EventBeginArray, loc); err != nil {
		return reflect.Value{}, err
	}
	res := reflect.MakeSlice(t, 0, 0)
	err := elements(d, func(int) error {
		v, err := d.Decode(t.Elem())
		if err != nil {
			return err
		}
		res = reflect.Append(res, v)
		return nil
	})
	return res, err
}

func decodeArrayValue(d *Decoder, t reflect.Type, loc string) (reflect.Value, error) {
	if err := expectEvent(d, stream.EventBeginArray, loc); err != nil {
		return reflect.Value{}, err
	}
	res := reflect.New(t).Elem()
	err := elements(d, func(i int) error {
		if i >= t.Len() {
			return &DocumentShapeError{Location: d.Location(), Expected: fmt.Sprintf("at most %d elements", t.Len()), Got: "more"}
		}
		v, err := d.Decode(t.Elem())
		if err != nil {
			return err
		}
		res.Index(i).Set(v)
		return nil
	})
	return res, err
}

func decodeMapKey(kt reflect.Type, s string) (reflect.Value, error) {
	if reflect.PointerTo(kt).Implements(textUnmarshalerType) {
		p := reflect.New(kt)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}
	k := reflect.New(kt).Elem()
	switch kt.Kind() {
	case reflect.String:
		k.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		k.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		k.SetUint(u)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported map key type %s", kt)
	}
	return k, nil
}

func decodeMapValue(d *Decoder, t reflect.Type, loc string) (reflect.Value, error) {
	if err := expectEvent(d, stream.EventBeginObject, loc); err != nil {
		return reflect.Value{}, err
	}
	res := reflect.MakeMap(t)
	for {
		ev, err := d.read()
		if err != nil {
			return reflect.Value{}, err
		}
		if ev.Type == stream.EventEndObject {
			return res, nil
		}
		k, err := decodeMapKey(t.Key(), ev.Key)
		if err != nil {
			return reflect.Value{}, &ConstructionError{Location: d.Location(), Type: t, Message: "map key", Err: err}
		}
		v, err := d.Decode(t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		res.SetMapIndex(k, v)
	}
}

// decodeInterfaceValue reads scalars and arrays into an interface slot:
// string, int64, float64, bool and []any.
func decodeInterfaceValue(d *Decoder, t reflect.Type, loc string) (reflect.Value, error) {
	ev, err := d.peek()
	if err != nil {
		return reflect.Value{}, err
	}
	var v reflect.Value
	switch ev.Type {
	case stream.EventBeginObject:
		return d.decodeBean(t)
	case stream.EventBeginArray:
		v, err = decodeSliceValue(d, reflect.TypeFor[[]any](), loc)
		if err != nil {
			return reflect.Value{}, err
		}
	default:
		if _, err := d.read(); err != nil {
			return reflect.Value{}, err
		}
		switch ev.Type {
		case stream.EventString:
			v = reflect.ValueOf(ev.String)
		case stream.EventInt:
			v = reflect.ValueOf(ev.Int)
		case stream.EventFloat:
			v = reflect.ValueOf(ev.Float)
		case stream.EventBool:
			v = reflect.ValueOf(ev.Bool)
		default:
			return reflect.Value{}, &DocumentShapeError{Location: loc, Expected: "value", Got: ev.Type.String()}
		}
	}
	res, ok := fit(v, t)
	if !ok {
		return reflect.Value{}, &DocumentShapeError{Location: loc, Expected: t.String(), Got: ev.Type.String()}
	}
	return res, nil
}

// decodeJSONValue reads ignored struct types the way the json package
// unmarshals them.
func decodeJSONValue(d *Decoder, t reflect.Type, loc string) (reflect.Value, error) {
	var buf bytes.Buffer
	if err := stream.Copy(stream.NewEncoder(&buf), d.Source()); err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(t)
	if err := json.Unmarshal(buf.Bytes(), p.Interface()); err != nil {
		return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Err: err}
	}
	return p.Elem(), nil
}
