package beans

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/stream"
)

var anyType = reflect.TypeFor[any]()

// Decoder is the state of one decode call. It is handed to the Fallback
// codec so that container elements are decoded by the mapper again.
type Decoder struct {
	m   *Mapper
	src stream.Source
}

// Source returns the event source being decoded.
func (d *Decoder) Source() stream.Source { return d.src }

// Mapper returns the mapper running the decode.
func (d *Decoder) Mapper() *Mapper { return d.m }

// Location describes the current document position.
func (d *Decoder) Location() string { return d.src.Location() }

func (d *Decoder) peek() (*stream.Event, error) {
	ev, err := d.src.PeekEvent()
	if errors.Is(err, io.EOF) {
		return nil, &DocumentShapeError{Location: d.Location(), Expected: "value", Got: "end of input"}
	}
	return ev, err
}

func (d *Decoder) read() (*stream.Event, error) {
	ev, err := d.src.ReadEvent()
	if errors.Is(err, io.EOF) {
		return nil, &DocumentShapeError{Location: d.Location(), Expected: "value", Got: "end of input"}
	}
	return ev, err
}

// Decode reads the next value as an instance of t.
func (d *Decoder) Decode(t reflect.Type) (reflect.Value, error) {
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
	bt := baseType(t)
	if d.m.ignored[bt] {
		return d.m.fallback.DecodeValue(d, t)
	}
	if ev.Type == stream.EventString {
		if a := d.m.AdapterFor(bt); a != nil {
			return d.adapt(a, t)
		}
	}
	if d.m.isFallback(bt) || (bt.Kind() == reflect.Interface && ev.Type != stream.EventBeginObject) {
		return d.m.fallback.DecodeValue(d, t)
	}
	return d.decodeBean(t)
}

func (d *Decoder) adapt(a *Adapter, t reflect.Type) (reflect.Value, error) {
	loc := d.Location()
	ev, err := d.read()
	if err != nil {
		return reflect.Value{}, err
	}
	x, err := a.Decode(ev.String)
	if err != nil {
		return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Message: "adapter", Err: err}
	}
	v, ok := fit(reflect.ValueOf(x), t)
	if !ok {
		return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Message: fmt.Sprintf("adapter returned %T", x)}
	}
	return v, nil
}

// decodeBean reads an object: an optional leading type tag, then the
// properties, then builds the instance.
func (d *Decoder) decodeBean(t reflect.Type) (reflect.Value, error) {
	loc := d.Location()
	ev, err := d.read()
	if err != nil {
		return reflect.Value{}, err
	}
	if ev.Type != stream.EventBeginObject {
		return reflect.Value{}, &DocumentShapeError{Location: loc, Expected: "object", Got: ev.Type.String()}
	}

	actual, unused, err := d.typeTag(t)
	if err != nil {
		return reflect.Value{}, err
	}
	bt := d.m.concrete(actual)
	if bt.Kind() == reflect.Interface {
		if bt.NumMethod() == 0 {
			return d.decodeMap(t, unused)
		}
		return reflect.Value{}, &ConstructionError{
			Location: loc,
			Type:     t,
			Message:  "no type tag and no default implementation",
		}
	}
	cat, err := d.m.Properties(bt)
	if err != nil {
		return reflect.Value{}, withLocation(err, loc)
	}

	props, order, err := d.properties(cat)
	if err != nil {
		return reflect.Value{}, err
	}
	obj, err := d.construct(cat, props, loc)
	if err != nil {
		return reflect.Value{}, err
	}
	for _, name := range order {
		val, ok := props[name]
		if !ok {
			continue
		}
		p := cat.Property(name)
		if !p.Writable() {
			return reflect.Value{}, &PropertyWriteError{
				Location: loc,
				Type:     bt,
				Property: name,
				Err:      errors.New("no write capability and no matching constructor"),
			}
		}
		if err := p.Set(obj, val); err != nil {
			return reflect.Value{}, &PropertyWriteError{Location: loc, Type: bt, Property: name, Err: err}
		}
	}
	res, ok := fit(obj, t)
	if !ok {
		return reflect.Value{}, &ConstructionError{Location: loc, Type: t, Message: fmt.Sprintf("%s does not fit", bt)}
	}
	return res, nil
}

// typeTag consumes a leading type tag and returns the type to build. A tag
// that cannot be used leaves t in force and is returned as unused.
func (d *Decoder) typeTag(t reflect.Type) (reflect.Type, string, error) {
	ev, err := d.peek()
	if err != nil {
		return nil, "", err
	}
	if ev.Type != stream.EventKey || ev.Key != ir.TypeTagKey {
		return t, "", nil
	}
	if _, err := d.read(); err != nil {
		return nil, "", err
	}
	loc := d.Location()
	ev, err = d.read()
	if err != nil {
		return nil, "", err
	}
	if ev.Type != stream.EventString {
		return nil, "", &DocumentShapeError{Location: loc, Expected: "string type tag", Got: ev.Type.String()}
	}
	tag := ev.String
	rt, ok := d.m.TypeFor(tag)
	if ok && assignable(rt, t) {
		return rt, "", nil
	}
	uerr := &UnresolvedTypeTagError{Location: loc, Tag: tag, Expected: t}
	if ok {
		uerr.Resolved = rt
	}
	d.m.log.Debug("type tag not used", zap.Error(uerr))
	return t, tag, nil
}

// decodeMap reads the rest of an object without a usable type into a
// map[string]any.
func (d *Decoder) decodeMap(t reflect.Type, tag string) (reflect.Value, error) {
	res := map[string]any{}
	if tag != "" {
		res[ir.TypeTagKey] = tag
	}
	for {
		ev, err := d.read()
		if err != nil {
			return reflect.Value{}, err
		}
		if ev.Type == stream.EventEndObject {
			break
		}
		val, err := d.Decode(anyType)
		if err != nil {
			return reflect.Value{}, err
		}
		res[ev.Key] = val.Interface()
	}
	v, _ := fit(reflect.ValueOf(res), t)
	return v, nil
}

// properties reads key/value pairs up to the end of the object. Each value
// is decoded at the declared type of its property.
func (d *Decoder) properties(cat *Catalog) (map[string]reflect.Value, []string, error) {
	props := map[string]reflect.Value{}
	var order []string
	adapter := d.m.AdapterFor(cat.Type)
	for {
		ev, err := d.read()
		if err != nil {
			return nil, nil, err
		}
		if ev.Type == stream.EventEndObject {
			return props, order, nil
		}
		if ev.Type != stream.EventKey {
			return nil, nil, &DocumentShapeError{Location: d.Location(), Expected: "key", Got: ev.Type.String()}
		}
		p := cat.Property(ev.Key)
		if p == nil {
			if d.m.skipUnknown {
				if err := stream.Skip(d.src); err != nil {
					return nil, nil, err
				}
				continue
			}
			return nil, nil, &UnknownPropertyError{Location: d.Location(), Type: cat.Type, Property: ev.Key}
		}
		val, err := d.Decode(p.Type)
		if err != nil {
			return nil, nil, err
		}
		if adapter != nil && val.Kind() == reflect.String {
			val = reinterpret(adapter, val, p.Type)
		}
		if _, seen := props[ev.Key]; !seen {
			order = append(order, ev.Key)
		}
		props[ev.Key] = val
	}
}

// reinterpret passes a string property value through the adapter of the
// enclosing type, keeping the result when it fits the property.
func reinterpret(a *Adapter, val reflect.Value, pt reflect.Type) reflect.Value {
	x, err := a.Decode(val.String())
	if err != nil {
		return val
	}
	xv := reflect.ValueOf(x)
	if !xv.IsValid() || !xv.Type().AssignableTo(pt) {
		return val
	}
	res := reflect.New(pt).Elem()
	res.Set(xv)
	return res
}

// construct builds the instance from the first constructor whose
// properties are all present, removing the consumed properties from props.
// With no matching constructor the instance starts as the zero value.
func (d *Decoder) construct(cat *Catalog, props map[string]reflect.Value, loc string) (reflect.Value, error) {
	for _, c := range cat.ctors {
		args, ok := bind(c, props)
		if !ok {
			continue
		}
		out, err := c.call(args)
		if err != nil {
			return reflect.Value{}, &ConstructionError{Location: loc, Type: cat.Type, Err: err}
		}
		for out.Kind() == reflect.Pointer {
			if out.IsNil() {
				return reflect.Value{}, &ConstructionError{Location: loc, Type: cat.Type, Message: "constructor returned nil"}
			}
			out = out.Elem()
		}
		d.m.log.Debug("constructor selected", zap.Stringer("type", cat.Type), zap.Strings("properties", c.names))
		for _, name := range c.names {
			delete(props, name)
		}
		if out.CanAddr() {
			return out, nil
		}
		obj := reflect.New(cat.Type).Elem()
		obj.Set(out)
		return obj, nil
	}
	if cat.requireCtor {
		return reflect.Value{}, &ConstructionError{
			Location: loc,
			Type:     cat.Type,
			Message:  fmt.Sprintf("no constructor binds the properties %v", keys(props)),
		}
	}
	return reflect.New(cat.Type).Elem(), nil
}

func bind(c *constructor, props map[string]reflect.Value) ([]reflect.Value, bool) {
	args := make([]reflect.Value, len(c.names))
	for i, name := range c.names {
		v, ok := props[name]
		if !ok {
			return nil, false
		}
		a, ok := fit(v, c.in[i])
		if !ok {
			return nil, false
		}
		args[i] = a
	}
	return args, true
}

func keys(props map[string]reflect.Value) []string {
	var res []string
	for k := range props {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Decode reads one value from src into v, which must be a non-nil pointer.
func (m *Mapper) Decode(src stream.Source, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("beans: decode into non-pointer or nil %T", v)
	}
	d := &Decoder{m: m, src: src}
	val, err := d.Decode(rv.Type().Elem())
	if err != nil {
		return err
	}
	rv.Elem().Set(val)
	return nil
}

// Unmarshal decodes one JSON document into v.
func (m *Mapper) Unmarshal(data []byte, v any) error {
	src := stream.NewDecoder(bytes.NewReader(data))
	if err := m.Decode(src, v); err != nil {
		return err
	}
	if _, err := src.ReadEvent(); !errors.Is(err, io.EOF) {
		if err != nil {
			return err
		}
		return &DocumentShapeError{Location: src.Location(), Expected: "end of input", Got: "trailing data"}
	}
	return nil
}

// FromIR decodes a document node into v.
func (m *Mapper) FromIR(node *ir.Node, v any) error {
	src, err := stream.NewNodeReader(node)
	if err != nil {
		return err
	}
	return m.Decode(src, v)
}
