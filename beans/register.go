package beans

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// TypeSpec is the explicit registration of one type: constructor
// bindings, declared accessors, exclusions and, for interfaces, the
// default implementation.
type TypeSpec struct {
	typ         reflect.Type
	ctors       []*constructor
	accessors   []string
	exclude     []string
	impl        reflect.Type
	requireCtor bool
	errs        []error
}

// TypeOption configures a TypeSpec.
type TypeOption func(*TypeSpec)

// Type returns the registration of T.
//
//	beans.Type[ImmutablePoint](
//		beans.Constructor(NewPoint, "x", "y"),
//		beans.Constructor(NewNamedPoint, "name", "x", "y"),
//	)
func Type[T any](opts ...TypeOption) *TypeSpec {
	return TypeOf(reflect.TypeFor[T](), opts...)
}

// TypeOf is Type for a reflect.Type.
func TypeOf(t reflect.Type, opts ...TypeOption) *TypeSpec {
	spec := &TypeSpec{typ: baseType(t)}
	for _, opt := range opts {
		opt(spec)
	}
	know(spec.typ)
	return spec
}

// ReflectType returns the registered type.
func (s *TypeSpec) ReflectType() reflect.Type { return s.typ }

func (s *TypeSpec) err() error {
	return errors.Join(s.errs...)
}

func (s *TypeSpec) fail(format string, args ...any) {
	s.errs = append(s.errs, fmt.Errorf(format, args...))
}

type constructor struct {
	fn     reflect.Value
	names  []string
	in     []reflect.Type
	hasErr bool
}

func (c *constructor) String() string {
	return fmt.Sprintf("%s%v", c.fn.Type(), c.names)
}

// call invokes the constructor, turning a panic into an error.
func (c *constructor) call(args []reflect.Value) (res reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	out := c.fn.Call(args)
	if c.hasErr && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// Constructor binds a function building the type from the named
// properties. fn takes one parameter per name and returns the type, a
// pointer to it, optionally followed by an error.
func Constructor(fn any, names ...string) TypeOption {
	return func(s *TypeSpec) {
		fv := reflect.ValueOf(fn)
		if fv.Kind() != reflect.Func || fv.IsNil() {
			s.fail("constructor for %s: %T is not a function", s.typ, fn)
			return
		}
		ft := fv.Type()
		if ft.IsVariadic() || ft.NumIn() != len(names) {
			s.fail("constructor %s for %s: %d parameters, %d names", ft, s.typ, ft.NumIn(), len(names))
			return
		}
		switch {
		case ft.NumOut() == 1:
		case ft.NumOut() == 2 && ft.Out(1) == errorType:
		default:
			s.fail("constructor %s for %s: must return the type and an optional error", ft, s.typ)
			return
		}
		if baseType(ft.Out(0)) != s.typ {
			s.fail("constructor %s returns %s, not %s", ft, ft.Out(0), s.typ)
			return
		}
		c := &constructor{fn: fv, names: slices.Clone(names), hasErr: ft.NumOut() == 2}
		seen := map[string]bool{}
		for i, n := range names {
			if seen[n] {
				s.fail("constructor %s for %s: property %q named twice", ft, s.typ, n)
				return
			}
			seen[n] = true
			c.in = append(c.in, ft.In(i))
		}
		s.ctors = append(s.ctors, c)
	}
}

// Accessor declares read-only properties backed by getter methods: the
// property "value" is read by the method Value.
func Accessor(names ...string) TypeOption {
	return func(s *TypeSpec) {
		s.accessors = append(s.accessors, names...)
	}
}

// Exclude removes properties from the catalog.
func Exclude(names ...string) TypeOption {
	return func(s *TypeSpec) {
		s.exclude = append(s.exclude, names...)
	}
}

// RequireConstructor makes decoding fail when no constructor binding
// matches, instead of starting from the zero value.
func RequireConstructor() TypeOption {
	return func(s *TypeSpec) {
		s.requireCtor = true
	}
}

// Default names the concrete type decoded into an interface when the
// document carries no type tag. It is also the type that needs no tag
// when encoding into a slot of the interface type.
func Default[Impl any]() TypeOption {
	return func(s *TypeSpec) {
		impl := baseType(reflect.TypeFor[Impl]())
		if s.typ.Kind() != reflect.Interface {
			s.fail("default implementation for %s: not an interface", s.typ)
			return
		}
		if !impl.Implements(s.typ) && !reflect.PointerTo(impl).Implements(s.typ) {
			s.fail("default implementation %s does not implement %s", impl, s.typ)
			return
		}
		know(impl)
		s.impl = impl
	}
}
