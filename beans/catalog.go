package beans

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Property describes one serializable property of a type.
type Property struct {
	Name      string
	Type      reflect.Type
	Transient bool

	index  []int // struct field, or nil
	getter int   // method index on the pointer type, or -1
	setter int
	// getterErr is set when the getter returns (T, error).
	getterErr bool
	// bound lists the constructors consuming the property.
	bound int
}

// Readable reports whether the property has a read capability.
func (p *Property) Readable() bool { return p.index != nil || p.getter >= 0 }

// Writable reports whether the property can be assigned after construction.
func (p *Property) Writable() bool { return p.index != nil || p.setter >= 0 }

// Get reads the property of obj, an addressable struct value.
func (p *Property) Get(obj reflect.Value) (res reflect.Value, err error) {
	switch {
	case p.index != nil:
		f, err := obj.FieldByIndexErr(p.index)
		if err != nil {
			// nil embedded pointer
			return reflect.Zero(p.Type), nil
		}
		return f, nil
	case p.getter >= 0:
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s getter panicked: %v", p.Name, r)
			}
		}()
		out := obj.Addr().Method(p.getter).Call(nil)
		if p.getterErr && !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
		return out[0], nil
	default:
		return reflect.Value{}, fmt.Errorf("property %q is not readable", p.Name)
	}
}

// Set assigns x to the property of obj, an addressable struct value.
func (p *Property) Set(obj reflect.Value, x reflect.Value) (err error) {
	v, ok := fit(x, p.Type)
	if !ok {
		return fmt.Errorf("cannot assign %s to %s", x.Type(), p.Type)
	}
	switch {
	case p.index != nil:
		f := obj
		for i, idx := range p.index {
			if i > 0 && f.Kind() == reflect.Pointer {
				if f.IsNil() {
					if !f.CanSet() {
						return fmt.Errorf("nil embedded pointer %s", f.Type())
					}
					f.Set(reflect.New(f.Type().Elem()))
				}
				f = f.Elem()
			}
			f = f.Field(idx)
		}
		if !f.CanSet() {
			return errors.New("field cannot be set")
		}
		f.Set(v)
		return nil
	case p.setter >= 0:
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("setter panicked: %v", r)
			}
		}()
		out := obj.Addr().Method(p.setter).Call([]reflect.Value{v})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	default:
		return errors.New("no write capability")
	}
}

// Catalog is the ordered set of properties of a struct type.
type Catalog struct {
	Type reflect.Type

	props       []*Property
	byName      map[string]*Property
	ctors       []*constructor
	requireCtor bool
}

// Properties returns the properties in ascending name order. The slice
// must not be modified.
func (c *Catalog) Properties() []*Property { return c.props }

// Property returns the named property, or nil.
func (c *Catalog) Property(name string) *Property { return c.byName[name] }

// Len returns the number of properties.
func (c *Catalog) Len() int { return len(c.props) }

// Constructors returns the property names of each constructor binding,
// in the order they are tried.
func (c *Catalog) Constructors() [][]string {
	res := make([][]string, len(c.ctors))
	for i, ctor := range c.ctors {
		res[i] = slices.Clone(ctor.names)
	}
	return res
}

// decapitalize derives a property name from a Go identifier: the first
// letter is lowered unless the first two letters are both upper case, so
// Name is "name" and URL stays "URL".
func decapitalize(name string) string {
	r, n := utf8.DecodeRuneInString(name)
	if n == len(name) {
		return string(unicode.ToLower(r))
	}
	r2, _ := utf8.DecodeRuneInString(name[n:])
	if unicode.IsUpper(r) && unicode.IsUpper(r2) {
		return name
	}
	return string(unicode.ToLower(r)) + name[n:]
}

func capitalize(name string) string {
	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[n:]
}

type catalogBuilder struct {
	t      reflect.Type
	pt     reflect.Type
	spec   *TypeSpec
	byName map[string]*Property
}

func buildCatalog(t reflect.Type, spec *TypeSpec) (*Catalog, error) {
	if t.Kind() != reflect.Struct {
		return nil, &UncatalogableError{Type: t, Message: fmt.Sprintf("%s is not a struct", t.Kind())}
	}
	if spec != nil {
		if err := spec.err(); err != nil {
			return nil, &UncatalogableError{Type: t, Message: "invalid registration", Err: err}
		}
	}
	b := &catalogBuilder{
		t:      t,
		pt:     reflect.PointerTo(t),
		spec:   spec,
		byName: map[string]*Property{},
	}
	steps := []func() error{b.fields, b.accessorPairs}
	if spec != nil {
		steps = append(steps, b.accessors, b.constructors, b.exclusions)
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, &UncatalogableError{Type: t, Err: err}
		}
	}
	cat := &Catalog{Type: t, byName: b.byName}
	if spec != nil {
		cat.ctors = slices.Clone(spec.ctors)
		cat.requireCtor = spec.requireCtor
		slices.SortStableFunc(cat.ctors, func(a, b *constructor) int {
			return len(b.names) - len(a.names)
		})
		for i := 1; i < len(cat.ctors); i++ {
			if len(cat.ctors[i].names) == len(cat.ctors[i-1].names) {
				return nil, &UncatalogableError{Type: t, Message: fmt.Sprintf(
					"constructors %s and %s both bind %d properties",
					cat.ctors[i-1], cat.ctors[i], len(cat.ctors[i].names))}
			}
		}
	}
	for name, p := range b.byName {
		if !p.Writable() && p.bound == 0 {
			return nil, &UncatalogableError{Type: t, Err: &PropertyWriteError{
				Type:     t,
				Property: name,
				Err:      errors.New("no write capability and no constructor binding"),
			}}
		}
		cat.props = append(cat.props, p)
	}
	slices.SortFunc(cat.props, func(a, b *Property) int {
		return strings.Compare(a.Name, b.Name)
	})
	know(t)
	for _, p := range cat.props {
		know(p.Type)
	}
	return cat, nil
}

func (b *catalogBuilder) add(p *Property) error {
	if _, dup := b.byName[p.Name]; dup {
		return fmt.Errorf("duplicate property %q", p.Name)
	}
	b.byName[p.Name] = p
	return nil
}

// fields adds the exported fields, with embedded structs flattened.
func (b *catalogBuilder) fields() error {
	visible := reflect.VisibleFields(b.t)
	// a name reachable at more than one shallowest depth is ambiguous
	depth := map[string]int{}
	count := map[string]int{}
	for _, f := range visible {
		d, ok := depth[f.Name]
		switch {
		case !ok || len(f.Index) < d:
			depth[f.Name] = len(f.Index)
			count[f.Name] = 1
		case len(f.Index) == d:
			count[f.Name]++
		}
	}
	for _, f := range visible {
		if !f.IsExported() || len(f.Index) != depth[f.Name] || count[f.Name] > 1 {
			continue
		}
		if f.Anonymous && baseType(f.Type).Kind() == reflect.Struct {
			continue
		}
		tag, err := parseFieldTag(f)
		if err != nil {
			return err
		}
		if tag.Omit {
			continue
		}
		name := tag.Name
		if name == "" {
			name = decapitalize(f.Name)
		}
		err = b.add(&Property{
			Name:      name,
			Type:      f.Type,
			Transient: tag.Transient,
			index:     f.Index,
			getter:    -1,
			setter:    -1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// getter finds the method Name() T or Name() (T, error) on *T.
func (b *catalogBuilder) getter(goName string) (reflect.Method, bool, bool) {
	m, ok := b.pt.MethodByName(goName)
	if !ok {
		return m, false, false
	}
	mt := m.Type
	switch {
	case mt.NumIn() == 1 && mt.NumOut() == 1:
		return m, false, true
	case mt.NumIn() == 1 && mt.NumOut() == 2 && mt.Out(1) == errorType:
		return m, true, true
	}
	return m, false, false
}

// setter finds the method SetName(T) or SetName(T) error on *T.
func (b *catalogBuilder) setter(goName string) (reflect.Method, bool) {
	m, ok := b.pt.MethodByName("Set" + goName)
	if !ok || m.Type.NumIn() != 2 {
		return m, false
	}
	switch {
	case m.Type.NumOut() == 0:
		return m, true
	case m.Type.NumOut() == 1 && m.Type.Out(0) == errorType:
		return m, true
	}
	return m, false
}

// accessorPairs adds properties for each SetX method with a matching X
// getter, and write-only properties for SetX with no X.
func (b *catalogBuilder) accessorPairs() error {
	for i := range b.pt.NumMethod() {
		m := b.pt.Method(i)
		if !strings.HasPrefix(m.Name, "Set") || len(m.Name) == 3 {
			continue
		}
		goName := m.Name[3:]
		sm, ok := b.setter(goName)
		if !ok {
			continue
		}
		name := decapitalize(goName)
		if _, isField := b.byName[name]; isField {
			continue
		}
		p := &Property{Name: name, Type: sm.Type.In(1), getter: -1, setter: sm.Index}
		if gm, withErr, ok := b.getter(goName); ok && gm.Type.Out(0) == p.Type {
			p.getter = gm.Index
			p.getterErr = withErr
		}
		if err := b.add(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *catalogBuilder) readOnly(name string) (*Property, error) {
	gm, withErr, ok := b.getter(capitalize(name))
	if !ok {
		return nil, fmt.Errorf("no getter %s for property %q", capitalize(name), name)
	}
	return &Property{Name: name, Type: gm.Type.Out(0), getter: gm.Index, getterErr: withErr, setter: -1}, nil
}

// accessors adds the declared getter-only properties.
func (b *catalogBuilder) accessors() error {
	for _, name := range b.spec.accessors {
		if p, ok := b.byName[name]; ok {
			if p.getter >= 0 || p.index != nil {
				continue
			}
		}
		p, err := b.readOnly(name)
		if err != nil {
			return err
		}
		if old, ok := b.byName[name]; ok {
			old.getter, old.getterErr = p.getter, p.getterErr
			continue
		}
		if err := b.add(p); err != nil {
			return err
		}
	}
	return nil
}

// constructors checks the constructor parameters against the properties
// and adds properties known only through constructors.
func (b *catalogBuilder) constructors() error {
	for _, c := range b.spec.ctors {
		for i, name := range c.names {
			p, ok := b.byName[name]
			if !ok {
				var err error
				p, err = b.readOnly(name)
				if err != nil {
					// bound by the constructor only
					p = &Property{Name: name, Type: c.in[i], getter: -1, setter: -1}
				}
				if err := b.add(p); err != nil {
					return err
				}
			}
			if !convertible(p.Type, c.in[i]) && !p.Type.AssignableTo(c.in[i]) {
				return fmt.Errorf("constructor %s: property %q is %s, parameter is %s", c, name, p.Type, c.in[i])
			}
			p.bound++
		}
	}
	return nil
}

func (b *catalogBuilder) exclusions() error {
	for _, name := range b.spec.exclude {
		p, ok := b.byName[name]
		if !ok {
			return fmt.Errorf("excluded property %q does not exist", name)
		}
		if p.bound > 0 {
			return fmt.Errorf("excluded property %q is bound by a constructor", name)
		}
		delete(b.byName, name)
	}
	return nil
}
